package middleware

import (
	"strconv"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/metrics"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func RequestID() echo.MiddlewareFunc {
	return echoMw.RequestIDWithConfig(echoMw.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

// RequestLogger logs one zap entry per request and records the request in
// the HTTP metrics under its route template.
func RequestLogger(log *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRoutePath: true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			m.HTTPRequest(v.Method, v.RoutePath, strconv.Itoa(v.Status), v.Latency)
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("http_request", fields...)
			return nil
		},
	})
}

package middleware

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/dto"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandler renders every error as {"message": ..., "details": ...}.
// Server-side failures are logged with their internal cause, which is never
// sent to the client.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := dto.ErrorResponse{Message: http.StatusText(code)}

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				body = dto.ErrorResponse{Message: m}
			case dto.ErrorResponse:
				body = m
			default:
				body = dto.ErrorResponse{Message: http.StatusText(code)}
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("http_request_failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/config"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/consumer"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/handler"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/metrics"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/middleware"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/notify"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/scheduler"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/Eursukkul/booking-microservice/guesthouse/pkg/database"
	"github.com/Eursukkul/booking-microservice/guesthouse/pkg/logger"
	"github.com/Eursukkul/booking-microservice/guesthouse/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cliApp := &cli.App{
		Name:  "guesthouse",
		Usage: "guest-house reservations and prepaid card payments",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the timeout sweep",
				Action: serve,
			},
			{
				Name:   "sweep",
				Usage:  "run a single reminder and cancellation pass, then exit",
				Action: sweepOnce,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything the commands share.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	db      *gorm.DB

	reservations service.ReservationService
	payments     service.PaymentService
	catalog      service.CatalogService
	sweep        *service.SweepService

	rooms repository.RoomRepository
	meals repository.MealRepository

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresDB(cfg.DSN(), log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, db: db, metrics: metrics.New(prometheus.DefaultRegisterer)}

	// Repositories
	txr := repository.NewTransactor(db)
	a.rooms = repository.NewRoomRepository(db)
	a.meals = repository.NewMealRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	cardRepo := repository.NewCardRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	notifier, err := a.notifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	// Services
	opts := service.Options{
		Logger:        log,
		Metrics:       a.metrics,
		DefaultRegion: cfg.DefaultRegion,
	}
	allocator := service.NewAllocator(a.rooms, cfg.RoomLockNoWait, log)
	a.reservations = service.NewReservationService(txr, reservationRepo, guestRepo, a.meals, allocator, opts)
	a.payments = service.NewPaymentService(txr, cardRepo, ledgerRepo, reservationRepo, opts)
	a.catalog = service.NewCatalogService(a.rooms, a.meals, cardRepo, opts)
	a.sweep = service.NewSweepService(txr, reservationRepo, allocator, notifier, service.SweepConfig{
		ReminderAfter:          cfg.Sweep.ReminderAfter,
		CancelAfter:            cfg.Sweep.CancelAfter,
		CancelRequiresReminder: cfg.Sweep.CancelRequiresReminder,
		MarkReminderOnAttempt:  cfg.Sweep.MarkReminderOnAttempt,
	}, opts)

	return a, nil
}

func (a *app) notifier() (service.Notifier, error) {
	if a.cfg.Notifier != "amqp" {
		return notify.NewLogNotifier(a.log), nil
	}
	pub, err := rabbitmq.NewPublisher(a.cfg.RabbitURL, rabbitmq.NotificationExchange, a.log)
	if err != nil {
		return nil, fmt.Errorf("connect notification publisher: %w", err)
	}
	a.closers = append(a.closers, pub.Close)
	return notify.NewQueueNotifier(pub, a.log), nil
}

func serve(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := database.Migrate(a.db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// RabbitMQ consumer: room and meal reference data
	if a.cfg.RabbitURL != "" {
		mqConsumer, err := rabbitmq.NewConsumer(a.cfg.RabbitURL, rabbitmq.CatalogExchange,
			rabbitmq.CatalogQueue, rabbitmq.CatalogBindings, a.log)
		if err != nil {
			return fmt.Errorf("connect catalog consumer: %w", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			return fmt.Errorf("start consuming: %w", err)
		}
		consumer.NewCatalogConsumer(a.rooms, a.meals, a.log).Start(ctx, msgs)
	}

	if a.cfg.Sweep.Enabled {
		locker, closeLocker := a.locker()
		defer closeLocker()

		job := func(ctx context.Context) error {
			report, err := a.sweep.Run(ctx)
			a.log.Info("sweep_finished",
				zap.Int("reminded", report.Reminded),
				zap.Int("reminder_failures", report.ReminderFailures),
				zap.Int("cancelled", report.Cancelled),
			)
			return err
		}
		go scheduler.New(job, a.cfg.Sweep.Interval, a.cfg.Sweep.LockTTL, locker, a.log).Run(ctx)
	}

	e := newServer(a)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server_starting", zap.String("port", a.cfg.ServerPort))
		if err := e.Start(":" + a.cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(a.log)
	e.Validator = middleware.NewRequestValidator()
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(a.log, a.metrics))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": a.cfg.ServiceName})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewReservationHandler(a.reservations).RegisterRoutes(e)
	handler.NewPaymentHandler(a.payments).RegisterRoutes(e)
	handler.NewCatalogHandler(a.catalog).RegisterRoutes(e)
	return e
}

// locker coordinates the sweep across replicas when Redis is configured.
func (a *app) locker() (scheduler.Locker, func()) {
	if a.cfg.RedisAddr == "" {
		return scheduler.NewLocalLocker(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	return scheduler.NewRedisLocker(rdb), func() { _ = rdb.Close() }
}

func sweepOnce(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.sweep.Run(c.Context)
	if encErr := json.NewEncoder(os.Stdout).Encode(report); encErr != nil {
		return encErr
	}
	return err
}

func migrate(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := database.Migrate(a.db); err != nil {
		return err
	}
	a.log.Info("migration_complete")
	return nil
}

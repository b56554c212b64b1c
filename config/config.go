package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nyaruka/phonenumbers"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"guesthouse"`
	Env         string `envconfig:"APP_ENV" default:"dev"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8082"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"guesthouse_db"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// RoomLockNoWait makes the allocator fail fast instead of queueing
	// behind a concurrent locker.
	RoomLockNoWait bool `envconfig:"ROOM_LOCK_NOWAIT" default:"false"`

	// RabbitURL is optional; without it notifications go to the log and the
	// catalog consumer is not started.
	RabbitURL string `envconfig:"RABBITMQ_URL"`
	Notifier  string `envconfig:"NOTIFIER" default:"log"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// DefaultRegion is the ISO 3166 region national phone numbers are dialled from.
	DefaultRegion string `envconfig:"DEFAULT_PHONE_REGION" default:"RW"`

	Sweep SweepConfig
}

type SweepConfig struct {
	Enabled                bool          `envconfig:"SWEEP_ENABLED" default:"true"`
	Interval               time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
	ReminderAfter          time.Duration `envconfig:"SWEEP_REMINDER_AFTER" default:"2m"`
	CancelAfter            time.Duration `envconfig:"SWEEP_CANCEL_AFTER" default:"5m"`
	CancelRequiresReminder bool          `envconfig:"SWEEP_CANCEL_REQUIRES_REMINDER" default:"false"`
	MarkReminderOnAttempt  bool          `envconfig:"SWEEP_REMINDER_ON_ATTEMPT" default:"false"`
	LockTTL                time.Duration `envconfig:"SWEEP_LOCK_TTL" default:"2m"`
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c Config) validate() error {
	if c.Sweep.ReminderAfter <= 0 || c.Sweep.CancelAfter <= 0 {
		return fmt.Errorf("sweep thresholds must be positive")
	}
	if c.Sweep.CancelAfter < c.Sweep.ReminderAfter {
		return fmt.Errorf("SWEEP_CANCEL_AFTER (%s) must not be shorter than SWEEP_REMINDER_AFTER (%s)",
			c.Sweep.CancelAfter, c.Sweep.ReminderAfter)
	}
	if !phonenumbers.GetSupportedRegions()[c.DefaultRegion] {
		return fmt.Errorf("unknown DEFAULT_PHONE_REGION %q", c.DefaultRegion)
	}
	switch c.Notifier {
	case "log", "amqp":
	default:
		return fmt.Errorf("unknown NOTIFIER %q (want log or amqp)", c.Notifier)
	}
	if c.Notifier == "amqp" && c.RabbitURL == "" {
		return fmt.Errorf("NOTIFIER=amqp requires RABBITMQ_URL")
	}
	return nil
}

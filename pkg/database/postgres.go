package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB opens the pool. TranslateError is on so unique violations
// surface as gorm.ErrDuplicatedKey.
func NewPostgresDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database_connected")
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Room{},
		&models.Meal{},
		&models.Guest{},
		&models.Card{},
		&models.Reservation{},
		&models.LedgerEntry{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// A guest may hold at most one active card
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_active_guest
		ON cards (guest_id)
		WHERE is_active AND guest_id IS NOT NULL
	`).Error
	if err != nil {
		return fmt.Errorf("create active card index: %w", err)
	}
	return nil
}

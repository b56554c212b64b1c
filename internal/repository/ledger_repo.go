package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is append-only: there is deliberately no update or delete.
type LedgerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error)
	FindAll(ctx context.Context) ([]models.LedgerEntry, error)
	FindByCard(ctx context.Context, cardID uint) ([]models.LedgerEntry, error)
	SumByCard(ctx context.Context, cardID uint) (decimal.Decimal, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.LedgerEntry) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).Preload("Card").First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindAll returns every entry in creation order.
func (r *ledgerRepository) FindAll(ctx context.Context) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).Preload("Card").Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) FindByCard(ctx context.Context, cardID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) SumByCard(ctx context.Context, cardID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("card_id = ?", cardID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

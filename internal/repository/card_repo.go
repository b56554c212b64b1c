package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	FindByID(ctx context.Context, id uint) (*models.Card, error)
	FindAll(ctx context.Context) ([]models.Card, error)
	FindByNumberForUpdate(ctx context.Context, tx *gorm.DB, number string) (*models.Card, error)
	UpdateBalance(ctx context.Context, tx *gorm.DB, id uint, balance decimal.Decimal) error
}

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *cardRepository) FindByID(ctx context.Context, id uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) FindAll(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// FindByNumberForUpdate locks the card row so concurrent money movements on
// the same card serialize.
func (r *cardRepository) FindByNumberForUpdate(ctx context.Context, tx *gorm.DB, number string) (*models.Card, error) {
	var card models.Card
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("card_number = ?", number).
		First(&card).Error
	if err != nil {
		return nil, Translate(err)
	}
	return &card, nil
}

func (r *cardRepository) UpdateBalance(ctx context.Context, tx *gorm.DB, id uint, balance decimal.Decimal) error {
	return tx.WithContext(ctx).
		Model(&models.Card{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

package repository

import (
	"context"
	"errors"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GuestRepository interface {
	// FindOrCreate inserts guest unless a guest with the same email exists,
	// in which case the stored guest is returned. The insert-if-absent is a
	// single statement so concurrent identical signups converge on one row.
	// A phone owned by a guest with another email yields gorm.ErrDuplicatedKey.
	FindOrCreate(ctx context.Context, guest *models.Guest) (*models.Guest, bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Guest, error)
}

type guestRepository struct {
	db *gorm.DB
}

func NewGuestRepository(db *gorm.DB) GuestRepository {
	return &guestRepository{db: db}
}

func (r *guestRepository) FindOrCreate(ctx context.Context, guest *models.Guest) (*models.Guest, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(guest)
	if res.Error != nil {
		if !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, false, Translate(res.Error)
		}
		// A racing signup for the same email can commit between the email
		// arbiter check and the phone index check.
		existing, err := r.FindByEmail(ctx, guest.Email)
		if err != nil {
			return nil, false, res.Error
		}
		return existing, false, nil
	}
	if res.RowsAffected == 1 {
		return guest, true, nil
	}
	existing, err := r.FindByEmail(ctx, guest.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *guestRepository) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	var guest models.Guest
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&guest).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

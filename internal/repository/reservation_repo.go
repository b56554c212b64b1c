package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindAll(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus) (bool, error)
	FindDueForReminder(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	FindExpired(ctx context.Context, cutoff time.Time, requireReminder bool) ([]models.Reservation, error)
	MarkReminderSent(ctx context.Context, id uint) (bool, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Guest").Preload("Room").Preload("Meal").
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindAll(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).Preload("Guest")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&reservation, id).Error
	if err != nil {
		return nil, Translate(err)
	}
	return &reservation, nil
}

// TransitionStatus moves the reservation from `from` to `to` only if it is
// still in `from`. It reports whether the row changed, so a concurrent
// transition that already won is observed as false rather than overwritten.
func (r *reservationRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, Translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *reservationRepository) FindDueForReminder(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Guest").
		Where("status = ? AND reminder_sent = ? AND created_at <= ?", models.StatusPending, false, cutoff).
		Order("created_at ASC, id ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindExpired(ctx context.Context, cutoff time.Time, requireReminder bool) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).
		Preload("Guest").
		Where("status = ? AND created_at <= ?", models.StatusPending, cutoff)
	if requireReminder {
		q = q.Where("reminder_sent = ?", true)
	}
	if err := q.Order("created_at ASC, id ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// MarkReminderSent flags a still-pending reservation. A reservation that was
// paid, cancelled or already flagged in the meantime is left alone.
func (r *reservationRepository) MarkReminderSent(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ? AND reminder_sent = ?", id, models.StatusPending, false).
		Update("reminder_sent", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

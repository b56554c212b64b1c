package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindAll(ctx context.Context) ([]models.Room, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint, noWait bool) (*models.Room, error)
	UpdateAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error
	UpsertReference(ctx context.Context, room *models.Room) error
}

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return Translate(r.db.WithContext(ctx).Create(room).Error)
}

func (r *roomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindAll(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByIDForUpdate acquires a row-level lock on the room within the given
// transaction. With noWait a row already locked by another transaction
// fails immediately with ErrLockNotAvailable instead of blocking.
func (r *roomRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint, noWait bool) (*models.Room, error) {
	lock := clause.Locking{Strength: clause.LockingStrengthUpdate}
	if noWait {
		lock.Options = clause.LockingOptionsNoWait
	}
	var room models.Room
	if err := tx.WithContext(ctx).Clauses(lock).First(&room, id).Error; err != nil {
		return nil, Translate(err)
	}
	return &room, nil
}

func (r *roomRepository) UpdateAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error {
	return tx.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", id).
		Update("is_available", available).Error
}

// UpsertReference inserts or refreshes a room's reference data (name, rate)
// coming from the catalog feed. Availability of an existing room is owned by
// the allocator and is never overwritten here. The feed carries its own ids,
// so the id sequence is moved past them in the same transaction.
func (r *roomRepository) UpsertReference(ctx context.Context, room *models.Room) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price_per_night", "updated_at"}),
		}).Create(room).Error
		if err != nil {
			return err
		}
		return advanceIDSequence(tx, "rooms", room.ID)
	})
	return Translate(err)
}

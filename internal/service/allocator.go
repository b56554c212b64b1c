package service

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Allocator hands out exclusive use of a room. Both operations run inside the
// caller's transaction so the availability flag commits or rolls back with
// the reservation that owns it.
type Allocator struct {
	rooms  repository.RoomRepository
	noWait bool
	log    *zap.Logger
}

func NewAllocator(rooms repository.RoomRepository, noWait bool, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{rooms: rooms, noWait: noWait, log: log}
}

// TryReserveRoom locks the room row, rereads its availability and flips it
// to unavailable. Losing the race, either on the flag or on a NOWAIT lock,
// yields a *RoomUnavailableError; there is no internal retry.
func (a *Allocator) TryReserveRoom(ctx context.Context, tx *gorm.DB, roomID uint, checkIn, checkOut time.Time) (*models.Room, error) {
	room, err := a.rooms.FindByIDForUpdate(ctx, tx, roomID, a.noWait)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRoomNotFound
		case errors.Is(err, repository.ErrLockNotAvailable):
			return nil, &RoomUnavailableError{RoomID: roomID}
		}
		return nil, err
	}
	if !room.IsAvailable {
		return nil, &RoomUnavailableError{RoomID: roomID}
	}

	if err := a.rooms.UpdateAvailability(ctx, tx, roomID, false); err != nil {
		return nil, err
	}
	room.IsAvailable = false

	a.log.Debug("room_reserved",
		zap.Uint("room_id", roomID),
		zap.Time("check_in", checkIn),
		zap.Time("check_out", checkOut),
	)
	return room, nil
}

// ReleaseRoom makes the room bookable again. Callers release only rooms held
// by a reservation they are cancelling in the same transaction.
func (a *Allocator) ReleaseRoom(ctx context.Context, tx *gorm.DB, roomID uint) error {
	if err := a.rooms.UpdateAvailability(ctx, tx, roomID, true); err != nil {
		return err
	}
	a.log.Debug("room_released", zap.Uint("room_id", roomID))
	return nil
}

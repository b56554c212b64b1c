package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/metrics"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateReservationInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	RoomID    *uint
	MealID    *uint
	CheckIn   time.Time
	CheckOut  time.Time
}

type ReservationService interface {
	CreateReservation(ctx context.Context, in CreateReservationInput) (*models.Reservation, error)
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	ListReservations(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error)
	CancelReservation(ctx context.Context, id uint) (*models.Reservation, error)
}

type reservationService struct {
	txr          repository.Transactor
	reservations repository.ReservationRepository
	guests       repository.GuestRepository
	meals        repository.MealRepository
	allocator    *Allocator
	clock        Clock
	region       string
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewReservationService(
	txr repository.Transactor,
	reservations repository.ReservationRepository,
	guests repository.GuestRepository,
	meals repository.MealRepository,
	allocator *Allocator,
	opts Options,
) ReservationService {
	opts = opts.withDefaults()
	return &reservationService{
		txr:          txr,
		reservations: reservations,
		guests:       guests,
		meals:        meals,
		allocator:    allocator,
		clock:        opts.Clock,
		region:       opts.DefaultRegion,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	guestIn, err := s.validate(in)
	if err != nil {
		s.metrics.Reservation("invalid")
		return nil, err
	}

	// 1. Find-or-create the guest. This commits on its own: repeating it is
	// harmless, so a later failure does not need to undo it.
	guest, created, err := s.guests.FindOrCreate(ctx, guestIn)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("find or create guest: %w", err)
	}

	// 2. Meals are immutable reference data, no lock needed
	var meal *models.Meal
	if in.MealID != nil {
		meal, err = s.meals.FindByID(ctx, *in.MealID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.metrics.Reservation("meal_not_found")
				return nil, ErrMealNotFound
			}
			return nil, err
		}
	}

	var result *models.Reservation
	err = s.txr.Transaction(ctx, func(tx *gorm.DB) error {
		total := decimal.Zero
		var room *models.Room

		// 3. Allocate the room; the lock and flag flip ride on this tx
		if in.RoomID != nil {
			locked, err := s.allocator.TryReserveRoom(ctx, tx, *in.RoomID, in.CheckIn, in.CheckOut)
			if err != nil {
				return err
			}
			room = locked
			nights := decimal.NewFromInt(models.Nights(in.CheckIn, in.CheckOut))
			total = total.Add(room.PricePerNight.Mul(nights))
		}
		if meal != nil {
			total = total.Add(meal.Price)
		}
		if !total.IsPositive() {
			return invalid("total_cost", "reservation must include a priced room or meal")
		}

		// 4. Persist as pending with the frozen total
		reservation := &models.Reservation{
			GuestID:      guest.ID,
			RoomID:       in.RoomID,
			MealID:       in.MealID,
			CheckInDate:  in.CheckIn,
			CheckOutDate: in.CheckOut,
			TotalCost:    total.Round(2),
			Status:       models.StatusPending,
			ReminderSent: false,
			CreatedAt:    s.clock.Now(),
		}
		if err := s.reservations.Create(ctx, tx, reservation); err != nil {
			return err
		}
		reservation.Guest = guest
		reservation.Room = room
		reservation.Meal = meal
		result = reservation
		return nil
	})
	if err != nil {
		s.metrics.Reservation(outcome(err))
		s.log.Info("reservation_rejected",
			zap.String("email", guestIn.Email),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.Reservation("created")
	s.log.Info("reservation_created",
		zap.Uint("reservation_id", result.ID),
		zap.Uint("guest_id", guest.ID),
		zap.Bool("guest_created", created),
		zap.String("total_cost", result.TotalCost.StringFixed(2)),
	)
	return result, nil
}

func (s *reservationService) validate(in CreateReservationInput) (*models.Guest, error) {
	first, err := validateName("first_name", in.FirstName, 50)
	if err != nil {
		return nil, err
	}
	last, err := validateName("last_name", in.LastName, 50)
	if err != nil {
		return nil, err
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(in.Phone, s.region)
	if err != nil {
		return nil, err
	}
	if in.RoomID == nil && in.MealID == nil {
		return nil, invalid("", "at least a room or a meal must be selected")
	}
	if models.Nights(in.CheckIn, in.CheckOut) < 1 {
		return nil, invalid("check_out_date", "must be after check-in date")
	}
	return &models.Guest{FirstName: first, LastName: last, Email: email, Phone: phone}, nil
}

func (s *reservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	r, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *reservationService) ListReservations(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("status", "must be one of pending, paid, cancelled")
	}
	return s.reservations.FindAll(ctx, status)
}

// CancelReservation cancels a pending reservation on the guest's request and
// gives its room back.
func (s *reservationService) CancelReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var result *models.Reservation

	err := s.txr.Transaction(ctx, func(tx *gorm.DB) error {
		r, err := s.reservations.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if !r.Status.CanTransitionTo(models.StatusCancelled) {
			return ErrNotPending
		}

		ok, err := s.reservations.TransitionStatus(ctx, tx, id, models.StatusPending, models.StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPending
		}
		if r.RoomID != nil {
			if err := s.allocator.ReleaseRoom(ctx, tx, *r.RoomID); err != nil {
				return err
			}
		}

		r.Status = models.StatusCancelled
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation_cancelled",
		zap.Uint("reservation_id", id),
		zap.String("reason", "guest_request"),
	)
	return result, nil
}

// outcome turns an error into a low-cardinality metric label.
func outcome(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, ErrRoomUnavailable):
		return "room_unavailable"
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrMealNotFound),
		errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrCardNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCard), errors.Is(err, ErrCardInactive):
		return "invalid_card"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrTransient):
		return "transient"
	}
	return "error"
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateCardInput struct {
	GuestID        *uint
	CardholderName string
	CardNumber     string
	CVC            string
	ExpirationDate string
	IsActive       bool
}

// CatalogService manages the administrative records reservations and
// payments refer to: rooms, meals and cards.
type CatalogService interface {
	CreateRoom(ctx context.Context, name string, pricePerNight decimal.Decimal) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, id uint) (*models.Room, error)
	CreateMeal(ctx context.Context, name string, price decimal.Decimal) (*models.Meal, error)
	ListMeals(ctx context.Context) ([]models.Meal, error)
	CreateCard(ctx context.Context, in CreateCardInput) (*models.Card, error)
	ListCards(ctx context.Context) ([]models.Card, error)
}

type catalogService struct {
	rooms      repository.RoomRepository
	meals      repository.MealRepository
	cards      repository.CardRepository
	bcryptCost int
	log        *zap.Logger
}

func NewCatalogService(rooms repository.RoomRepository, meals repository.MealRepository, cards repository.CardRepository, opts Options) CatalogService {
	opts = opts.withDefaults()
	return &catalogService{
		rooms:      rooms,
		meals:      meals,
		cards:      cards,
		bcryptCost: opts.BcryptCost,
		log:        opts.Logger,
	}
}

func (s *catalogService) CreateRoom(ctx context.Context, name string, pricePerNight decimal.Decimal) (*models.Room, error) {
	name, err := validateName("name", name, 100)
	if err != nil {
		return nil, err
	}
	if err := validatePrice("price_per_night", pricePerNight); err != nil {
		return nil, err
	}
	room := &models.Room{Name: name, PricePerNight: pricePerNight, IsAvailable: true}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	s.log.Info("room_created", zap.Uint("room_id", room.ID))
	return room, nil
}

func (s *catalogService) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms.FindAll(ctx)
}

func (s *catalogService) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *catalogService) CreateMeal(ctx context.Context, name string, price decimal.Decimal) (*models.Meal, error) {
	name, err := validateName("name", name, 100)
	if err != nil {
		return nil, err
	}
	if err := validatePrice("price", price); err != nil {
		return nil, err
	}
	meal := &models.Meal{Name: name, Price: price}
	if err := s.meals.Create(ctx, meal); err != nil {
		return nil, err
	}
	s.log.Info("meal_created", zap.Uint("meal_id", meal.ID))
	return meal, nil
}

func (s *catalogService) ListMeals(ctx context.Context) ([]models.Meal, error) {
	return s.meals.FindAll(ctx)
}

// CreateCard stores a new card with a zero balance; money only arrives
// through deposits so the ledger always explains the balance. The CVC is
// kept as a bcrypt hash.
func (s *catalogService) CreateCard(ctx context.Context, in CreateCardInput) (*models.Card, error) {
	number := normalizeCardNumber(in.CardNumber)
	if !cardNumberForm.MatchString(number) {
		return nil, invalid("card_number", "must be 12 to 19 digits")
	}
	if !cvcForm.MatchString(in.CVC) {
		return nil, invalid("cvc", "must be 3 or 4 digits")
	}
	if in.ExpirationDate != "" && !expirationForm.MatchString(in.ExpirationDate) {
		return nil, invalid("expiration_date", "must be in MM/YY format")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.CVC), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash cvc: %w", err)
	}
	card := &models.Card{
		GuestID:        in.GuestID,
		CardholderName: strings.TrimSpace(in.CardholderName),
		CardNumber:     number,
		CVCHash:        string(hash),
		ExpirationDate: in.ExpirationDate,
		Balance:        decimal.Zero,
		IsActive:       in.IsActive,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCardConflict
		}
		return nil, err
	}
	s.log.Info("card_created", zap.Uint("card_id", card.ID), zap.String("card_last_4", card.Last4()))
	return card, nil
}

func (s *catalogService) ListCards(ctx context.Context) ([]models.Card, error) {
	return s.cards.FindAll(ctx)
}

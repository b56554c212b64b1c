package service

import (
	"context"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *memStore
	clock    *fakeClock
	notifier *fakeNotifier

	allocator    *Allocator
	reservations ReservationService
	payments     PaymentService
	catalog      CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	clock := &fakeClock{now: t0}
	opts := Options{Clock: clock, BcryptCost: bcrypt.MinCost}

	allocator := NewAllocator(memRooms{store}, false, nil)
	return &testEnv{
		store:     store,
		clock:     clock,
		notifier:  &fakeNotifier{},
		allocator: allocator,
		reservations: NewReservationService(store, memReservations{store}, memGuests{store},
			memMeals{store}, allocator, opts),
		payments: NewPaymentService(store, memCards{store}, memLedger{store},
			memReservations{store}, opts),
		catalog: NewCatalogService(memRooms{store}, memMeals{store}, memCards{store}, opts),
	}
}

func (e *testEnv) sweep(cfg SweepConfig) *SweepService {
	return NewSweepService(e.store, memReservations{e.store}, e.allocator, e.notifier, cfg,
		Options{Clock: e.clock})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func uintPtr(v uint) *uint { return &v }

func (e *testEnv) room(t *testing.T, price string) *models.Room {
	t.Helper()
	room, err := e.catalog.CreateRoom(context.Background(), "Room", dec(price))
	require.NoError(t, err)
	return room
}

func (e *testEnv) meal(t *testing.T, price string) *models.Meal {
	t.Helper()
	meal, err := e.catalog.CreateMeal(context.Background(), "Breakfast", dec(price))
	require.NoError(t, err)
	return meal
}

func (e *testEnv) card(t *testing.T, number, cvc string, active bool) *models.Card {
	t.Helper()
	card, err := e.catalog.CreateCard(context.Background(), CreateCardInput{
		CardholderName: "Test Holder",
		CardNumber:     number,
		CVC:            cvc,
		ExpirationDate: "12/29",
		IsActive:       active,
	})
	require.NoError(t, err)
	return card
}

func (e *testEnv) fund(t *testing.T, number, amount string) {
	t.Helper()
	_, _, err := e.payments.Deposit(context.Background(), number, dec(amount))
	require.NoError(t, err)
}

func guestInput(email, phone string, roomID, mealID *uint, nights int) CreateReservationInput {
	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return CreateReservationInput{
		FirstName: "Ada",
		LastName:  "Guest",
		Email:     email,
		Phone:     phone,
		RoomID:    roomID,
		MealID:    mealID,
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, nights),
	}
}

func (e *testEnv) reserve(t *testing.T, roomID, mealID *uint, nights int) *models.Reservation {
	t.Helper()
	r, err := e.reservations.CreateReservation(context.Background(),
		guestInput("ada@example.com", "+250788000001", roomID, mealID, nights))
	require.NoError(t, err)
	return r
}

func (e *testEnv) cardBalance(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	card, err := memCards{e.store}.FindByID(context.Background(), id)
	require.NoError(t, err)
	return card.Balance
}

package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/middleware"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// --- Mock ReservationService ---

type mockReservationService struct {
	createFn func(ctx context.Context, in service.CreateReservationInput) (*models.Reservation, error)
	getFn    func(ctx context.Context, id uint) (*models.Reservation, error)
	listFn   func(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error)
	cancelFn func(ctx context.Context, id uint) (*models.Reservation, error)
}

func (m *mockReservationService) CreateReservation(ctx context.Context, in service.CreateReservationInput) (*models.Reservation, error) {
	return m.createFn(ctx, in)
}
func (m *mockReservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return m.getFn(ctx, id)
}
func (m *mockReservationService) ListReservations(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error) {
	return m.listFn(ctx, status)
}
func (m *mockReservationService) CancelReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return m.cancelFn(ctx, id)
}

// --- Mock PaymentService ---

type mockPaymentService struct {
	depositFn   func(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.LedgerEntry, decimal.Decimal, error)
	payFn       func(ctx context.Context, in service.PayInput) (*models.LedgerEntry, error)
	listFn      func(ctx context.Context) ([]models.LedgerEntry, error)
	getFn       func(ctx context.Context, id uint) (*models.LedgerEntry, error)
	statementFn func(ctx context.Context, cardID uint) (*service.Statement, error)
}

func (m *mockPaymentService) Deposit(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.LedgerEntry, decimal.Decimal, error) {
	return m.depositFn(ctx, cardNumber, amount)
}
func (m *mockPaymentService) Pay(ctx context.Context, in service.PayInput) (*models.LedgerEntry, error) {
	return m.payFn(ctx, in)
}
func (m *mockPaymentService) ListTransactions(ctx context.Context) ([]models.LedgerEntry, error) {
	return m.listFn(ctx)
}
func (m *mockPaymentService) GetTransaction(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	return m.getFn(ctx, id)
}
func (m *mockPaymentService) CardStatement(ctx context.Context, cardID uint) (*service.Statement, error) {
	return m.statementFn(ctx, cardID)
}

// --- Mock CatalogService ---

type mockCatalogService struct {
	createRoomFn func(ctx context.Context, name string, price decimal.Decimal) (*models.Room, error)
	createCardFn func(ctx context.Context, in service.CreateCardInput) (*models.Card, error)
	listCardsFn  func(ctx context.Context) ([]models.Card, error)
}

func (m *mockCatalogService) CreateRoom(ctx context.Context, name string, price decimal.Decimal) (*models.Room, error) {
	return m.createRoomFn(ctx, name, price)
}
func (m *mockCatalogService) ListRooms(ctx context.Context) ([]models.Room, error) { return nil, nil }
func (m *mockCatalogService) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	return nil, service.ErrRoomNotFound
}
func (m *mockCatalogService) CreateMeal(ctx context.Context, name string, price decimal.Decimal) (*models.Meal, error) {
	return &models.Meal{ID: 1, Name: name, Price: price}, nil
}
func (m *mockCatalogService) ListMeals(ctx context.Context) ([]models.Meal, error) { return nil, nil }
func (m *mockCatalogService) CreateCard(ctx context.Context, in service.CreateCardInput) (*models.Card, error) {
	return m.createCardFn(ctx, in)
}
func (m *mockCatalogService) ListCards(ctx context.Context) ([]models.Card, error) {
	return m.listCardsFn(ctx)
}

// --- Helpers ---

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = middleware.NewRequestValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

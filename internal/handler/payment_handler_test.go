package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/dto"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPay_Handler_Success(t *testing.T) {
	var got service.PayInput
	svc := &mockPaymentService{
		payFn: func(ctx context.Context, in service.PayInput) (*models.LedgerEntry, error) {
			got = in
			return &models.LedgerEntry{ID: 42, Amount: in.Amount.Neg(), Type: models.EntryPayment}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/v1/payments",
		`{"card_number":"4111111111111111","cvc":"123","amount":"100","reservation_id":7}`)

	require.NoError(t, NewPaymentHandler(svc).Pay(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), got.ReservationID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(100)))

	var resp dto.PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(42), resp.TransactionID)
	assert.Equal(t, "1111", resp.CardLast4)
	assert.Equal(t, "100.00", resp.Amount)
	assert.NotContains(t, rec.Body.String(), "4111111111111111")
	assert.NotContains(t, rec.Body.String(), `"123"`)
}

func TestPay_Handler_AmountMismatch(t *testing.T) {
	svc := &mockPaymentService{
		payFn: func(ctx context.Context, in service.PayInput) (*models.LedgerEntry, error) {
			return nil, &service.AmountMismatchError{
				Expected: decimal.NewFromInt(100),
				Provided: in.Amount,
			}
		},
	}
	c, _ := newContext(http.MethodPost, "/api/v1/payments",
		`{"card_number":"4111111111111111","cvc":"123","amount":"99.5","reservation_id":7}`)

	err := NewPaymentHandler(svc).Pay(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
	body := he.Message.(dto.ErrorResponse)
	assert.Equal(t, "100.00", body.Details["expected_amount"])
	assert.Equal(t, "99.50", body.Details["provided_amount"])
}

func TestPay_Handler_MissingAmount(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/v1/payments",
		`{"card_number":"4111111111111111","cvc":"123","reservation_id":7}`)

	err := NewPaymentHandler(nil).Pay(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "required", he.Message.(dto.ErrorResponse).Details["amount"])
}

func TestDeposit_Handler(t *testing.T) {
	svc := &mockPaymentService{
		depositFn: func(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.LedgerEntry, decimal.Decimal, error) {
			if cardNumber != "4111111111111111" {
				return nil, decimal.Zero, service.ErrCardNotFound
			}
			return &models.LedgerEntry{ID: 1, Amount: amount, Type: models.EntryDeposit}, decimal.RequireFromString("250.5"), nil
		},
	}
	h := NewPaymentHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/v1/deposits", `{"card_number":"4111111111111111","amount":"50"}`)
	require.NoError(t, h.Deposit(c))
	var resp dto.DepositResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "250.50", resp.NewBalance)
	assert.Equal(t, "1111", resp.CardLast4)

	c, _ = newContext(http.MethodPost, "/api/v1/deposits", `{"card_number":"5500000000000004","amount":"50"}`)
	he, ok := h.Deposit(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestListTransactions_Handler(t *testing.T) {
	reservationID := uint(3)
	svc := &mockPaymentService{
		listFn: func(ctx context.Context) ([]models.LedgerEntry, error) {
			return []models.LedgerEntry{
				{ID: 1, CardID: 1, Amount: decimal.NewFromInt(200), Type: models.EntryDeposit,
					Card: &models.Card{CardNumber: "4111111111111111"}},
				{ID: 2, CardID: 1, Amount: decimal.NewFromInt(-100), Type: models.EntryPayment,
					ReservationID: &reservationID, Card: &models.Card{CardNumber: "4111111111111111"}},
			}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/api/v1/transactions", "")

	require.NoError(t, NewPaymentHandler(svc).ListTransactions(c))
	var resp []dto.TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "200.00", resp[0].Amount)
	assert.Equal(t, "-100.00", resp[1].Amount)
	assert.Equal(t, &reservationID, resp[1].ReservationID)
	assert.Equal(t, "1111", resp[1].CardLast4)
}

func TestGetTransaction_Handler_NotFound(t *testing.T) {
	svc := &mockPaymentService{
		getFn: func(ctx context.Context, id uint) (*models.LedgerEntry, error) {
			return nil, service.ErrTransactionNotFound
		},
	}
	c, _ := newContext(http.MethodGet, "/api/v1/transactions/9", "")

	he, ok := NewPaymentHandler(svc).GetTransaction(withID(c, "9")).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestCardStatement_Handler(t *testing.T) {
	svc := &mockPaymentService{
		statementFn: func(ctx context.Context, cardID uint) (*service.Statement, error) {
			return &service.Statement{
				Card:       models.Card{ID: cardID, CardNumber: "4111111111111111", Balance: decimal.NewFromInt(100), IsActive: true},
				Entries:    []models.LedgerEntry{{ID: 1, CardID: cardID, Amount: decimal.NewFromInt(100), Type: models.EntryDeposit}},
				LedgerSum:  decimal.NewFromInt(100),
				Consistent: true,
			}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/api/v1/cards/4/statement", "")

	require.NoError(t, NewPaymentHandler(svc).CardStatement(withID(c, "4")))
	var resp dto.StatementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(4), resp.Card.ID)
	assert.Equal(t, "100.00", resp.LedgerSum)
	assert.True(t, resp.Consistent)
	assert.Len(t, resp.Entries, 1)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &service.ValidationError{Field: "amount", Msg: "must be positive"}, http.StatusBadRequest},
		{"reservation not found", service.ErrReservationNotFound, http.StatusNotFound},
		{"card not found", service.ErrCardNotFound, http.StatusNotFound},
		{"not pending", service.ErrNotPending, http.StatusConflict},
		{"card conflict", service.ErrCardConflict, http.StatusConflict},
		{"wrapped unavailable", &service.RoomUnavailableError{RoomID: 1}, http.StatusConflict},
		{"insufficient", service.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"invalid card", service.ErrInvalidCard, http.StatusUnprocessableEntity},
		{"inactive", service.ErrCardInactive, http.StatusUnprocessableEntity},
		{"transient", service.ErrTransient, http.StatusServiceUnavailable},
		{"out of range", fmt.Errorf("deposit: %w", service.ErrValueOutOfRange), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			he, ok := mapError(tc.err).(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tc.code, he.Code)
		})
	}

	he := mapError(errors.New("db exploded")).(*echo.HTTPError)
	assert.Equal(t, "internal server error", he.Message)
	assert.EqualError(t, he.Internal, "db exploded")
}

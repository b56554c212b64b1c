package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/dto"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/payments", h.Pay)
	api.POST("/deposits", h.Deposit)
	api.GET("/transactions", h.ListTransactions)
	api.GET("/transactions/:id", h.GetTransaction)
	api.GET("/cards/:id/statement", h.CardStatement)
}

func (h *PaymentHandler) Pay(c echo.Context) error {
	var req dto.PaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	entry, err := h.svc.Pay(c.Request().Context(), service.PayInput{
		CardNumber:    req.CardNumber,
		CVC:           req.CVC,
		Amount:        *req.Amount,
		ReservationID: req.ReservationID,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, dto.PaymentResponse{
		Message:       fmt.Sprintf("Payment of %s successful.", req.Amount.StringFixed(2)),
		TransactionID: entry.ID,
		CardLast4:     models.LastFour(strings.TrimSpace(req.CardNumber)),
		Amount:        req.Amount.StringFixed(2),
	})
}

func (h *PaymentHandler) Deposit(c echo.Context) error {
	var req dto.DepositRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	entry, balance, err := h.svc.Deposit(c.Request().Context(), req.CardNumber, *req.Amount)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, dto.DepositResponse{
		Message:       fmt.Sprintf("Deposit of %s successful.", req.Amount.StringFixed(2)),
		TransactionID: entry.ID,
		NewBalance:    balance.StringFixed(2),
		CardLast4:     models.LastFour(strings.TrimSpace(req.CardNumber)),
	})
}

func (h *PaymentHandler) ListTransactions(c echo.Context) error {
	entries, err := h.svc.ListTransactions(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToTransactionResponses(entries))
}

func (h *PaymentHandler) GetTransaction(c echo.Context) error {
	id, err := paramID(c, "transaction")
	if err != nil {
		return err
	}

	entry, err := h.svc.GetTransaction(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToTransactionResponse(entry))
}

func (h *PaymentHandler) CardStatement(c echo.Context) error {
	id, err := paramID(c, "card")
	if err != nil {
		return err
	}

	st, err := h.svc.CardStatement(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToStatementResponse(st))
}

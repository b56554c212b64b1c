package handler

import (
	"net/http"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/dto"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/reservations")
	g.POST("", h.CreateReservation)
	g.GET("", h.ListReservations)
	g.GET("/:id", h.GetReservation)
	g.DELETE("/:id", h.CancelReservation)
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req dto.CreateReservationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	// both dates already passed the validator's datetime check
	checkIn, _ := time.Parse(dto.DateLayout, req.CheckInDate)
	checkOut, _ := time.Parse(dto.DateLayout, req.CheckOutDate)

	reservation, err := h.svc.CreateReservation(c.Request().Context(), service.CreateReservationInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		RoomID:    req.RoomID,
		MealID:    req.MealID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToCreateReservationResponse(reservation))
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := paramID(c, "reservation")
	if err != nil {
		return err
	}

	reservation, err := h.svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ListReservations(c echo.Context) error {
	var status *models.ReservationStatus
	if s := c.QueryParam("status"); s != "" {
		rs := models.ReservationStatus(s)
		status = &rs
	}

	reservations, err := h.svc.ListReservations(c.Request().Context(), status)
	if err != nil {
		return mapError(err)
	}

	resp := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToReservationResponse(&reservations[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := paramID(c, "reservation")
	if err != nil {
		return err
	}

	reservation, err := h.svc.CancelReservation(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

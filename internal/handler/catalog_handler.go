package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/dto"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms/:id", h.GetRoom)
	api.GET("/meals", h.ListMeals)
	api.POST("/meals", h.CreateMeal)
	api.GET("/cards", h.ListCards)
	api.POST("/cards", h.CreateCard)
}

func (h *CatalogHandler) CreateRoom(c echo.Context) error {
	var req dto.CreateRoomRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	room, err := h.svc.CreateRoom(c.Request().Context(), req.Name, *req.PricePerNight)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToRoomResponse(room))
}

func (h *CatalogHandler) ListRooms(c echo.Context) error {
	rooms, err := h.svc.ListRooms(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	resp := make([]dto.RoomResponse, len(rooms))
	for i := range rooms {
		resp[i] = dto.ToRoomResponse(&rooms[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetRoom(c echo.Context) error {
	id, err := paramID(c, "room")
	if err != nil {
		return err
	}
	room, err := h.svc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToRoomResponse(room))
}

func (h *CatalogHandler) CreateMeal(c echo.Context) error {
	var req dto.CreateMealRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	meal, err := h.svc.CreateMeal(c.Request().Context(), req.Name, *req.Price)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToMealResponse(meal))
}

func (h *CatalogHandler) ListMeals(c echo.Context) error {
	meals, err := h.svc.ListMeals(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	resp := make([]dto.MealResponse, len(meals))
	for i := range meals {
		resp[i] = dto.ToMealResponse(&meals[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) CreateCard(c echo.Context) error {
	var req dto.CreateCardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	card, err := h.svc.CreateCard(c.Request().Context(), service.CreateCardInput{
		GuestID:        req.GuestID,
		CardholderName: req.CardholderName,
		CardNumber:     req.CardNumber,
		CVC:            req.CVC,
		ExpirationDate: req.ExpirationDate,
		IsActive:       active,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToCardResponse(card))
}

func (h *CatalogHandler) ListCards(c echo.Context) error {
	cards, err := h.svc.ListCards(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	resp := make([]dto.CardResponse, len(cards))
	for i := range cards {
		resp[i] = dto.ToCardResponse(&cards[i])
	}
	return c.JSON(http.StatusOK, resp)
}

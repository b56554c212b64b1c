package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/dto"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// mapError translates service errors into HTTP errors.
func mapError(err error) error {
	var (
		ve       *service.ValidationError
		mismatch *service.AmountMismatchError
	)
	switch {
	case errors.As(err, &ve):
		resp := dto.ErrorResponse{Message: ve.Error()}
		if ve.Field != "" {
			resp.Details = map[string]string{ve.Field: ve.Msg}
		}
		return echo.NewHTTPError(http.StatusBadRequest, resp)

	case errors.As(err, &mismatch):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Message: service.ErrAmountMismatch.Error(),
			Details: map[string]string{
				"expected_amount": mismatch.Expected.StringFixed(2),
				"provided_amount": mismatch.Provided.StringFixed(2),
			},
		})

	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMealNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrRoomUnavailable),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrPhoneTaken),
		errors.Is(err, service.ErrCardConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidCard),
		errors.Is(err, service.ErrCardInactive):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, service.ErrValueOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, "amount is out of range").SetInternal(err)

	case errors.Is(err, service.ErrTransient):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "temporarily unavailable, retry the request").SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{
			Message: "validation failed",
			Details: details,
		})
	}
	return nil
}

func paramID(c echo.Context, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+what+" id")
	}
	return uint(id), nil
}

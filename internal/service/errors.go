package service

import (
	"errors"
	"fmt"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomUnavailable     = errors.New("room is not available")
	ErrMealNotFound        = errors.New("meal not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNotPending          = errors.New("reservation is not pending")
	ErrInvalidCard         = errors.New("invalid card number or CVC")
	ErrCardNotFound        = errors.New("card not found")
	ErrCardInactive        = errors.New("card is not active")
	ErrCardConflict        = errors.New("card number already registered or guest already has an active card")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAmountMismatch      = errors.New("exact amount must be paid")
	ErrPhoneTaken          = errors.New("phone number is registered to another guest")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransient is returned when the storage layer failed before anything
	// was committed; the whole operation may be retried.
	ErrTransient = repository.ErrTransient
	// ErrValueOutOfRange is returned when a stored amount does not fit its
	// column.
	ErrValueOutOfRange = repository.ErrValueOutOfRange
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

type RoomUnavailableError struct {
	RoomID uint
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %d is not available", e.RoomID)
}

func (e *RoomUnavailableError) Is(target error) bool {
	return target == ErrRoomUnavailable
}

type AmountMismatchError struct {
	Expected decimal.Decimal
	Provided decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("exact amount must be paid: expected %s, provided %s",
		e.Expected.StringFixed(2), e.Provided.StringFixed(2))
}

func (e *AmountMismatchError) Is(target error) bool {
	return target == ErrAmountMismatch
}

package dto

import "github.com/shopspring/decimal"

const DateLayout = "2006-01-02"

type CreateReservationRequest struct {
	FirstName    string `json:"first_name" validate:"required,max=50"`
	LastName     string `json:"last_name" validate:"required,max=50"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,max=24"`
	RoomID       *uint  `json:"room_id" validate:"omitempty,gt=0"`
	MealID       *uint  `json:"meal_id" validate:"omitempty,gt=0"`
	CheckInDate  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
}

// PaymentRequest and DepositRequest carry the card number and CVC inbound
// only; no response type has a field for either.
type PaymentRequest struct {
	CardNumber    string           `json:"card_number" validate:"required,max=23"`
	CVC           string           `json:"cvc" validate:"required,max=4"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	ReservationID uint             `json:"reservation_id" validate:"required"`
}

type DepositRequest struct {
	CardNumber string           `json:"card_number" validate:"required,max=23"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
}

type CreateRoomRequest struct {
	Name          string           `json:"name" validate:"required,max=100"`
	PricePerNight *decimal.Decimal `json:"price_per_night" validate:"required"`
}

type CreateMealRequest struct {
	Name  string           `json:"name" validate:"required,max=100"`
	Price *decimal.Decimal `json:"price" validate:"required"`
}

type CreateCardRequest struct {
	GuestID        *uint  `json:"guest_id" validate:"omitempty,gt=0"`
	CardholderName string `json:"cardholder_name" validate:"max=255"`
	CardNumber     string `json:"card_number" validate:"required,max=23"`
	CVC            string `json:"cvc" validate:"required,max=4"`
	ExpirationDate string `json:"expiration_date" validate:"omitempty,len=5"`
	IsActive       *bool  `json:"is_active"`
}

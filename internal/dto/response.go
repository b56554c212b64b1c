package dto

import (
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/service"
	"github.com/shopspring/decimal"
)

// PaymentURL is where a client submits payment for a new reservation.
const PaymentURL = "/api/v1/payments"

type CreateReservationResponse struct {
	Message       string                   `json:"message"`
	ReservationID uint                     `json:"reservation_id"`
	TotalCost     string                   `json:"total_cost"`
	Status        models.ReservationStatus `json:"status"`
	PaymentURL    string                   `json:"payment_url"`
}

type GuestResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ReservationResponse struct {
	ID           uint                     `json:"id"`
	GuestID      uint                     `json:"guest_id"`
	Guest        *GuestResponse           `json:"guest,omitempty"`
	RoomID       *uint                    `json:"room_id,omitempty"`
	MealID       *uint                    `json:"meal_id,omitempty"`
	CheckInDate  string                   `json:"check_in_date"`
	CheckOutDate string                   `json:"check_out_date"`
	TotalCost    string                   `json:"total_cost"`
	Status       models.ReservationStatus `json:"status"`
	ReminderSent bool                     `json:"reminder_sent"`
	CreatedAt    time.Time                `json:"created_at"`
}

type PaymentResponse struct {
	Message       string `json:"message"`
	TransactionID uint   `json:"transaction_id"`
	CardLast4     string `json:"card_last_4"`
	Amount        string `json:"amount"`
}

type DepositResponse struct {
	Message       string `json:"message"`
	TransactionID uint   `json:"transaction_id"`
	NewBalance    string `json:"new_balance"`
	CardLast4     string `json:"card_last_4"`
}

type TransactionResponse struct {
	ID            uint             `json:"id"`
	CardID        uint             `json:"card_id"`
	CardLast4     string           `json:"card_last_4,omitempty"`
	Amount        string           `json:"amount"`
	Type          models.EntryType `json:"transaction_type"`
	ReservationID *uint            `json:"reservation_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type RoomResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	PricePerNight string `json:"price_per_night"`
	IsAvailable   bool   `json:"is_available"`
}

type MealResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// CardResponse is the only outward view of a card: the number is reduced to
// its last four digits and the CVC is absent.
type CardResponse struct {
	ID             uint   `json:"id"`
	GuestID        *uint  `json:"guest_id,omitempty"`
	CardholderName string `json:"cardholder_name"`
	CardLast4      string `json:"card_last_4"`
	ExpirationDate string `json:"expiration_date"`
	Balance        string `json:"balance"`
	IsActive       bool   `json:"is_active"`
}

type StatementResponse struct {
	Card       CardResponse          `json:"card"`
	Entries    []TransactionResponse `json:"entries"`
	LedgerSum  string                `json:"ledger_sum"`
	Consistent bool                  `json:"consistent"`
}

type ErrorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func ToCreateReservationResponse(r *models.Reservation) CreateReservationResponse {
	return CreateReservationResponse{
		Message:       "Reservation created. Proceed to payment.",
		ReservationID: r.ID,
		TotalCost:     money(r.TotalCost),
		Status:        r.Status,
		PaymentURL:    PaymentURL,
	}
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:           r.ID,
		GuestID:      r.GuestID,
		RoomID:       r.RoomID,
		MealID:       r.MealID,
		CheckInDate:  r.CheckInDate.Format(DateLayout),
		CheckOutDate: r.CheckOutDate.Format(DateLayout),
		TotalCost:    money(r.TotalCost),
		Status:       r.Status,
		ReminderSent: r.ReminderSent,
		CreatedAt:    r.CreatedAt,
	}
	if r.Guest != nil {
		resp.Guest = &GuestResponse{
			ID:        r.Guest.ID,
			FirstName: r.Guest.FirstName,
			LastName:  r.Guest.LastName,
			Email:     r.Guest.Email,
			Phone:     r.Guest.Phone,
		}
	}
	return resp
}

func ToTransactionResponse(e *models.LedgerEntry) TransactionResponse {
	resp := TransactionResponse{
		ID:            e.ID,
		CardID:        e.CardID,
		Amount:        money(e.Amount),
		Type:          e.Type,
		ReservationID: e.ReservationID,
		CreatedAt:     e.CreatedAt,
	}
	if e.Card != nil {
		resp.CardLast4 = e.Card.Last4()
	}
	return resp
}

func ToTransactionResponses(entries []models.LedgerEntry) []TransactionResponse {
	resp := make([]TransactionResponse, len(entries))
	for i := range entries {
		resp[i] = ToTransactionResponse(&entries[i])
	}
	return resp
}

func ToRoomResponse(r *models.Room) RoomResponse {
	return RoomResponse{ID: r.ID, Name: r.Name, PricePerNight: money(r.PricePerNight), IsAvailable: r.IsAvailable}
}

func ToMealResponse(m *models.Meal) MealResponse {
	return MealResponse{ID: m.ID, Name: m.Name, Price: money(m.Price)}
}

func ToCardResponse(c *models.Card) CardResponse {
	return CardResponse{
		ID:             c.ID,
		GuestID:        c.GuestID,
		CardholderName: c.CardholderName,
		CardLast4:      c.Last4(),
		ExpirationDate: c.ExpirationDate,
		Balance:        money(c.Balance),
		IsActive:       c.IsActive,
	}
}

func ToStatementResponse(s *service.Statement) StatementResponse {
	return StatementResponse{
		Card:       ToCardResponse(&s.Card),
		Entries:    ToTransactionResponses(s.Entries),
		LedgerSum:  money(s.LedgerSum),
		Consistent: s.Consistent,
	}
}

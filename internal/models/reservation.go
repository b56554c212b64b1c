package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusPaid      ReservationStatus = "paid"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo allows only pending → paid and pending → cancelled.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return s == StatusPending && (next == StatusPaid || next == StatusCancelled)
}

type Reservation struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	GuestID      uint              `gorm:"not null;index" json:"guest_id"`
	RoomID       *uint             `gorm:"index" json:"room_id,omitempty"`
	MealID       *uint             `gorm:"index" json:"meal_id,omitempty"`
	CheckInDate  time.Time         `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate time.Time         `gorm:"type:date;not null" json:"check_out_date"`
	TotalCost    decimal.Decimal   `gorm:"type:numeric;not null" json:"total_cost"`
	Status       ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReminderSent bool              `gorm:"not null" json:"reminder_sent"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Guest *Guest `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	Room  *Room  `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Meal  *Meal  `gorm:"foreignKey:MealID" json:"meal,omitempty"`
}

// Nights counts whole nights between check-in and check-out dates.
func Nights(checkIn, checkOut time.Time) int64 {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int64(out.Sub(in) / (24 * time.Hour))
}

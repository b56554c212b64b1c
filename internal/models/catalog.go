package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Room availability is only ever flipped by the allocator, under a row lock.
type Room struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	PricePerNight decimal.Decimal `gorm:"type:numeric;not null" json:"price_per_night"`
	IsAvailable   bool            `gorm:"not null" json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Meal struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Guest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:50;not null" json:"first_name"`
	LastName  string    `gorm:"size:50;not null" json:"last_name"`
	Email     string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:16;not null;uniqueIndex" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

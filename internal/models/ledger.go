package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is a prepaid debit card. CardNumber and CVCHash never leave the
// service boundary; see dto.CardResponse.
type Card struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	GuestID        *uint           `json:"guest_id,omitempty"`
	CardholderName string          `gorm:"size:255" json:"cardholder_name"`
	CardNumber     string          `gorm:"size:20;not null;uniqueIndex" json:"-"`
	CVCHash        string          `gorm:"column:cvc_hash;not null" json:"-"`
	ExpirationDate string          `gorm:"size:5" json:"expiration_date"`
	Balance        decimal.Decimal `gorm:"type:numeric;not null;default:0;check:chk_cards_balance_non_negative,balance >= 0" json:"balance"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Guest *Guest `gorm:"foreignKey:GuestID" json:"-"`
}

func (c Card) Last4() string {
	return LastFour(c.CardNumber)
}

func LastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

type EntryType string

const (
	EntryDeposit EntryType = "deposit"
	EntryPayment EntryType = "payment"
)

// LedgerEntry is an append-only record of one balance change. Amount is
// signed: deposits are positive and payments negative, so a card's balance
// always equals the sum of its entries.
type LedgerEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CardID        uint            `gorm:"not null;index" json:"card_id"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Type          EntryType       `gorm:"column:transaction_type;type:varchar(20);not null" json:"transaction_type"`
	ReservationID *uint           `gorm:"index" json:"reservation_id,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;<-:create" json:"created_at"`

	Card *Card `gorm:"foreignKey:CardID" json:"-"`
}

func (LedgerEntry) TableName() string {
	return "transactions"
}

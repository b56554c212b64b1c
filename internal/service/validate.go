package service

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/shopspring/decimal"
)

var (
	cardSeparators = strings.NewReplacer(" ", "", "-", "")
	cardNumberForm = regexp.MustCompile(`^[0-9]{12,19}$`)
	cvcForm        = regexp.MustCompile(`^[0-9]{3,4}$`)
	expirationForm = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// NormalizePhone parses raw as a number dialled from defaultRegion (an ISO
// 3166 region such as "RW") and returns it in E.164 form. Numbers that do
// not match a known numbering plan are rejected.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", invalid("phone", "must be a valid national or international phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// normalizeCardNumber strips the grouping characters people type between
// digit blocks. Every lookup and insert goes through it.
func normalizeCardNumber(raw string) string {
	return cardSeparators.Replace(strings.TrimSpace(raw))
}

// NormalizeEmail lower-cases a bare address and rejects anything
// net/mail would not parse as exactly that address.
func NormalizeEmail(raw string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(e[strings.LastIndex(e, "@")+1:], ".") {
		return "", invalid("email", "must be a valid email address")
	}
	return e, nil
}

func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return invalid(field, "must have at most two decimal places")
	}
	return nil
}

func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return invalid(field, "must have at most two decimal places")
	}
	return nil
}

func validateName(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", invalid(field, "is required")
	}
	if len(v) > max {
		return "", invalid(field, "is too long")
	}
	return v, nil
}

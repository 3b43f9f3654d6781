// Package core holds the domain entities and the pure calendar and money
// rules shared by every service.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// requires a strictly positive value. Signs are rejected outright so a
// stray "-" in a form never flips a transaction's direction silently.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidateAmount rejects zero and negative amounts where a positive value
// is required (transaction and budget creation).
func ValidateAmount(d decimal.Decimal) error {
	if d.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is the number of decimal places kept for every stored amount
const Cents = 2

// ParseAmount parses a signed monetary amount as exported by banks and typed by users.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted, a trailing
// currency code (e.g. "PLN") and inner spaces used as thousand separators are
// ignored. The result is rounded half-up to two decimal places.
//
// Examples:
//
//	ParseAmount("-12,34 PLN") -> -12.34
//	ParseAmount("1 200.5")    -> 1200.50
//	ParseAmount("0.005")      -> 0.01
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	})
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return RoundAmount(d), nil
}

// RoundAmount rounds half-up to two decimal places (half away from zero for negatives)
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(Cents)
}

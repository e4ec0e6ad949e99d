// Package core provides money parsing and handling utilities.
//
// This file contains the decimal-backed Money type exchanged with the
// expenses API, which sends amounts either as JSON numbers or as
// numeric strings ("12.50").
package core

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// plainAmount admits digits with an optional fraction. Exponent forms
// such as 1e9999999 never reach the decimal parser.
var plainAmount = regexp.MustCompile(`^\d{1,12}(\.\d{1,8})?$`)

// Money is a decimal monetary amount with two fractional digits.
type Money struct {
	decimal.Decimal
}

// ParseAmount converts a user supplied decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to cents. Zero, negative, exponent and malformed values
// are rejected, as are more than 12 integer or 8 fractional digits.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainAmount.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// NewMoney builds Money from a float, mostly for tests and fixtures.
func NewMoney(v float64) Money {
	return Money{Decimal: decimal.NewFromFloat(v).Round(2)}
}

// String renders the amount with exactly two decimals ("12.50").
func (m Money) String() string {
	return m.StringFixed(2)
}

// Display renders the amount for the UI.
func (m Money) Display() string {
	return "$" + m.String()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

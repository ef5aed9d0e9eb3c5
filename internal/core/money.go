// Package core provides money parsing and handling utilities.
//
// This file contains the parsing of user-entered amounts into exact decimals
// and their display formatting.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used for display when none is configured.
var DefaultCurrency = currency.INR

// ParseAmount converts a user-entered decimal string into an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and anything but digits are rejected. The result is always positive.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("0")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseBound parses an optional filter bound. Empty input yields nil. Unlike
// ParseAmount, zero is accepted since it is a meaningful lower bound.
func ParseBound(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return nil, ErrInvalidAmount
	}
	return &d, nil
}

// ParseCurrency resolves an ISO 4217 code such as "INR" or "EUR".
func ParseCurrency(code string) (currency.Unit, error) {
	return currency.ParseISO(strings.TrimSpace(code))
}

// FormatMoney renders amount with the currency symbol, for display only.
func FormatMoney(amount decimal.Decimal, unit currency.Unit) string {
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.Symbol(unit.Amount(amount.InexactFloat64())))
}

// Package core holds the spending domain: calendar math on days, the
// normalization of raw transactions, cumulative month series and the
// comparison of one month against the previous one.
//
// This file contains amount parsing for loosely formatted sources and
// money formatting for display.
package core

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a human formatted amount into a decimal.
//
// It accepts dot (12.34) and comma (12,34) decimal separators, thousands
// separators of the other kind (1,234.56 or 1.234,56), a leading sign and
// common currency symbols. Unlike amounts typed by hand into an expense
// form, source amounts may be negative (refunds).
//
// A lone comma is a decimal separator, except in dollar amounts where a
// comma followed by exactly three digits groups thousands ($12,500).
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34
//	ParseAmount("12,34")     -> 12.34
//	ParseAmount("$1,234.50") -> 1234.5
//	ParseAmount("$12,500")   -> 12500
//	ParseAmount("-7")        -> -7
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	dollar := strings.Contains(s, "$")
	s = strings.NewReplacer("$", "", "€", "", "£", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrMalformedRecord)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || (dollar && len(s)-lastComma == 4) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrMalformedRecord, s)
	}
	return d, nil
}

// ValidCurrency reports whether code is an ISO 4217 code known to go-money.
func ValidCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// MoneyFormatter returns a function displaying amounts in the given currency,
// e.g. "$1,234.50" for USD.
func MoneyFormatter(code string) func(decimal.Decimal) string {
	code = strings.ToUpper(code)
	fraction := 2
	if c := money.GetCurrency(code); c != nil {
		fraction = c.Fraction
	}
	return func(d decimal.Decimal) string {
		minor := d.Shift(int32(fraction)).Round(0).IntPart()
		return money.New(minor, code).Display()
	}
}

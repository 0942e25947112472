package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// RawTransaction is a transaction as returned by a source, before typing and
// filtering. Amount accepts both JSON numbers and numeric strings.
type RawTransaction struct {
	ID                int64           `json:"id,omitempty"`
	Date              string          `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	Payee             string          `json:"payee,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	ExcludeFromTotals Flag            `json:"exclude_from_totals"`
	IsIncome          Flag            `json:"is_income"`
}

// Flag is a boolean that also decodes from the boolean-like values APIs and
// spreadsheets tend to produce: "true", "1", 0, null and friends.
type Flag bool

// ParseFlag interprets s as a boolean-like value. The empty string is false.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "x":
		return true, nil
	case "false", "f", "0", "no", "n", "", "null":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrMalformedRecord, s)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	v, err := ParseFlag(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Normalize types the raw records, keeps those dated within [start, end]
// (both inclusive) that are neither income nor excluded from totals, and
// returns them sorted by date. Records on the same day keep their input order.
//
// An empty raw slice fails with ErrEmptyData. An empty result after
// filtering is not an error.
func Normalize(raw []RawTransaction, start, end Date) ([]Transaction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("between %s and %s: %w", start, end, ErrEmptyData)
	}

	out := make([]Transaction, 0, len(raw))
	for i, r := range raw {
		d, err := ParseRecordDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		if r.ExcludeFromTotals || r.IsIncome {
			continue
		}
		out = append(out, Transaction{
			Date:              d,
			Amount:            r.Amount,
			ExcludeFromTotals: bool(r.ExcludeFromTotals),
			IsIncome:          bool(r.IsIncome),
		})
	}

	slices.SortStableFunc(out, func(a, b Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out, nil
}

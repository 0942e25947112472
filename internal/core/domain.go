package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the ISO 8601 calendar date layout used on the wire and in file names.
const DateFormat = "2006-01-02"

type (
	// Date is a calendar day, always held at midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is a normalized spending record. It is never mutated after
	// Normalize returns it.
	Transaction struct {
		Date              Date
		Amount            decimal.Decimal
		ExcludeFromTotals bool
		IsIncome          bool
	}
)

var (
	// ErrEmptyData is returned when a source yields no transactions for a range.
	ErrEmptyData = errors.New("no transaction data")
	// ErrInvalidInput is returned for malformed user input such as a bad reference date.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream wraps failures reported by a transaction source.
	ErrUpstream = errors.New("upstream failure")
	// ErrMalformedRecord is returned when a raw record cannot be typed.
	ErrMalformedRecord = errors.New("malformed transaction record")

	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

// NewDate creates a new Date from year, month, day. Out of range values are
// normalized the way time.Date does (e.g. day 0 is the last day of the previous month).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, discarding time-of-day and location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current local calendar day.
func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must use format YYYY-MM-DD", ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

// recordDateLayouts are accepted for dates coming from sources; some APIs
// append a time component to what is really a calendar day.
var recordDateLayouts = []string{DateFormat, time.RFC3339, "2006-01-02 15:04:05", "2006-1-2"}

// ParseRecordDate parses the date of a raw transaction record.
func ParseRecordDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: unparseable date %q", ErrMalformedRecord, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	return NewDate(d.Year(), d.Month()+1, 0)
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return d.EndOfMonth().Day()
}

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.Time.Before(x.Time) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.Time.After(x.Time) }

// Equal reports whether d and x are the same day.
func (d Date) Equal(x Date) bool { return d.Time.Equal(x.Time) }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Format(DateFormat) }

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

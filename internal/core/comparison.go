package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction tells whether more, less or the same was spent than last month.
type Direction string

const (
	More Direction = "more"
	Less Direction = "less"
	Same Direction = "same"
)

// ComparisonResult is the outcome of comparing month-to-date spending with
// the comparable point of the previous month.
type ComparisonResult struct {
	CurrentTotal    decimal.Decimal
	ComparableValue decimal.Decimal
	Delta           decimal.Decimal
	Direction       Direction
}

// Compare computes the signed difference between the current month's total
// and the comparable previous-month value, both rounded to cents.
func Compare(current MonthSeries, comparable decimal.Decimal) ComparisonResult {
	total := current.Total().Round(2)
	delta := total.Sub(comparable).Round(2)

	dir := Same
	switch delta.Sign() {
	case 1:
		dir = More
	case -1:
		dir = Less
	}

	return ComparisonResult{
		CurrentTotal:    total,
		ComparableValue: comparable,
		Delta:           delta,
		Direction:       dir,
	}
}

// Summary renders the result as the two-line text printed to the console
// and drawn on the chart. format turns an amount into display money.
func (r ComparisonResult) Summary(format func(decimal.Decimal) string) string {
	head := fmt.Sprintf("Spending this month: %s", format(r.CurrentTotal))
	switch r.Direction {
	case More, Less:
		return fmt.Sprintf("%s\n%s %s than last month", head, format(r.Delta.Abs()), r.Direction)
	default:
		return head + "\nYou've spent the same as you did last month"
	}
}

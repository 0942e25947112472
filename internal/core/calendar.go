package core

// Boundaries are the month edges derived from a reference date.
type Boundaries struct {
	StartOfCurrentMonth  Date
	EndOfPreviousMonth   Date
	StartOfPreviousMonth Date
}

// CalculateBoundaries returns the start of ref's month together with the
// last and first day of the month before it. Time of day is ignored.
func CalculateBoundaries(ref Date) Boundaries {
	start := ref.StartOfMonth()
	endPrev := start.AddDays(-1)
	return Boundaries{
		StartOfCurrentMonth:  start,
		EndOfPreviousMonth:   endPrev,
		StartOfPreviousMonth: endPrev.StartOfMonth(),
	}
}

// DaysInPreviousMonth returns the length of the previous month.
func (b Boundaries) DaysInPreviousMonth() int {
	return b.EndOfPreviousMonth.Day()
}

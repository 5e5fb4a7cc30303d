package calendar

import "time"

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End]. Every progress window
// (week, month, last N days, planner range) is a Period.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod builds a period, rejecting End before Start.
func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if !p.IsValid() {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// IsValid reports Start <= End.
func (p Period) IsValid() bool { return p.Start.BeforeOrEqual(p.End) }

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len returns the number of days in the period, 0 when invalid.
func (p Period) Len() int {
	if !p.IsValid() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period. An invalid period has no days.
func (p Period) Days() []Date {
	if !p.IsValid() {
		return nil
	}
	days := make([]Date, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WEEK / MONTH CONSTRUCTORS
// =============================================================================
// Weeks start on Monday everywhere in the product (dashboard, habit card,
// activity calendar padding).

// StartOfWeek returns the Monday on or before d.
func StartOfWeek(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// EndOfWeek returns the Sunday on or after d.
func EndOfWeek(d Date) Date { return StartOfWeek(d).AddDays(6) }

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d Date) Date { return NewDate(d.Year(), d.Month(), 1) }

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d Date) Date {
	return NewDate(d.Year(), d.Month(), DaysInMonth(d.Year(), d.Month()))
}

// WeekOf returns the Monday..Sunday week containing d.
func WeekOf(d Date) Period { return Period{Start: StartOfWeek(d), End: EndOfWeek(d)} }

// MonthOf returns the calendar month containing d.
func MonthOf(d Date) Period { return Period{Start: StartOfMonth(d), End: EndOfMonth(d)} }

// MonthGridOf returns the whole Monday-start weeks that cover d's month, the
// range a month view renders.
func MonthGridOf(d Date) Period {
	return Period{Start: StartOfWeek(StartOfMonth(d)), End: EndOfWeek(EndOfMonth(d))}
}

// LastNDays returns the n days ending on today, oldest first.
func LastNDays(today Date, n int) Period {
	if n <= 0 {
		return Period{Start: today.AddDays(1), End: today}
	}
	return Period{Start: today.AddDays(-(n - 1)), End: today}
}

// NextNDays returns the n days starting on today.
func NextNDays(today Date, n int) Period {
	if n <= 0 {
		return Period{Start: today, End: today.AddDays(-1)}
	}
	return Period{Start: today, End: today.AddDays(n - 1)}
}

// MondayPadding returns how many leading blanks a Monday-start grid needs
// before d.
func MondayPadding(d Date) int {
	if d.Weekday() == time.Sunday {
		return 6
	}
	return int(d.Weekday()) - 1
}

/*
Package calendar provides the calendar arithmetic shared by the habit
analytics and planner engines.

PURPOSE:
  Habits and time blocks are keyed by calendar days, not instants. A "day"
  is the local wall-clock date the user saw, so two check-ins at 00:05 and
  23:55 on the same day must land on the same key. Date models exactly that:
  a year/month/day triple with no time of day and no zone.

KEY CONCEPTS:
  - Date:   A calendar day, canonically serialized as yyyy-MM-dd
  - Period: An inclusive [Start, End] range of dates
  - Clock:  The injected source of "now"; nothing in this module reads the
            wall clock on its own

SEE ALSO:
  - period.go: Period and week/month constructors
  - format.go: Display helpers (hours, greetings, friendly dates)
*/
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the canonical date key layout (yyyy-MM-dd).
const KeyLayout = "2006-01-02"

// =============================================================================
// DATE - Calendar day without time of day
// =============================================================================

// Date is a calendar day. Internally it is UTC midnight so that arithmetic
// never crosses a DST boundary.
type Date struct {
	t time.Time
}

// NewDate builds a Date. Out-of-range values normalize like time.Date
// (e.g. April 31 becomes May 1).
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the wall-clock date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a yyyy-MM-dd key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(KeyLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for fixtures and constants. It panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

// IsWeekday reports Monday through Friday.
func (d Date) IsWeekday() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WeekdayName returns the lowercase English weekday ("monday" .. "sunday").
func (d Date) WeekdayName() string { return WeekdayName(d.Weekday()) }

// Key returns the canonical yyyy-MM-dd form. The zero Date has an empty key.
func (d Date) Key() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(KeyLayout)
}

func (d Date) String() string { return d.Key() }

// Format formats the date with a time layout.
func (d Date) Format(layout string) string { return d.t.Format(layout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.Key()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input is the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysBetween returns the signed number of days from `from` to `to`.
func DaysBetween(from, to Date) int { return int(to.t.Sub(from.t).Hours() / 24) }

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// CLOCK - Injected "now"
// =============================================================================

// Clock returns the current instant. Hosts hold one; the engines never call it.
type Clock func() time.Time

// SystemClock reads the wall clock in the local zone.
func SystemClock() time.Time { return time.Now() }

// FixedClock always returns t.
func FixedClock(t time.Time) Clock { return func() time.Time { return t } }

// Now returns the current instant, falling back to the system clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c()
}

// Today returns the current wall-clock date.
func (c Clock) Today() Date { return DateOf(c.Now()) }

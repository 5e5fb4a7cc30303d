/*
Package planner is the recurrence expansion engine for time blocks.

PURPOSE:
  A time block is a slot on the planner grid ("Deep work, 9-11"). It may
  repeat: every day, every week, on weekdays, on chosen weekdays or every
  month, optionally stopping after N occurrences or on an end date. This
  package turns that open-ended rule into concrete calendar dates for a
  bounded range.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeBlock:      Anchor date + hours + optional Recurrence
  - RecurrenceType: Closed variant; unknown persisted values decode to
                    RecurUnknown instead of failing
  - EndType:        never | count | date

INVARIANTS:
  - No occurrence precedes the anchor date
  - The anchor itself always occurs
  - Expansion is always bounded by the caller's range

SEE ALSO:
  - recurrence.go: OccursOn / Expand / DatesWithOccurrences
  - validate.go:   Write-path validation
  - agenda.go:     Per-day schedule for planner views
*/
package planner

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stride/habit-engine/calendar"
)

type BlockID string

// =============================================================================
// RECURRENCE TYPE - Closed variant
// =============================================================================

type RecurrenceType uint8

const (
	RecurUnknown RecurrenceType = iota
	RecurDaily
	RecurWeekly
	RecurWeekdays
	RecurCustom
	RecurMonthly
)

var recurrenceNames = map[RecurrenceType]string{
	RecurDaily:    "daily",
	RecurWeekly:   "weekly",
	RecurWeekdays: "weekdays",
	RecurCustom:   "custom",
	RecurMonthly:  "monthly",
}

// ParseRecurrenceType maps a persisted name. Unrecognized names yield
// (RecurUnknown, false).
func ParseRecurrenceType(s string) (RecurrenceType, bool) {
	for t, name := range recurrenceNames {
		if name == s {
			return t, true
		}
	}
	return RecurUnknown, false
}

func (t RecurrenceType) String() string {
	if name, ok := recurrenceNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t RecurrenceType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText never fails: partially migrated rows keep rendering their
// anchor occurrence.
func (t *RecurrenceType) UnmarshalText(b []byte) error {
	*t, _ = ParseRecurrenceType(string(b))
	return nil
}

// =============================================================================
// END CONDITION
// =============================================================================

type EndType string

const (
	EndNever      EndType = "never"
	EndAfterCount EndType = "count"
	EndOnDate     EndType = "date"
)

// =============================================================================
// RECURRENCE
// =============================================================================

// Recurrence describes how a block repeats after its anchor date.
type Recurrence struct {
	Type       RecurrenceType `json:"type"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"` // 0=Sunday..6=Saturday
	EndType    EndType        `json:"endType,omitempty"`
	EndCount   int            `json:"endCount,omitempty"`
	EndDate    calendar.Date  `json:"endDate,omitempty"`
}

// countBound returns the occurrence limit, if one applies.
func (r *Recurrence) countBound() (int, bool) {
	if r.EndType == EndAfterCount && r.EndCount > 0 {
		return r.EndCount, true
	}
	return 0, false
}

// dateBound returns the inclusive last date, if one applies.
func (r *Recurrence) dateBound() (calendar.Date, bool) {
	if r.EndType == EndOnDate && !r.EndDate.IsZero() {
		return r.EndDate, true
	}
	return calendar.Date{}, false
}

func (r *Recurrence) hasWeekday(wd time.Weekday) bool {
	for _, d := range r.DaysOfWeek {
		if d == wd {
			return true
		}
	}
	return false
}

// recurrenceJSON keeps the zero EndDate out of the wire form.
type recurrenceJSON struct {
	Type       RecurrenceType `json:"type"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"`
	EndType    EndType        `json:"endType,omitempty"`
	EndCount   int            `json:"endCount,omitempty"`
	EndDate    *calendar.Date `json:"endDate,omitempty"`
}

func (r Recurrence) MarshalJSON() ([]byte, error) {
	out := recurrenceJSON{Type: r.Type, DaysOfWeek: r.DaysOfWeek, EndType: r.EndType, EndCount: r.EndCount}
	if !r.EndDate.IsZero() {
		out.EndDate = &r.EndDate
	}
	return json.Marshal(out)
}

func (r *Recurrence) UnmarshalJSON(b []byte) error {
	var in recurrenceJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Recurrence{Type: in.Type, DaysOfWeek: in.DaysOfWeek, EndType: in.EndType, EndCount: in.EndCount}
	if in.EndDate != nil {
		r.EndDate = *in.EndDate
	}
	return nil
}

// =============================================================================
// TIME BLOCK
// =============================================================================

// TimeBlock is a planner slot anchored on Date. Hours are fractional
// (9.5 = 9:30) within a single day.
type TimeBlock struct {
	ID         BlockID       `json:"id"`
	Title      string        `json:"title"`
	Date       calendar.Date `json:"date"`
	StartHour  float64       `json:"startHour"`
	EndHour    float64       `json:"endHour"`
	Color      string        `json:"color,omitempty"`
	Recurrence *Recurrence   `json:"recurrence,omitempty"`
}

// IsRecurring reports whether the block repeats past its anchor.
func (b TimeBlock) IsRecurring() bool { return b.Recurrence != nil }

// Duration returns EndHour - StartHour in hours.
func (b TimeBlock) Duration() decimal.Decimal {
	return decimal.NewFromFloat(b.EndHour).Sub(decimal.NewFromFloat(b.StartHour))
}

// TimeRange renders "9 AM - 10:30 AM".
func (b TimeBlock) TimeRange() string {
	return calendar.FormatHour(b.StartHour) + " - " + calendar.FormatHour(b.EndHour)
}

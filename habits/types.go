/*
Package habits is the completion analytics engine.

PURPOSE:
  Answers every "how am I doing" question the product asks about habits:
  was a day checked in, how long is the current streak, what share of the
  scheduled check-ins in a window were done. The same answers feed the
  dashboard, the habit list, accountability sharing and the shared
  read-only view, so they live here once.

KEY CONCEPTS IN THIS FILE (types.go):
  - Habit:       What the user is tracking and on which weekdays
  - Completions: habit -> date key -> done; absence means not done
  - Progress:    A {completed, total} pair with a rounded percentage

DESIGN PRINCIPLES:
  1. Read-only: the engine never mutates a snapshot
  2. Total: unknown habits and empty maps degrade to zero/false
  3. Explicit now: every time-relative query takes today/asOf

SEE ALSO:
  - analytics.go: Membership, streaks, schedule filtering, progress
  - summary.go:   Dashboard and shared-view aggregates
*/
package habits

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type HabitID string

// =============================================================================
// HABIT
// =============================================================================

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Habit is owned by the persistence layer; the engine only reads it.
type Habit struct {
	ID          HabitID   `json:"id"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji,omitempty"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	Frequency   Frequency `json:"frequency"`
	Days        []string  `json:"days,omitempty"` // lowercase weekday names, weekly only
	CreatedAt   time.Time `json:"createdAt"`
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// Completions maps habit -> yyyy-MM-dd -> done. At most one entry exists per
// (habit, day); a false value is the same as no entry.
type Completions map[HabitID]map[string]bool

// Has reports whether habit id was completed on the given date key.
func (c Completions) Has(id HabitID, key string) bool {
	return c[id][key]
}

// Dates returns the completed dates of a habit in ascending order.
// Keys that do not parse are skipped.
func (c Completions) Dates(id HabitID) []calendar.Date {
	var dates []calendar.Date
	for key, done := range c[id] {
		if !done {
			continue
		}
		d, err := calendar.ParseDate(key)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sortDates(dates)
	return dates
}

// Clone returns a deep copy.
func (c Completions) Clone() Completions {
	out := make(Completions, len(c))
	for id, days := range c {
		inner := make(map[string]bool, len(days))
		for k, v := range days {
			inner[k] = v
		}
		out[id] = inner
	}
	return out
}

// =============================================================================
// PROGRESS
// =============================================================================

// Progress counts completed check-ins out of the check-ins that counted.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Add sums two progress values.
func (p Progress) Add(other Progress) Progress {
	return Progress{Completed: p.Completed + other.Completed, Total: p.Total + other.Total}
}

// Percentage is round(100 * completed / total), half rounding up, and 0 when
// nothing counted.
func (p Progress) Percentage() int {
	return Percent(p.Completed, p.Total)
}

// Percent rounds 100*part/whole to the nearest integer; whole <= 0 yields 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	ratio := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole)))
	return int(ratio.Round(0).IntPart())
}

package habits

import (
	"sort"
	"time"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// ANALYTICS - Read-only view over one snapshot
// =============================================================================

// Analytics answers completion queries over a snapshot. The zero value is a
// valid, empty snapshot. Methods never mutate Habits or Completions.
type Analytics struct {
	Habits      []Habit
	Completions Completions
}

// New builds an Analytics view.
func New(habits []Habit, completions Completions) *Analytics {
	return &Analytics{Habits: habits, Completions: completions}
}

// Habit looks up a habit by id.
func (a *Analytics) Habit(id HabitID) (Habit, bool) {
	for _, h := range a.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return Habit{}, false
}

// HabitIDs returns every habit id in snapshot order.
func (a *Analytics) HabitIDs() []HabitID {
	ids := make([]HabitID, len(a.Habits))
	for i, h := range a.Habits {
		ids[i] = h.ID
	}
	return ids
}

// =============================================================================
// MEMBERSHIP
// =============================================================================

// IsCompleted reports whether habit id was checked in on date.
func (a *Analytics) IsCompleted(id HabitID, date calendar.Date) bool {
	return a.Completions.Has(id, date.Key())
}

// IsCompletedAt is IsCompleted for an instant, using its wall-clock date.
func (a *Analytics) IsCompletedAt(id HabitID, t time.Time) bool {
	return a.IsCompleted(id, calendar.DateOf(t))
}

// =============================================================================
// STREAK
// =============================================================================

// Streak counts consecutive completed days walking back from asOf.
//
// An unchecked asOf does not break the streak: the walk then starts the day
// before, so a user who has not checked in yet today still sees yesterday's
// run. A completed asOf never bridges an earlier gap.
func (a *Analytics) Streak(id HabitID, asOf calendar.Date) int {
	days := a.Completions[id]
	if len(days) == 0 {
		return 0
	}

	current := asOf
	if !days[current.Key()] {
		current = current.AddDays(-1)
	}

	streak := 0
	for days[current.Key()] {
		streak++
		current = current.AddDays(-1)
	}
	return streak
}

// LongestStreak returns the best current streak across all habits.
func (a *Analytics) LongestStreak(asOf calendar.Date) int {
	longest := 0
	for _, h := range a.Habits {
		if s := a.Streak(h.ID, asOf); s > longest {
			longest = s
		}
	}
	return longest
}

// =============================================================================
// SCHEDULE
// =============================================================================

// IsScheduledOn reports whether habit counts on date: daily habits always do,
// weekly habits only on their listed weekdays.
func IsScheduledOn(h Habit, date calendar.Date) bool {
	switch h.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		name := date.WeekdayName()
		for _, d := range h.Days {
			if d == name {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ScheduledOn returns the habits that count on date, in snapshot order.
func (a *Analytics) ScheduledOn(date calendar.Date) []Habit {
	var out []Habit
	for _, h := range a.Habits {
		if IsScheduledOn(h, date) {
			out = append(out, h)
		}
	}
	return out
}

// =============================================================================
// PROGRESS
// =============================================================================

type progressOptions struct {
	onlyScheduled bool
}

// ProgressOption tunes RangeProgress.
type ProgressOption func(*progressOptions)

// OnlyScheduled counts a (habit, date) pair only when the habit is scheduled
// that day. Ids missing from the snapshot are never scheduled.
func OnlyScheduled() ProgressOption {
	return func(o *progressOptions) { o.onlyScheduled = true }
}

// RangeProgress tallies the Cartesian product of ids and dates.
func (a *Analytics) RangeProgress(ids []HabitID, dates []calendar.Date, opts ...ProgressOption) Progress {
	var o progressOptions
	for _, opt := range opts {
		opt(&o)
	}

	var p Progress
	for _, id := range ids {
		habit, known := a.Habit(id)
		for _, date := range dates {
			if o.onlyScheduled && (!known || !IsScheduledOn(habit, date)) {
				continue
			}
			p.Total++
			if a.IsCompleted(id, date) {
				p.Completed++
			}
		}
	}
	return p
}

// PeriodStats is the scheduled-only progress of every habit over period.
func (a *Analytics) PeriodStats(period calendar.Period) Progress {
	return a.RangeProgress(a.HabitIDs(), period.Days(), OnlyScheduled())
}

// DayProgress is the scheduled-only progress for a single day.
func (a *Analytics) DayProgress(date calendar.Date) Progress {
	return a.RangeProgress(a.HabitIDs(), []calendar.Date{date}, OnlyScheduled())
}

// WeeklyProgress is one habit's Monday..Sunday week containing today,
// unfiltered, so Total is always 7.
func (a *Analytics) WeeklyProgress(id HabitID, today calendar.Date) Progress {
	return a.RangeProgress([]HabitID{id}, calendar.WeekOf(today).Days())
}

// =============================================================================
// LIFETIME
// =============================================================================

// CompletedDays counts every completed day of a habit.
func (a *Analytics) CompletedDays(id HabitID) int {
	n := 0
	for _, done := range a.Completions[id] {
		if done {
			n++
		}
	}
	return n
}

// FirstCompletion returns the earliest completed date.
func (a *Analytics) FirstCompletion(id HabitID) (calendar.Date, bool) {
	dates := a.Completions.Dates(id)
	if len(dates) == 0 {
		return calendar.Date{}, false
	}
	return dates[0], true
}

// TotalDaysTracked counts days from the first completion through today,
// inclusive. It is 1 for an untracked habit so it can always divide.
func (a *Analytics) TotalDaysTracked(id HabitID, today calendar.Date) int {
	first, ok := a.FirstCompletion(id)
	if !ok {
		return 1
	}
	diff := calendar.DaysBetween(first, today)
	if diff < 0 {
		diff = -diff
	}
	return diff + 1
}

// CompletionRate is the lifetime consistency percentage.
func (a *Analytics) CompletionRate(id HabitID, today calendar.Date) int {
	return Percent(a.CompletedDays(id), a.TotalDaysTracked(id, today))
}

func sortDates(dates []calendar.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

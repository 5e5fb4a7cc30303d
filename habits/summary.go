package habits

import "github.com/stride/habit-engine/calendar"

// =============================================================================
// HABIT CARD - Per-habit figures for the habit list
// =============================================================================

type HabitCard struct {
	Habit          Habit    `json:"habit"`
	CompletedToday bool     `json:"completedToday"`
	ScheduledToday bool     `json:"scheduledToday"`
	Streak         int      `json:"streak"`
	WeeklyProgress Progress `json:"weeklyProgress"`
}

// Cards returns one card per habit, in snapshot order.
func (a *Analytics) Cards(today calendar.Date) []HabitCard {
	cards := make([]HabitCard, len(a.Habits))
	for i, h := range a.Habits {
		cards[i] = HabitCard{
			Habit:          h,
			CompletedToday: a.IsCompleted(h.ID, today),
			ScheduledToday: IsScheduledOn(h, today),
			Streak:         a.Streak(h.ID, today),
			WeeklyProgress: a.WeeklyProgress(h.ID, today),
		}
	}
	return cards
}

// =============================================================================
// DASHBOARD
// =============================================================================

// View selects the dashboard grid.
type View string

const (
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ParseView maps a query value to a View, defaulting to week.
func ParseView(s string) View {
	if View(s) == ViewMonth {
		return ViewMonth
	}
	return ViewWeek
}

// Period returns the dates the view renders around focus.
func (v View) Period(focus calendar.Date) calendar.Period {
	if v == ViewMonth {
		return calendar.MonthGridOf(focus)
	}
	return calendar.WeekOf(focus)
}

type DayStat struct {
	Date     calendar.Date `json:"date"`
	Progress Progress      `json:"progress"`
	InMonth  bool          `json:"inMonth"`
}

type Dashboard struct {
	Today         calendar.Date   `json:"today"`
	View          View            `json:"view"`
	Period        calendar.Period `json:"-"`
	TodayHabits   []Habit         `json:"todayHabits"`
	TodayProgress Progress        `json:"todayProgress"`
	LongestStreak int             `json:"longestStreak"`
	PeriodStats   Progress        `json:"periodStats"`
	Days          []DayStat       `json:"days"`
}

// Dashboard aggregates the home screen: today's scheduled habits, the best
// streak and the scheduled-only stats of the week or month around focus.
func (a *Analytics) Dashboard(today, focus calendar.Date, view View) Dashboard {
	period := view.Period(focus)
	todayHabits := a.ScheduledOn(today)

	var todayProgress Progress
	for _, h := range todayHabits {
		todayProgress.Total++
		if a.IsCompleted(h.ID, today) {
			todayProgress.Completed++
		}
	}

	days := make([]DayStat, 0, period.Len())
	for _, d := range period.Days() {
		days = append(days, DayStat{
			Date:     d,
			Progress: a.DayProgress(d),
			InMonth:  view == ViewWeek || d.Month() == focus.Month(),
		})
	}

	return Dashboard{
		Today:         today,
		View:          view,
		Period:        period,
		TodayHabits:   todayHabits,
		TodayProgress: todayProgress,
		LongestStreak: a.LongestStreak(today),
		PeriodStats:   a.PeriodStats(period),
		Days:          days,
	}
}

// =============================================================================
// SHARED SUMMARY - Accountability partner view
// =============================================================================

type SharedSummary struct {
	Weekly        Progress `json:"weekly"`
	Monthly       Progress `json:"monthly"`
	LongestStreak int      `json:"longestStreak"`
}

// SharedSummary covers the last 7 and 30 days for every habit. Unlike the
// dashboard it does not filter by schedule: partners see raw day coverage.
func (a *Analytics) SharedSummary(today calendar.Date) SharedSummary {
	ids := a.HabitIDs()
	return SharedSummary{
		Weekly:        a.RangeProgress(ids, calendar.LastNDays(today, 7).Days()),
		Monthly:       a.RangeProgress(ids, calendar.LastNDays(today, 30).Days()),
		LongestStreak: a.LongestStreak(today),
	}
}

// =============================================================================
// ACTIVITY CALENDAR
// =============================================================================

type ActivityDay struct {
	Date      calendar.Date `json:"date"`
	Completed bool          `json:"completed"`
}

type ActivityMonth struct {
	Month   calendar.Date `json:"month"` // first day of the month
	Padding int           `json:"padding"`
	Days    []ActivityDay `json:"days"`
}

// ActivityCalendar lays out every month from the first completion's month
// through today's month, newest first. An untracked habit gets just today's
// month.
func (a *Analytics) ActivityCalendar(id HabitID, today calendar.Date) []ActivityMonth {
	start := today
	if first, ok := a.FirstCompletion(id); ok && first.Before(today) {
		start = first
	}

	var months []ActivityMonth
	last := calendar.StartOfMonth(today)
	for m := calendar.StartOfMonth(start); m.BeforeOrEqual(last); m = m.AddMonths(1) {
		period := calendar.MonthOf(m)
		days := make([]ActivityDay, 0, period.Len())
		for _, d := range period.Days() {
			days = append(days, ActivityDay{Date: d, Completed: a.IsCompleted(id, d)})
		}
		months = append(months, ActivityMonth{
			Month:   m,
			Padding: calendar.MondayPadding(m),
			Days:    days,
		})
	}

	for i, j := 0, len(months)-1; i < j; i, j = i+1, j-1 {
		months[i], months[j] = months[j], months[i]
	}
	return months
}

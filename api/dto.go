/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine results (habits.Dashboard, planner.Agenda, ...) from the
  external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - Dates are yyyy-MM-dd strings, hours are decimal strings ("1.5")

TYPES:
  Habits:
    HabitDTO, HabitCardDTO, ProgressDTO, DashboardDTO, DayStatDTO,
    HabitCalendarDTO, ActivityMonthDTO, RangeProgressDTO

  Planner:
    PlannerDTO, PlannerDayDTO, OccurrenceDTO, OccurrencesDTO, TaskDTO

  Sharing:
    SharedViewDTO

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
)

// =============================================================================
// HABITS
// =============================================================================

type HabitDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Emoji       string   `json:"emoji,omitempty"`
	Color       string   `json:"color,omitempty"`
	Description string   `json:"description,omitempty"`
	Frequency   string   `json:"frequency"`
	Days        []string `json:"days,omitempty"`
}

type ProgressDTO struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type HabitCardDTO struct {
	Habit          HabitDTO    `json:"habit"`
	CompletedToday bool        `json:"completed_today"`
	ScheduledToday bool        `json:"scheduled_today"`
	Streak         int         `json:"streak"`
	WeeklyProgress ProgressDTO `json:"weekly_progress"`
}

type DayStatDTO struct {
	Date     string      `json:"date"`
	Weekday  string      `json:"weekday"`
	InMonth  bool        `json:"in_month"`
	Progress ProgressDTO `json:"progress"`
}

type DashboardDTO struct {
	Greeting      string         `json:"greeting"`
	UserName      string         `json:"user_name"`
	Today         string         `json:"today"`
	View          string         `json:"view"`
	PeriodStart   string         `json:"period_start"`
	PeriodEnd     string         `json:"period_end"`
	TodayHabits   []HabitDTO     `json:"today_habits"`
	TodayProgress ProgressDTO    `json:"today_progress"`
	LongestStreak int            `json:"longest_streak"`
	PeriodStats   ProgressDTO    `json:"period_stats"`
	Days          []DayStatDTO   `json:"days"`
	Habits        []HabitCardDTO `json:"habits"`
}

type ActivityDayDTO struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type ActivityMonthDTO struct {
	Month   string           `json:"month"` // yyyy-MM
	Label   string           `json:"label"` // "January 2025"
	Padding int              `json:"padding"`
	Days    []ActivityDayDTO `json:"days"`
}

type HabitCalendarDTO struct {
	Habit            HabitDTO           `json:"habit"`
	CompletedDays    int                `json:"completed_days"`
	TotalDaysTracked int                `json:"total_days_tracked"`
	CompletionRate   int                `json:"completion_rate"`
	Streak           int                `json:"streak"`
	Months           []ActivityMonthDTO `json:"months"`
}

type RangeProgressDTO struct {
	Start         string      `json:"start"`
	End           string      `json:"end"`
	ScheduledOnly bool        `json:"scheduled_only"`
	HabitIDs      []string    `json:"habit_ids"`
	Progress      ProgressDTO `json:"progress"`
}

// =============================================================================
// PLANNER
// =============================================================================

type OccurrenceDTO struct {
	BlockID   string          `json:"block_id"`
	Title     string          `json:"title"`
	Date      string          `json:"date"`
	StartHour float64         `json:"start_hour"`
	EndHour   float64         `json:"end_hour"`
	TimeRange string          `json:"time_range"`
	Duration  decimal.Decimal `json:"duration_hours"`
	Color     string          `json:"color,omitempty"`
	Recurring bool            `json:"recurring"`
}

type TaskDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type PlannerDayDTO struct {
	Date             string          `json:"date"`
	Label            string          `json:"label"`
	PlannedHours     decimal.Decimal `json:"planned_hours"`
	Blocks           []OccurrenceDTO `json:"blocks"`
	Tasks            []TaskDTO       `json:"tasks"`
	OutstandingTasks int             `json:"outstanding_tasks"`
}

type PlannerDTO struct {
	Start                string          `json:"start"`
	End                  string          `json:"end"`
	TotalHours           decimal.Decimal `json:"total_hours"`
	OutstandingTasks     int             `json:"outstanding_tasks"`
	DatesWithOccurrences []string        `json:"dates_with_occurrences"`
	Days                 []PlannerDayDTO `json:"days"`
}

type OccurrencesDTO struct {
	BlockID string   `json:"block_id"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Dates   []string `json:"dates"`
}

// =============================================================================
// SHARING
// =============================================================================

type SharedViewDTO struct {
	Code          string      `json:"code"`
	ShareName     string      `json:"share_name"`
	UserName      string      `json:"user_name"`
	Today         string      `json:"today"`
	Weekly        ProgressDTO `json:"weekly"`
	Monthly       ProgressDTO `json:"monthly"`
	LongestStreak int         `json:"longest_streak"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toHabitDTO(h habits.Habit) HabitDTO {
	return HabitDTO{
		ID:          string(h.ID),
		Name:        h.Name,
		Emoji:       h.Emoji,
		Color:       h.Color,
		Description: h.Description,
		Frequency:   string(h.Frequency),
		Days:        h.Days,
	}
}

func toHabitDTOs(hs []habits.Habit) []HabitDTO {
	out := make([]HabitDTO, len(hs))
	for i, h := range hs {
		out[i] = toHabitDTO(h)
	}
	return out
}

func toProgressDTO(p habits.Progress) ProgressDTO {
	return ProgressDTO{Completed: p.Completed, Total: p.Total, Percentage: p.Percentage()}
}

func toHabitCardDTOs(cards []habits.HabitCard) []HabitCardDTO {
	out := make([]HabitCardDTO, len(cards))
	for i, c := range cards {
		out[i] = HabitCardDTO{
			Habit:          toHabitDTO(c.Habit),
			CompletedToday: c.CompletedToday,
			ScheduledToday: c.ScheduledToday,
			Streak:         c.Streak,
			WeeklyProgress: toProgressDTO(c.WeeklyProgress),
		}
	}
	return out
}

func toDayStatDTOs(days []habits.DayStat) []DayStatDTO {
	out := make([]DayStatDTO, len(days))
	for i, d := range days {
		out[i] = DayStatDTO{
			Date:     d.Date.Key(),
			Weekday:  d.Date.WeekdayName(),
			InMonth:  d.InMonth,
			Progress: toProgressDTO(d.Progress),
		}
	}
	return out
}

func toActivityMonthDTOs(months []habits.ActivityMonth) []ActivityMonthDTO {
	out := make([]ActivityMonthDTO, len(months))
	for i, m := range months {
		days := make([]ActivityDayDTO, len(m.Days))
		for j, d := range m.Days {
			days[j] = ActivityDayDTO{Date: d.Date.Key(), Completed: d.Completed}
		}
		out[i] = ActivityMonthDTO{
			Month:   m.Month.Format("2006-01"),
			Label:   m.Month.Format("January 2006"),
			Padding: m.Padding,
			Days:    days,
		}
	}
	return out
}

func toOccurrenceDTO(b planner.TimeBlock, d calendar.Date) OccurrenceDTO {
	return OccurrenceDTO{
		BlockID:   string(b.ID),
		Title:     b.Title,
		Date:      d.Key(),
		StartHour: b.StartHour,
		EndHour:   b.EndHour,
		TimeRange: b.TimeRange(),
		Duration:  b.Duration(),
		Color:     b.Color,
		Recurring: b.IsRecurring(),
	}
}

func toPlannerDTO(agenda planner.Agenda, today calendar.Date) PlannerDTO {
	days := make([]PlannerDayDTO, 0, agenda.Period.Len())
	for _, d := range agenda.Period.Days() {
		occ := agenda.On(d)
		blocks := make([]OccurrenceDTO, len(occ))
		for i, o := range occ {
			blocks[i] = toOccurrenceDTO(o.Block, o.Date)
		}
		tasks := agenda.TasksOn(d)
		days = append(days, PlannerDayDTO{
			Date:             d.Key(),
			Label:            calendar.FriendlyDate(d, today),
			PlannedHours:     agenda.PlannedHours(d),
			Blocks:           blocks,
			Tasks:            toTaskDTOs(tasks),
			OutstandingTasks: planner.Outstanding(tasks),
		})
	}
	return PlannerDTO{
		Start:                agenda.Period.Start.Key(),
		End:                  agenda.Period.End.Key(),
		TotalHours:           agenda.TotalHours(),
		OutstandingTasks:     agenda.OutstandingTasks(),
		DatesWithOccurrences: agenda.Dates().Keys(),
		Days:                 days,
	}
}

func toTaskDTOs(tasks []planner.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = TaskDTO{ID: string(t.ID), Title: t.Title, Date: t.Date.Key(), Completed: t.Completed}
	}
	return out
}

func dateKeys(dates []calendar.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Key()
	}
	return out
}

package planner

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// AGENDA - Count-aware schedule over a period
// =============================================================================

// Occurrence is one materialized instance of a block.
type Occurrence struct {
	Block TimeBlock     `json:"block"`
	Date  calendar.Date `json:"date"`
}

// Agenda maps date keys to that day's occurrences, ordered by start hour,
// and to the tasks attached with WithTasks.
type Agenda struct {
	Period calendar.Period
	days   map[string][]Occurrence
	tasks  map[string][]Task
}

// Schedule expands every block over period. Unlike BlocksOn it honours count
// bounds, so it is what week and day views should render.
func Schedule(blocks []TimeBlock, period calendar.Period) Agenda {
	agenda := Agenda{Period: period, days: make(map[string][]Occurrence)}
	for _, b := range blocks {
		for _, d := range Expand(b, period.Start, period.End) {
			agenda.days[d.Key()] = append(agenda.days[d.Key()], Occurrence{Block: b, Date: d})
		}
	}
	for _, occ := range agenda.days {
		sort.SliceStable(occ, func(i, j int) bool { return occ[i].Block.StartHour < occ[j].Block.StartHour })
	}
	return agenda
}

// On returns the occurrences on date.
func (a Agenda) On(date calendar.Date) []Occurrence {
	return a.days[date.Key()]
}

// Dates returns the dates with at least one occurrence.
func (a Agenda) Dates() DateSet {
	set := make(DateSet, len(a.days))
	for key := range a.days {
		set[key] = struct{}{}
	}
	return set
}

// PlannedHours sums block durations on date.
func (a Agenda) PlannedHours(date calendar.Date) decimal.Decimal {
	total := decimal.Zero
	for _, o := range a.On(date) {
		total = total.Add(o.Block.Duration())
	}
	return total
}

// TotalHours sums block durations across the whole period.
func (a Agenda) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, occ := range a.days {
		for _, o := range occ {
			total = total.Add(o.Block.Duration())
		}
	}
	return total
}

// WithTasks returns a copy of the agenda that also lists the tasks dated
// inside its period. Tasks outside the period are dropped.
func (a Agenda) WithTasks(tasks []Task) Agenda {
	a.tasks = make(map[string][]Task)
	for _, t := range tasks {
		if a.Period.Contains(t.Date) {
			a.tasks[t.Date.Key()] = append(a.tasks[t.Date.Key()], t)
		}
	}
	return a
}

// TasksOn returns the tasks on date.
func (a Agenda) TasksOn(date calendar.Date) []Task {
	return a.tasks[date.Key()]
}

// OutstandingTasks counts the open tasks across the whole period.
func (a Agenda) OutstandingTasks() int {
	n := 0
	for _, tasks := range a.tasks {
		n += Outstanding(tasks)
	}
	return n
}

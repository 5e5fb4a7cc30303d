package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// TASKS - One-off to-dos pinned to a day
// =============================================================================

type TaskID string

// Task is a checklist item shown next to a day's time blocks. Tasks never
// repeat.
type Task struct {
	ID        TaskID        `json:"id"`
	Title     string        `json:"title"`
	Date      calendar.Date `json:"date"`
	Completed bool          `json:"completed"`
}

// ErrEmptyTitle is returned when a task has no title.
var ErrEmptyTitle = errors.New("task title is empty")

// ValidateTask checks a task before it is persisted.
func ValidateTask(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task %q: %w", t.ID, ErrEmptyTitle)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("task %q: %w", t.ID, ErrMissingDate)
	}
	return nil
}

// TasksOn returns the tasks dated date, in input order.
func TasksOn(tasks []Task, date calendar.Date) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Date.Equal(date) {
			out = append(out, t)
		}
	}
	return out
}

// Outstanding counts tasks not yet completed.
func Outstanding(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

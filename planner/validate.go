package planner

import (
	"errors"
	"fmt"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================
// Only the write path validates. Expansion stays total over whatever is
// already stored.

var (
	// ErrInvalidHours is returned when hours fall outside [0,24] or the block
	// ends before it starts.
	ErrInvalidHours = errors.New("invalid hours: end must be after start within one day")

	// ErrMissingDate is returned when a block has no anchor date.
	ErrMissingDate = errors.New("missing anchor date")

	// ErrUnknownRecurrence is returned when the recurrence type is not recognized.
	ErrUnknownRecurrence = errors.New("unknown recurrence type")

	// ErrNoDaysSelected is returned when a custom recurrence selects no weekday.
	ErrNoDaysSelected = errors.New("custom recurrence needs at least one weekday")

	// ErrInvalidWeekday is returned when a weekday number is outside 0..6.
	ErrInvalidWeekday = errors.New("weekday must be 0 (Sunday) .. 6 (Saturday)")

	// ErrInvalidEnd is returned when the end condition is incomplete.
	ErrInvalidEnd = errors.New("invalid recurrence end")
)

// ValidationError names the offending block and field.
type ValidationError struct {
	BlockID BlockID
	Field   string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("time block %q: %s: %v", e.BlockID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a block before it is persisted.
func Validate(b TimeBlock) error {
	fail := func(field string, err error) error {
		return &ValidationError{BlockID: b.ID, Field: field, Err: err}
	}

	if b.Date.IsZero() {
		return fail("date", ErrMissingDate)
	}
	if b.StartHour < 0 || b.EndHour > 24 || b.EndHour <= b.StartHour {
		return fail("hours", ErrInvalidHours)
	}

	r := b.Recurrence
	if r == nil {
		return nil
	}

	switch r.Type {
	case RecurDaily, RecurWeekly, RecurWeekdays, RecurMonthly:
	case RecurCustom:
		if len(r.DaysOfWeek) == 0 {
			return fail("daysOfWeek", ErrNoDaysSelected)
		}
	case RecurUnknown:
		return fail("type", ErrUnknownRecurrence)
	default:
		return fail("type", ErrUnknownRecurrence)
	}

	for _, wd := range r.DaysOfWeek {
		if !calendar.ValidWeekdayNumber(int(wd)) {
			return fail("daysOfWeek", fmt.Errorf("%w: got %d", ErrInvalidWeekday, int(wd)))
		}
	}

	switch r.EndType {
	case "", EndNever:
	case EndAfterCount:
		if r.EndCount < 1 {
			return fail("endCount", ErrInvalidEnd)
		}
	case EndOnDate:
		if r.EndDate.IsZero() {
			return fail("endDate", ErrInvalidEnd)
		}
	default:
		return fail("endType", fmt.Errorf("%w: %q", ErrInvalidEnd, r.EndType))
	}
	return nil
}

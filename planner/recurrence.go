package planner

import (
	"sort"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// OCCURS ON - Single-date membership
// =============================================================================

// OccursOn reports whether block has an occurrence on date.
//
// The count bound (EndAfterCount) is not applied here: knowing whether a date
// is the Nth occurrence requires enumerating from the anchor, which Expand
// does.
func OccursOn(block TimeBlock, date calendar.Date) bool {
	if date.Equal(block.Date) {
		return true
	}
	r := block.Recurrence
	if r == nil || date.Before(block.Date) {
		return false
	}
	if end, ok := r.dateBound(); ok && date.After(end) {
		return false
	}
	return r.matches(block.Date, date)
}

// matches applies the type-specific rule to a date already known to be
// after the anchor and within the date bound.
func (r *Recurrence) matches(anchor, date calendar.Date) bool {
	switch r.Type {
	case RecurDaily:
		return true
	case RecurWeekly:
		return date.Weekday() == anchor.Weekday()
	case RecurWeekdays:
		return date.IsWeekday()
	case RecurCustom:
		return r.hasWeekday(date.Weekday())
	case RecurMonthly:
		// Months without the anchor's day (e.g. the 31st in April) are skipped.
		return date.Day() == anchor.Day()
	case RecurUnknown:
		return false
	default:
		return false
	}
}

// =============================================================================
// EXPAND - Bounded materialization
// =============================================================================

// Expand returns the block's occurrences within [start, end] in ascending
// order. Every call recomputes from the rule.
//
// A count bound is a global ordinal counted from the anchor: a block that
// ends after 10 occurrences has none past its 10th, whatever window is asked
// for. An inverted range yields nothing.
func Expand(block TimeBlock, start, end calendar.Date) []calendar.Date {
	if start.After(end) || block.Date.IsZero() {
		return nil
	}

	anchor := block.Date
	anchorOnly := func() []calendar.Date {
		if anchor.AfterOrEqual(start) && anchor.BeforeOrEqual(end) {
			return []calendar.Date{anchor}
		}
		return nil
	}

	r := block.Recurrence
	if r == nil || r.Type == RecurUnknown {
		return anchorOnly()
	}

	last := end
	if bound, ok := r.dateBound(); ok {
		// The anchor always occurs, even when the end date precedes it.
		if bound.Before(anchor) {
			return anchorOnly()
		}
		last = calendar.MinDate(last, bound)
	}

	// Without a count bound nothing before the window matters, so skip ahead.
	limit, counted := r.countBound()
	cursor := anchor
	if !counted {
		cursor = calendar.MaxDate(anchor, start)
	}

	var out []calendar.Date
	seen := 0
	for ; cursor.BeforeOrEqual(last); cursor = cursor.AddDays(1) {
		if !cursor.Equal(anchor) && !r.matches(anchor, cursor) {
			continue
		}
		seen++
		if cursor.AfterOrEqual(start) {
			out = append(out, cursor)
		}
		if counted && seen >= limit {
			break
		}
	}
	return out
}

// =============================================================================
// DATE SET - Calendar dot indicators
// =============================================================================

// DateSet is a set of date keys.
type DateSet map[string]struct{}

// Add inserts d.
func (s DateSet) Add(d calendar.Date) { s[d.Key()] = struct{}{} }

// Has reports whether d is in the set.
func (s DateSet) Has(d calendar.Date) bool {
	_, ok := s[d.Key()]
	return ok
}

// Keys returns the members in ascending order.
func (s DateSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DatesWithOccurrences is the union of Expand over blocks.
func DatesWithOccurrences(blocks []TimeBlock, start, end calendar.Date) DateSet {
	set := make(DateSet)
	for _, b := range blocks {
		for _, d := range Expand(b, start, end) {
			set.Add(d)
		}
	}
	return set
}

// =============================================================================
// BLOCKS ON - Single-day rendering
// =============================================================================

// BlocksOn returns the blocks with an occurrence on date per OccursOn,
// ordered by start hour. It ignores count bounds; use Schedule when those
// must hold.
func BlocksOn(blocks []TimeBlock, date calendar.Date) []TimeBlock {
	var out []TimeBlock
	for _, b := range blocks {
		if OccursOn(b, date) {
			out = append(out, b)
		}
	}
	sortByStart(out)
	return out
}

func sortByStart(blocks []TimeBlock) {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].StartHour < blocks[j].StartHour })
}

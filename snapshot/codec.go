package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
)

// =============================================================================
// FILE FORMAT - Export / import shape
// =============================================================================
// The file keeps the camelCase keys of the browser export so existing
// backups import unchanged. YAML is a superset of JSON, so one decoder reads
// both.

type fileSnapshot struct {
	UserID      string                     `json:"userId,omitempty" yaml:"userId"`
	UserName    string                     `json:"userName" yaml:"userName"`
	Habits      []fileHabit                `json:"habits" yaml:"habits"`
	Completions map[string]map[string]bool `json:"completions" yaml:"completions"`
	TimeBlocks  []fileTimeBlock            `json:"timeBlocks" yaml:"timeBlocks"`
	Tasks       []fileTask                 `json:"tasks" yaml:"tasks"`
	Shares      []fileShare                `json:"shares" yaml:"shares"`
}

type fileHabit struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Emoji       string   `json:"emoji,omitempty" yaml:"emoji"`
	Color       string   `json:"color,omitempty" yaml:"color"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Frequency   string   `json:"frequency" yaml:"frequency"`
	Days        []string `json:"days,omitempty" yaml:"days"`
	CreatedAt   string   `json:"createdAt,omitempty" yaml:"createdAt"`
}

type fileRecurrence struct {
	Type       string `json:"type" yaml:"type"`
	DaysOfWeek []int  `json:"daysOfWeek,omitempty" yaml:"daysOfWeek"`
	EndType    string `json:"endType,omitempty" yaml:"endType"`
	EndCount   int    `json:"endCount,omitempty" yaml:"endCount"`
	EndDate    string `json:"endDate,omitempty" yaml:"endDate"`
}

type fileTimeBlock struct {
	ID         string          `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Date       string          `json:"date" yaml:"date"`
	StartHour  float64         `json:"startHour" yaml:"startHour"`
	EndHour    float64         `json:"endHour" yaml:"endHour"`
	Color      string          `json:"color,omitempty" yaml:"color"`
	Recurrence *fileRecurrence `json:"recurrence,omitempty" yaml:"recurrence"`
}

type fileTask struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Date      string `json:"date" yaml:"date"`
	Completed bool   `json:"completed" yaml:"completed"`
}

type fileShare struct {
	ID        string `json:"id" yaml:"id"`
	Code      string `json:"code" yaml:"code"`
	Name      string `json:"name" yaml:"name"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"createdAt"`
}

// =============================================================================
// DECODE
// =============================================================================

// Decode reads a snapshot from JSON or YAML. Records without an id get a
// fresh one, shares without a code get a new code. All errors wrap
// ErrInvalidSnapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	var f fileSnapshot
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", ErrInvalidSnapshot)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return f.toSnapshot()
}

func (f fileSnapshot) toSnapshot() (*Snapshot, error) {
	snap := &Snapshot{
		UserID:      f.UserID,
		UserName:    f.UserName,
		Habits:      make([]habits.Habit, 0, len(f.Habits)),
		Completions: make(habits.Completions, len(f.Completions)),
		TimeBlocks:  make([]planner.TimeBlock, 0, len(f.TimeBlocks)),
		Tasks:       make([]planner.Task, 0, len(f.Tasks)),
		Shares:      make([]Share, 0, len(f.Shares)),
	}

	for _, fh := range f.Habits {
		h, err := fh.toHabit()
		if err != nil {
			return nil, err
		}
		snap.Habits = append(snap.Habits, h)
	}

	for id, days := range f.Completions {
		inner := make(map[string]bool, len(days))
		for key, done := range days {
			inner[key] = done
		}
		snap.Completions[habits.HabitID(id)] = inner
	}

	for _, fb := range f.TimeBlocks {
		b, err := fb.toTimeBlock()
		if err != nil {
			return nil, err
		}
		snap.TimeBlocks = append(snap.TimeBlocks, b)
	}

	for _, ft := range f.Tasks {
		t, err := ft.toTask()
		if err != nil {
			return nil, err
		}
		snap.Tasks = append(snap.Tasks, t)
	}

	for _, fs := range f.Shares {
		s, err := fs.toShare()
		if err != nil {
			return nil, err
		}
		s.UserID = snap.UserID
		snap.Shares = append(snap.Shares, s)
	}

	return snap, nil
}

func (fh fileHabit) toHabit() (habits.Habit, error) {
	created, err := parseTimestamp(fh.CreatedAt)
	if err != nil {
		return habits.Habit{}, fmt.Errorf("%w: habit %q createdAt: %v", ErrInvalidSnapshot, fh.ID, err)
	}
	freq := habits.Frequency(strings.ToLower(strings.TrimSpace(fh.Frequency)))
	if freq == "" {
		freq = habits.FrequencyDaily
	}
	days, err := weekdayNames(fh.Days)
	if err != nil {
		return habits.Habit{}, fmt.Errorf("%w: habit %q days: %v", ErrInvalidSnapshot, fh.ID, err)
	}
	return habits.Habit{
		ID:          habits.HabitID(orNewID(fh.ID)),
		Name:        fh.Name,
		Emoji:       fh.Emoji,
		Color:       fh.Color,
		Description: fh.Description,
		Frequency:   freq,
		Days:        days,
		CreatedAt:   created,
	}, nil
}

// weekdayNames canonicalizes schedule days to the lowercase names the
// engine matches on, so "Monday" and " monday" both schedule Mondays.
func weekdayNames(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(in))
	for _, name := range in {
		wd, ok := calendar.ParseWeekdayName(name)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		out = append(out, calendar.WeekdayName(wd))
	}
	return out, nil
}

func (fb fileTimeBlock) toTimeBlock() (planner.TimeBlock, error) {
	date, err := calendar.ParseDate(fb.Date)
	if err != nil {
		return planner.TimeBlock{}, fmt.Errorf("%w: time block %q: %v", ErrInvalidSnapshot, fb.ID, err)
	}
	b := planner.TimeBlock{
		ID:        planner.BlockID(orNewID(fb.ID)),
		Title:     fb.Title,
		Date:      date,
		StartHour: fb.StartHour,
		EndHour:   fb.EndHour,
		Color:     fb.Color,
	}
	if fb.Recurrence == nil {
		return b, nil
	}

	fr := fb.Recurrence
	rt, _ := planner.ParseRecurrenceType(fr.Type)
	r := &planner.Recurrence{
		Type:     rt,
		EndType:  planner.EndType(fr.EndType),
		EndCount: fr.EndCount,
	}
	for _, n := range fr.DaysOfWeek {
		r.DaysOfWeek = append(r.DaysOfWeek, time.Weekday(n))
	}
	if fr.EndDate != "" {
		end, err := calendar.ParseDate(fr.EndDate)
		if err != nil {
			return planner.TimeBlock{}, fmt.Errorf("%w: time block %q endDate: %v", ErrInvalidSnapshot, fb.ID, err)
		}
		r.EndDate = end
	}
	b.Recurrence = r
	return b, nil
}

func (ft fileTask) toTask() (planner.Task, error) {
	date, err := calendar.ParseDate(ft.Date)
	if err != nil {
		return planner.Task{}, fmt.Errorf("%w: task %q: %v", ErrInvalidSnapshot, ft.ID, err)
	}
	return planner.Task{
		ID:        planner.TaskID(orNewID(ft.ID)),
		Title:     ft.Title,
		Date:      date,
		Completed: ft.Completed,
	}, nil
}

func (fs fileShare) toShare() (Share, error) {
	created, err := parseTimestamp(fs.CreatedAt)
	if err != nil {
		return Share{}, fmt.Errorf("%w: share %q createdAt: %v", ErrInvalidSnapshot, fs.Code, err)
	}
	code := NormalizeShareCode(fs.Code)
	if code == "" {
		code = NewShareCode()
	}
	return Share{ID: orNewID(fs.ID), Code: code, Name: fs.Name, CreatedAt: created}, nil
}

// parseTimestamp accepts RFC 3339 or a bare date. Empty is the zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// =============================================================================
// ENCODE
// =============================================================================

// Encode writes snap as indented JSON in the file format.
func Encode(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fromSnapshot(snap))
}

func fromSnapshot(s *Snapshot) fileSnapshot {
	f := fileSnapshot{
		UserID:      s.UserID,
		UserName:    s.UserName,
		Habits:      make([]fileHabit, 0, len(s.Habits)),
		Completions: make(map[string]map[string]bool, len(s.Completions)),
		TimeBlocks:  make([]fileTimeBlock, 0, len(s.TimeBlocks)),
		Tasks:       make([]fileTask, 0, len(s.Tasks)),
		Shares:      make([]fileShare, 0, len(s.Shares)),
	}

	for _, h := range s.Habits {
		f.Habits = append(f.Habits, fileHabit{
			ID:          string(h.ID),
			Name:        h.Name,
			Emoji:       h.Emoji,
			Color:       h.Color,
			Description: h.Description,
			Frequency:   string(h.Frequency),
			Days:        h.Days,
			CreatedAt:   formatTimestamp(h.CreatedAt),
		})
	}

	for id, days := range s.Completions {
		inner := make(map[string]bool, len(days))
		for key, done := range days {
			if done {
				inner[key] = true
			}
		}
		f.Completions[string(id)] = inner
	}

	for _, b := range s.TimeBlocks {
		fb := fileTimeBlock{
			ID:        string(b.ID),
			Title:     b.Title,
			Date:      b.Date.Key(),
			StartHour: b.StartHour,
			EndHour:   b.EndHour,
			Color:     b.Color,
		}
		if r := b.Recurrence; r != nil {
			fr := &fileRecurrence{
				Type:     r.Type.String(),
				EndType:  string(r.EndType),
				EndCount: r.EndCount,
				EndDate:  r.EndDate.Key(),
			}
			for _, wd := range r.DaysOfWeek {
				fr.DaysOfWeek = append(fr.DaysOfWeek, int(wd))
			}
			fb.Recurrence = fr
		}
		f.TimeBlocks = append(f.TimeBlocks, fb)
	}

	for _, t := range s.Tasks {
		f.Tasks = append(f.Tasks, fileTask{
			ID:        string(t.ID),
			Title:     t.Title,
			Date:      t.Date.Key(),
			Completed: t.Completed,
		})
	}

	for _, sh := range s.Shares {
		f.Shares = append(f.Shares, fileShare{
			ID:        sh.ID,
			Code:      sh.Code,
			Name:      sh.Name,
			CreatedAt: formatTimestamp(sh.CreatedAt),
		})
	}
	return f
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package snapshot_test

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
	"github.com/stride/habit-engine/snapshot"
)

const exportJSON = `{
  "userName": "Sam",
  "habits": [
    {"id": "read", "name": "Read", "emoji": "📚", "frequency": "weekly", "days": ["monday", "wednesday", "friday"], "createdAt": "2025-01-01T08:00:00Z"},
    {"name": "Walk", "frequency": "daily"}
  ],
  "completions": {
    "read": {"2025-01-08": true, "2025-01-10": true, "2025-01-13": false}
  },
  "timeBlocks": [
    {"id": "gym", "title": "Gym", "date": "2025-01-13", "startHour": 7, "endHour": 8.5,
     "recurrence": {"type": "custom", "daysOfWeek": [1, 3], "endType": "date", "endDate": "2025-02-28"}},
    {"id": "odd", "title": "Legacy", "date": "2025-01-14", "startHour": 12, "endHour": 13,
     "recurrence": {"type": "yearly"}}
  ],
  "tasks": [
    {"id": "t1", "title": "Buy milk", "date": "2025-01-17", "completed": false},
    {"title": "Pay rent", "date": "2025-01-17", "completed": true}
  ],
  "shares": [
    {"id": "s1", "code": "abc123", "name": "Partner", "createdAt": "2025-01-02"}
  ]
}`

const exportYAML = `
userName: Sam
habits:
  - id: read
    name: Read
    frequency: daily
completions:
  read:
    2025-01-08: true
timeBlocks:
  - id: focus
    title: Focus
    date: 2025-01-13
    startHour: 9
    endHour: 11
`

// =============================================================================
// DECODE
// =============================================================================

func TestDecode_BrowserExport(t *testing.T) {
	snap, err := snapshot.Decode(strings.NewReader(exportJSON))
	require.NoError(t, err)

	assert.Equal(t, "Sam", snap.UserName)
	require.Len(t, snap.Habits, 2)
	assert.Equal(t, habits.FrequencyWeekly, snap.Habits[0].Frequency)
	assert.Equal(t, []string{"monday", "wednesday", "friday"}, snap.Habits[0].Days)
	assert.Equal(t, 2025, snap.Habits[0].CreatedAt.Year())
	assert.NotEmpty(t, snap.Habits[1].ID, "missing id is generated")

	assert.True(t, snap.Completions.Has("read", "2025-01-08"))
	assert.False(t, snap.Completions.Has("read", "2025-01-13"))

	require.Len(t, snap.TimeBlocks, 2)
	gym := snap.TimeBlocks[0]
	require.NotNil(t, gym.Recurrence)
	assert.Equal(t, planner.RecurCustom, gym.Recurrence.Type)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, gym.Recurrence.DaysOfWeek)
	assert.Equal(t, "2025-02-28", gym.Recurrence.EndDate.Key())

	// Unknown recurrence types load and degrade to the anchor only
	legacy := snap.TimeBlocks[1]
	assert.Equal(t, planner.RecurUnknown, legacy.Recurrence.Type)
	assert.Len(t, planner.Expand(legacy, calendar.MustParseDate("2025-01-01"), calendar.MustParseDate("2025-12-31")), 1)

	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, planner.TaskID("t1"), snap.Tasks[0].ID)
	assert.Equal(t, "2025-01-17", snap.Tasks[0].Date.Key())
	assert.False(t, snap.Tasks[0].Completed)
	assert.NotEmpty(t, snap.Tasks[1].ID, "missing id is generated")
	assert.True(t, snap.Tasks[1].Completed)

	require.Len(t, snap.Shares, 1)
	assert.Equal(t, "ABC123", snap.Shares[0].Code)
}

func TestDecode_NormalizesScheduleDays(t *testing.T) {
	// GIVEN: A hand-written file with capitalized names
	in := `
habits:
  - id: gym
    name: Gym
    frequency: Weekly
    days: [Monday, " WEDNESDAY "]
`
	// WHEN: It is decoded
	snap, err := snapshot.Decode(strings.NewReader(in))
	require.NoError(t, err)

	// THEN: The habit is scheduled on those weekdays
	gym := snap.Habits[0]
	assert.Equal(t, habits.FrequencyWeekly, gym.Frequency)
	assert.Equal(t, []string{"monday", "wednesday"}, gym.Days)
	assert.True(t, habits.IsScheduledOn(gym, calendar.MustParseDate("2025-01-15")))
	assert.False(t, habits.IsScheduledOn(gym, calendar.MustParseDate("2025-01-16")))
}

func TestDecode_YAML(t *testing.T) {
	snap, err := snapshot.Decode(strings.NewReader(exportYAML))
	require.NoError(t, err)

	assert.True(t, snap.Completions.Has("read", "2025-01-08"))
	require.Len(t, snap.TimeBlocks, 1)
	assert.Equal(t, "2025-01-13", snap.TimeBlocks[0].Date.Key())
	assert.Nil(t, snap.TimeBlocks[0].Recurrence)
}

func TestDecode_Errors(t *testing.T) {
	inputs := map[string]string{
		"empty":          "",
		"not a document": "[1, 2",
		"bad block date": `{"timeBlocks": [{"id": "x", "date": "13/01/2025", "startHour": 1, "endHour": 2}]}`,
		"bad end date":   `{"timeBlocks": [{"id": "x", "date": "2025-01-13", "startHour": 1, "endHour": 2, "recurrence": {"type": "daily", "endType": "date", "endDate": "soon"}}]}`,
		"bad createdAt":  `{"habits": [{"id": "h", "name": "H", "createdAt": "yesterday"}]}`,
		"unknown day":    `{"habits": [{"id": "h", "name": "H", "frequency": "weekly", "days": ["mon"]}]}`,
		"bad task date":  `{"tasks": [{"id": "t", "title": "T", "date": "tomorrow"}]}`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := snapshot.Decode(strings.NewReader(in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, snapshot.ErrInvalidSnapshot))
		})
	}
}

// =============================================================================
// ENCODE
// =============================================================================

func TestEncode_RoundTripPreservesEngineResults(t *testing.T) {
	// GIVEN: A decoded export
	original, err := snapshot.Decode(strings.NewReader(exportJSON))
	require.NoError(t, err)

	// WHEN: It is exported and imported again
	var buf bytes.Buffer
	require.NoError(t, snapshot.Encode(&buf, original))
	again, err := snapshot.Decode(&buf)
	require.NoError(t, err)

	// THEN: The engines compute the same answers
	today := calendar.MustParseDate("2025-01-17")
	assert.Equal(t, original.Analytics().Cards(today), again.Analytics().Cards(today))

	from, to := calendar.MustParseDate("2025-01-01"), calendar.MustParseDate("2025-03-31")
	for i := range original.TimeBlocks {
		assert.Equal(t, planner.Expand(original.TimeBlocks[i], from, to), planner.Expand(again.TimeBlocks[i], from, to))
	}
	assert.Equal(t, original.Tasks, again.Tasks)
}

func TestEncode_DropsFalseCompletions(t *testing.T) {
	snap := &snapshot.Snapshot{
		Completions: habits.Completions{"h": {"2025-01-01": true, "2025-01-02": false}},
	}
	var buf bytes.Buffer
	require.NoError(t, snapshot.Encode(&buf, snap))

	assert.Contains(t, buf.String(), `"2025-01-01": true`)
	assert.NotContains(t, buf.String(), "2025-01-02")
}

// =============================================================================
// SHARE CODES / LOOKUPS
// =============================================================================

func TestNewShareCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Z]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := snapshot.NewShareCode()
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
	assert.Equal(t, "ABC123", snapshot.NormalizeShareCode("  abc123 "))
}

func TestSnapshot_TimeBlockLookup(t *testing.T) {
	snap, err := snapshot.Decode(strings.NewReader(exportJSON))
	require.NoError(t, err)

	b, ok := snap.TimeBlock("gym")
	require.True(t, ok)
	assert.Equal(t, "Gym", b.Title)

	_, ok = snap.TimeBlock("missing")
	assert.False(t, ok)
}

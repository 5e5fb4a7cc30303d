/*
handlers_test.go - HTTP tests for the read API

Tests for:
- Dashboard / habits / calendar / progress over the "Read" fixture
- Planner agenda and block expansion
- Shared view by code
- Error mapping (400 / 404) and revision-keyed caching
*/
package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride/habit-engine/api"
	"github.com/stride/habit-engine/cache"
	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
	"github.com/stride/habit-engine/snapshot"
	"github.com/stride/habit-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Friday 2025-01-17, 10:00 UTC
var now = time.Date(2025, 1, 17, 10, 0, 0, 0, time.UTC)

func day(s string) calendar.Date { return calendar.MustParseDate(s) }

func fixture() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		UserID:   "u1",
		UserName: "Sam",
		Habits: []habits.Habit{{
			ID: "read", Name: "Read", Frequency: habits.FrequencyWeekly,
			Days: []string{"monday", "wednesday", "friday"},
		}},
		Completions: habits.Completions{"read": {
			"2025-01-08": true, "2025-01-10": true, "2025-01-15": true, "2025-01-17": true,
		}},
		TimeBlocks: []planner.TimeBlock{
			{
				ID: "gym", Title: "Gym", Date: day("2025-01-14"), StartHour: 18, EndHour: 19.5,
				Recurrence: &planner.Recurrence{Type: planner.RecurWeekly, EndType: planner.EndAfterCount, EndCount: 2},
			},
			{
				ID: "standup", Title: "Standup", Date: day("2025-01-13"), StartHour: 9, EndHour: 9.25,
				Recurrence: &planner.Recurrence{Type: planner.RecurWeekdays, EndType: planner.EndNever},
			},
		},
		Tasks: []planner.Task{
			{ID: "milk", Title: "Buy milk", Date: day("2025-01-17")},
			{ID: "bank", Title: "Call bank", Date: day("2025-01-17"), Completed: true},
			{ID: "rent", Title: "Pay rent", Date: day("2025-01-20")},
		},
		Shares: []snapshot.Share{{ID: "s1", Code: "ABC123", Name: "Partner"}},
	}
}

func newTestServer(t *testing.T, opts ...api.Option) (http.Handler, *memory.Store) {
	store := memory.New()
	store.Put(context.Background(), fixture())

	opts = append([]api.Option{api.WithClock(calendar.FixedClock(now))}, opts...)
	h := api.NewHandler(store, opts...)
	return api.NewRouter(h, api.RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}}), store
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// =============================================================================
// HABITS
// =============================================================================

func TestGetDashboard_Week(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/dashboard")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[api.DashboardDTO](t, rec)

	assert.Equal(t, "Good morning", d.Greeting)
	assert.Equal(t, "Sam", d.UserName)
	assert.Equal(t, "2025-01-17", d.Today)
	assert.Equal(t, "week", d.View)
	assert.Equal(t, "2025-01-13", d.PeriodStart)
	assert.Equal(t, "2025-01-19", d.PeriodEnd)
	// Scheduled Mon/Wed/Fri of this week, done Wed and Fri
	assert.Equal(t, api.ProgressDTO{Completed: 2, Total: 3, Percentage: 67}, d.PeriodStats)
	assert.Equal(t, api.ProgressDTO{Completed: 1, Total: 1, Percentage: 100}, d.TodayProgress)
	assert.Equal(t, 1, d.LongestStreak)
	assert.Len(t, d.Days, 7)
	require.Len(t, d.Habits, 1)
	assert.True(t, d.Habits[0].CompletedToday)
}

func TestGetDashboard_MonthViewWithDateOverride(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/dashboard?view=month&date=2025-02-10")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[api.DashboardDTO](t, rec)

	assert.Equal(t, "month", d.View)
	assert.Equal(t, "2025-02-10", d.Today)
	assert.Len(t, d.Days, 35)
	assert.False(t, d.Days[0].InMonth)
}

func TestListHabits(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/habits")
	require.Equal(t, http.StatusOK, rec.Code)
	cards := decode[[]api.HabitCardDTO](t, rec)

	require.Len(t, cards, 1)
	assert.Equal(t, "read", cards[0].Habit.ID)
	assert.True(t, cards[0].ScheduledToday)
	assert.Equal(t, 1, cards[0].Streak)
	// Weekly progress counts every day of Mon..Sun
	assert.Equal(t, api.ProgressDTO{Completed: 2, Total: 7, Percentage: 29}, cards[0].WeeklyProgress)
}

func TestGetHabitCalendar(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/habits/read/calendar")
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[api.HabitCalendarDTO](t, rec)

	assert.Equal(t, 4, c.CompletedDays)
	require.Len(t, c.Months, 1)
	assert.Equal(t, "2025-01", c.Months[0].Month)
	assert.Equal(t, "January 2025", c.Months[0].Label)
	assert.Equal(t, 2, c.Months[0].Padding, "Jan 1 2025 is a Wednesday")
	assert.Len(t, c.Months[0].Days, 31)

	rec = get(t, router, "/api/users/u1/habits/nope/calendar")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProgress(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/progress?start=2025-01-13&end=2025-01-19&scheduled=true")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[api.RangeProgressDTO](t, rec)
	assert.True(t, p.ScheduledOnly)
	assert.Equal(t, api.ProgressDTO{Completed: 2, Total: 3, Percentage: 67}, p.Progress)

	rec = get(t, router, "/api/users/u1/progress?start=2025-01-13&end=2025-01-19")
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[api.RangeProgressDTO](t, rec)
	assert.Equal(t, api.ProgressDTO{Completed: 2, Total: 7, Percentage: 29}, p.Progress)

	// Unknown habits are never scheduled
	rec = get(t, router, "/api/users/u1/progress?start=2025-01-13&end=2025-01-19&scheduled=true&habit=ghost")
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[api.RangeProgressDTO](t, rec)
	assert.Equal(t, api.ProgressDTO{}, p.Progress)
}

// =============================================================================
// PLANNER
// =============================================================================

func TestGetPlanner_DefaultWeek(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/planner")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[api.PlannerDTO](t, rec)

	assert.Equal(t, "2025-01-13", p.Start)
	assert.Equal(t, "2025-01-19", p.End)
	assert.Equal(t, []string{"2025-01-13", "2025-01-14", "2025-01-15", "2025-01-16", "2025-01-17"}, p.DatesWithOccurrences)
	// 5 x 0.25h standup + 1.5h gym
	assert.True(t, decimal.RequireFromString("2.75").Equal(p.TotalHours), p.TotalHours.String())

	require.Len(t, p.Days, 7)
	tue := p.Days[1]
	require.Len(t, tue.Blocks, 2)
	assert.Equal(t, "standup", tue.Blocks[0].BlockID)
	assert.Equal(t, "gym", tue.Blocks[1].BlockID)
	assert.Equal(t, "6 PM - 7:30 PM", tue.Blocks[1].TimeRange)
	assert.Equal(t, "Today", p.Days[4].Label)

	// Only Friday's tasks fall in this week; the rent task is next Monday
	assert.Equal(t, 1, p.OutstandingTasks)
	fri := p.Days[4]
	assert.Equal(t, []api.TaskDTO{
		{ID: "milk", Title: "Buy milk", Date: "2025-01-17"},
		{ID: "bank", Title: "Call bank", Date: "2025-01-17", Completed: true},
	}, fri.Tasks)
	assert.Equal(t, 1, fri.OutstandingTasks)
	assert.Empty(t, tue.Tasks)
	assert.Equal(t, 0, tue.OutstandingTasks)
}

func TestGetPlanner_NextWeekTasks(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/planner?start=2025-01-20&end=2025-01-20")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[api.PlannerDTO](t, rec)

	require.Len(t, p.Days, 1)
	require.Len(t, p.Days[0].Tasks, 1)
	assert.Equal(t, "rent", p.Days[0].Tasks[0].ID)
	assert.Equal(t, 1, p.OutstandingTasks)
}

func TestGetOccurrences_CountBounded(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/users/u1/blocks/gym/occurrences?start=2025-01-01&end=2025-03-31")
	require.Equal(t, http.StatusOK, rec.Code)
	o := decode[api.OccurrencesDTO](t, rec)
	assert.Equal(t, []string{"2025-01-14", "2025-01-21"}, o.Dates)

	rec = get(t, router, "/api/users/u1/blocks/nope/occurrences")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SHARING
// =============================================================================

func TestGetSharedView(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(t, router, "/api/shared/abc123")
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[api.SharedViewDTO](t, rec)

	assert.Equal(t, "ABC123", s.Code)
	assert.Equal(t, "Partner", s.ShareName)
	assert.Equal(t, "Sam", s.UserName)
	assert.Equal(t, api.ProgressDTO{Completed: 2, Total: 7, Percentage: 29}, s.Weekly)
	assert.Equal(t, api.ProgressDTO{Completed: 4, Total: 30, Percentage: 13}, s.Monthly)

	rec = get(t, router, "/api/shared/ZZZZZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrors(t *testing.T) {
	router, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/users/ghost/dashboard", http.StatusNotFound},
		{"/api/users/u1/dashboard?date=17-01-2025", http.StatusBadRequest},
		{"/api/users/u1/planner?start=2025-01-20&end=2025-01-10", http.StatusBadRequest},
		{"/api/users/u1/planner?start=2025-01-01&end=2027-01-01", http.StatusBadRequest},
		{"/api/users/u1/progress?end=nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, router, tt.path)
			assert.Equal(t, tt.want, rec.Code)
			body := decode[api.ErrorResponse](t, rec)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(t, router, "/healthz").Code)

	get(t, router, "/api/users/u1/habits")
	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stride_query_total")
}

// =============================================================================
// CACHING
// =============================================================================

func TestCache_InvalidatedByRevision(t *testing.T) {
	// GIVEN: A server with an in-memory response cache
	router, store := newTestServer(t, api.WithCache(cache.NewMemory(), time.Hour))
	path := "/api/users/u1/habits"

	// WHEN: The same query is repeated
	first := get(t, router, path)
	second := get(t, router, path)

	// THEN: The second is served from cache with the same body
	assert.Equal(t, "miss", first.Header().Get("X-Cache"))
	assert.Equal(t, "hit", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	// WHEN: Today's completion is toggled off
	_, err := store.ToggleCompletion(context.Background(), "u1", "read", "2025-01-17")
	require.NoError(t, err)

	// THEN: The revision changed, so the answer is recomputed
	third := get(t, router, path)
	assert.Equal(t, "miss", third.Header().Get("X-Cache"))
	cards := decode[[]api.HabitCardDTO](t, third)
	assert.False(t, cards[0].CompletedToday)
}

func TestCache_KeyedByGreeting(t *testing.T) {
	// GIVEN: A clock that moves from morning to evening on the same day
	current := time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC)
	clock := calendar.Clock(func() time.Time { return current })
	router, _ := newTestServer(t, api.WithCache(cache.NewMemory(), time.Hour), api.WithClock(clock))
	path := "/api/users/u1/dashboard"

	morning := get(t, router, path)
	require.Equal(t, http.StatusOK, morning.Code)
	assert.Equal(t, "Good morning", decode[api.DashboardDTO](t, morning).Greeting)

	// WHEN: The dashboard is requested again in the evening
	current = time.Date(2025, 1, 17, 20, 0, 0, 0, time.UTC)
	evening := get(t, router, path)

	// THEN: The cached morning answer is not reused
	assert.Equal(t, "miss", evening.Header().Get("X-Cache"))
	assert.Equal(t, "Good evening", decode[api.DashboardDTO](t, evening).Greeting)

	again := get(t, router, path)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
}

func TestCache_KeyedByToday(t *testing.T) {
	router, _ := newTestServer(t, api.WithCache(cache.NewMemory(), time.Hour))

	a := get(t, router, "/api/users/u1/habits?date=2025-01-17")
	b := get(t, router, "/api/users/u1/habits?date=2025-01-18")
	assert.Equal(t, "miss", b.Header().Get("X-Cache"))
	assert.NotEqual(t, a.Body.String(), b.Body.String())
}

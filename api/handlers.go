/*
handlers.go - HTTP API handlers for the habit and planner engines

PURPOSE:
  Exposes the completion analytics and recurrence expansion engines via a
  read-only REST API. Handles HTTP request/response and JSON serialization,
  and delegates every computation to the habits and planner packages.

ENDPOINTS:
  Habits:
    GET /api/users/{user}/dashboard            Home screen (week|month grid)
    GET /api/users/{user}/habits               Habit cards for today
    GET /api/users/{user}/habits/{id}/calendar Activity calendar + lifetime stats
    GET /api/users/{user}/progress             Range progress

  Planner:
    GET /api/users/{user}/planner              Agenda over a date range
    GET /api/users/{user}/blocks/{id}/occurrences  Expanded dates of one block

  Sharing:
    GET /api/shared/{code}                     Partner summary

QUERY PARAMETERS:
  date=yyyy-MM-dd   Overrides "today" (defaults to the handler clock)
  start, end        Inclusive range; at most MaxRangeDays long

ARCHITECTURE:
  Handler holds all dependencies:
  - Source: Snapshot storage (sqlite or memory)
  - Cache:  Memoized responses keyed by (query, owner, revision, today, URL)
  - Clock:  Source of "now"; the engines never read the wall clock
  - Logger: zap

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed dates or ranges
  - 404: Unknown user, habit, block or share code
  - 500: Storage errors

SEE ALSO:
  - dto.go:        Response data structures
  - middleware.go: Access log and metrics
  - server.go:     Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stride/habit-engine/cache"
	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/logger"
	"github.com/stride/habit-engine/metrics"
	"github.com/stride/habit-engine/planner"
	"github.com/stride/habit-engine/snapshot"
)

// MaxRangeDays bounds every start/end range a client may request.
const MaxRangeDays = 366

var errBadRequest = errors.New("bad request")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Source   snapshot.Source
	Cache    cache.Cache
	CacheTTL time.Duration
	Clock    calendar.Clock
	Logger   *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(h *Handler) { h.Cache, h.CacheTTL = c, ttl }
}

func WithClock(c calendar.Clock) Option {
	return func(h *Handler) { h.Clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) { h.Logger = l }
}

// NewHandler creates a handler over src. Defaults: no cache, system clock,
// no-op logger.
func NewHandler(src snapshot.Source, opts ...Option) *Handler {
	h := &Handler{
		Source: src,
		Cache:  cache.Nop{},
		Clock:  calendar.SystemClock,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// =============================================================================
// HABIT ENDPOINTS
// =============================================================================

// GetDashboard returns the home screen.
// GET /api/users/{user}/dashboard?view=week|month&date=&focus=
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	focus, err := optionalDate(r, "focus", today)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view := habits.ParseView(r.URL.Query().Get("view"))
	greeting := calendar.Greeting(h.Clock.Now())

	h.serve(w, r, "dashboard", userID, today, greeting, func(snap *snapshot.Snapshot) (any, error) {
		a := snap.Analytics()
		d := a.Dashboard(today, focus, view)
		return DashboardDTO{
			Greeting:      greeting,
			UserName:      snap.UserName,
			Today:         today.Key(),
			View:          string(d.View),
			PeriodStart:   d.Period.Start.Key(),
			PeriodEnd:     d.Period.End.Key(),
			TodayHabits:   toHabitDTOs(d.TodayHabits),
			TodayProgress: toProgressDTO(d.TodayProgress),
			LongestStreak: d.LongestStreak,
			PeriodStats:   toProgressDTO(d.PeriodStats),
			Days:          toDayStatDTOs(d.Days),
			Habits:        toHabitCardDTOs(a.Cards(today)),
		}, nil
	})
}

// ListHabits returns one card per habit.
// GET /api/users/{user}/habits?date=
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.serve(w, r, "habits", userID, today, "", func(snap *snapshot.Snapshot) (any, error) {
		return toHabitCardDTOs(snap.Analytics().Cards(today)), nil
	})
}

// GetHabitCalendar returns the activity calendar of one habit.
// GET /api/users/{user}/habits/{id}/calendar?date=
func (h *Handler) GetHabitCalendar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	id := habits.HabitID(chi.URLParam(r, "id"))
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.serve(w, r, "habit_calendar", userID, today, "", func(snap *snapshot.Snapshot) (any, error) {
		a := snap.Analytics()
		habit, ok := a.Habit(id)
		if !ok {
			return nil, fmt.Errorf("habit %q: %w", id, snapshot.ErrNotFound)
		}
		return HabitCalendarDTO{
			Habit:            toHabitDTO(habit),
			CompletedDays:    a.CompletedDays(id),
			TotalDaysTracked: a.TotalDaysTracked(id, today),
			CompletionRate:   a.CompletionRate(id, today),
			Streak:           a.Streak(id, today),
			Months:           toActivityMonthDTOs(a.ActivityCalendar(id, today)),
		}, nil
	})
}

// GetProgress returns range progress over all (or the given) habits.
// GET /api/users/{user}/progress?start=&end=&scheduled=true&habit=a&habit=b
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := rangeParam(r, calendar.LastNDays(today, 7))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	scheduled, _ := strconv.ParseBool(r.URL.Query().Get("scheduled"))
	requested := r.URL.Query()["habit"]

	h.serve(w, r, "progress", userID, today, "", func(snap *snapshot.Snapshot) (any, error) {
		a := snap.Analytics()
		ids := a.HabitIDs()
		if len(requested) > 0 {
			ids = make([]habits.HabitID, len(requested))
			for i, id := range requested {
				ids[i] = habits.HabitID(id)
			}
		}

		var opts []habits.ProgressOption
		if scheduled {
			opts = append(opts, habits.OnlyScheduled())
		}

		idStrings := make([]string, len(ids))
		for i, id := range ids {
			idStrings[i] = string(id)
		}
		return RangeProgressDTO{
			Start:         period.Start.Key(),
			End:           period.End.Key(),
			ScheduledOnly: scheduled,
			HabitIDs:      idStrings,
			Progress:      toProgressDTO(a.RangeProgress(ids, period.Days(), opts...)),
		}, nil
	})
}

// =============================================================================
// PLANNER ENDPOINTS
// =============================================================================

// GetPlanner returns the agenda for a range (default: the week of today).
// GET /api/users/{user}/planner?start=&end=&date=
func (h *Handler) GetPlanner(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := rangeParam(r, calendar.WeekOf(today))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.serve(w, r, "planner", userID, today, "", func(snap *snapshot.Snapshot) (any, error) {
		return toPlannerDTO(planner.Schedule(snap.TimeBlocks, period).WithTasks(snap.Tasks), today), nil
	})
}

// GetOccurrences expands one block over a range (default: next 30 days).
// GET /api/users/{user}/blocks/{id}/occurrences?start=&end=
func (h *Handler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	id := planner.BlockID(chi.URLParam(r, "id"))
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := rangeParam(r, calendar.NextNDays(today, 30))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.serve(w, r, "occurrences", userID, today, "", func(snap *snapshot.Snapshot) (any, error) {
		block, ok := snap.TimeBlock(id)
		if !ok {
			return nil, fmt.Errorf("time block %q: %w", id, snapshot.ErrNotFound)
		}
		return OccurrencesDTO{
			BlockID: string(id),
			Start:   period.Start.Key(),
			End:     period.End.Key(),
			Dates:   dateKeys(planner.Expand(block, period.Start, period.End)),
		}, nil
	})
}

// =============================================================================
// SHARING
// =============================================================================

// GetSharedView resolves a share code to the owner's summary.
// GET /api/shared/{code}?date=
func (h *Handler) GetSharedView(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	share, err := h.Source.ShareByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.serve(w, r, "shared", share.UserID, today, "", func(snap *snapshot.Snapshot) (any, error) {
		s := snap.Analytics().SharedSummary(today)
		return SharedViewDTO{
			Code:          share.Code,
			ShareName:     share.Name,
			UserName:      snap.UserName,
			Today:         today.Key(),
			Weekly:        toProgressDTO(s.Weekly),
			Monthly:       toProgressDTO(s.Monthly),
			LongestStreak: s.LongestStreak,
		}, nil
	})
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// MEMOIZED SERVING
// =============================================================================

// serve answers from the cache when the owner's revision and today are
// unchanged, and otherwise loads the snapshot and runs compute. vary holds any
// other input of compute that is not part of the request URI, such as the
// dashboard greeting.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, query, userID string, today calendar.Date, vary string,
	compute func(*snapshot.Snapshot) (any, error)) {
	ctx := r.Context()
	metrics.IncrementQuery(query)

	rev, err := h.Source.Revision(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	key := cacheKey(query, userID, rev, today, vary, r)

	if body, ok := h.lookup(ctx, r, key); ok {
		writeRaw(w, http.StatusOK, body, "hit")
		return
	}

	snap, err := h.Source.LoadSnapshot(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := compute(snap)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Cache.Set(ctx, key, body, h.CacheTTL); err != nil {
		logger.WithRequest(ctx, h.Logger).Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	writeRaw(w, http.StatusOK, body, "miss")
}

func (h *Handler) lookup(ctx context.Context, r *http.Request, key string) ([]byte, bool) {
	body, ok, err := h.Cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IncrementCache("error")
		logger.WithRequest(ctx, h.Logger).Warn("cache get failed", zap.String("path", r.URL.Path), zap.Error(err))
		return nil, false
	case ok:
		metrics.IncrementCache("hit")
		return body, true
	default:
		metrics.IncrementCache("miss")
		return nil, false
	}
}

func cacheKey(query, userID string, rev int64, today calendar.Date, vary string, r *http.Request) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s|%s", query, userID, rev, today.Key(), vary, r.URL.RequestURI())
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func (h *Handler) today(r *http.Request) (calendar.Date, error) {
	return optionalDate(r, "date", h.Clock.Today())
}

func optionalDate(r *http.Request, name string, fallback calendar.Date) (calendar.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return d, nil
}

// rangeParam reads start/end. A missing bound is taken from fallback.
func rangeParam(r *http.Request, fallback calendar.Period) (calendar.Period, error) {
	start, err := optionalDate(r, "start", fallback.Start)
	if err != nil {
		return calendar.Period{}, err
	}
	end, err := optionalDate(r, "end", fallback.End)
	if err != nil {
		return calendar.Period{}, err
	}
	if r.URL.Query().Get("start") != "" && r.URL.Query().Get("end") == "" {
		end = start.AddDays(fallback.Len() - 1)
	}

	period, err := calendar.NewPeriod(start, end)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if period.Len() > MaxRangeDays {
		return calendar.Period{}, fmt.Errorf("%w: range longer than %d days", errBadRequest, MaxRangeDays)
	}
	return period, nil
}

// =============================================================================
// RESPONSES
// =============================================================================

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, snapshot.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		logger.WithRequest(r.Context(), h.Logger).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeRaw(w http.ResponseWriter, status int, body []byte, cacheResult string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheResult)
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

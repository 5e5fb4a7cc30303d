/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, picked up by the zap logger
  2. accessLog:  zap request logging
  3. observe:    Prometheus latency histogram by route pattern
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the web frontend

ROUTE GROUPS:
  /api/users/{user}/*   Per-user engine queries
  /api/shared/{code}    Partner view by share code
  /healthz              Liveness
  /metrics              Prometheus

SECURITY NOTE:
  No authentication middleware. The API is read-only; user ids are
  expected to be resolved by a fronting gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stride/habit-engine/metrics"
)

// RouterOptions configures cross-cutting router behaviour.
type RouterOptions struct {
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLog(h.Logger))
	r.Use(observe)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users/{user}", func(r chi.Router) {
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/habits", h.ListHabits)
			r.Get("/habits/{id}/calendar", h.GetHabitCalendar)
			r.Get("/progress", h.GetProgress)
			r.Get("/planner", h.GetPlanner)
			r.Get("/blocks/{id}/occurrences", h.GetOccurrences)
		})
		r.Get("/shared/{code}", h.GetSharedView)
	})

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

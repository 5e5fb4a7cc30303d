// Package metrics exposes Prometheus collectors for the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request latency (seconds), labelled by chi route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	// Engine queries served, by query name (dashboard, planner, ...)
	QueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_query_total",
			Help: "Total number of engine queries served",
		},
		[]string{"query"},
	)

	// Response cache lookups
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_cache_requests_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)

func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func IncrementQuery(query string) {
	QueryCount.WithLabelValues(query).Inc()
}

func IncrementCache(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

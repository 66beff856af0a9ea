package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizzy_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by key family and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizzy_cache_lookups_total",
		Help: "Cache lookups by key family and result",
	}, []string{"family", "result"})

	// PlacesRequests counts upstream Places API calls by endpoint and outcome.
	PlacesRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizzy_places_requests_total",
		Help: "Upstream Places API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// PlacesLatency records upstream Places API latency by endpoint.
	PlacesLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizzy_places_request_duration_seconds",
		Help:    "Upstream Places API request latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	// PlacesBreakerState is 0 closed, 1 half-open, 2 open.
	PlacesBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bizzy_places_breaker_state",
		Help: "Places API circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	// AuthEvents counts authentication events (signup, login, logout, oauth) by result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizzy_auth_events_total",
		Help: "Authentication events by kind and result",
	}, []string{"kind", "result"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// ObservePlaces records one upstream Places call.
func ObservePlaces(endpoint, outcome string, start time.Time) {
	PlacesRequests.WithLabelValues(endpoint, outcome).Inc()
	PlacesLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

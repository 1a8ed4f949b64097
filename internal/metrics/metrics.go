package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Movie catalog metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movie_catalog",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "movie_catalog",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// Store operations counter
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movie_catalog",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total movie store operations",
		},
		[]string{"operation", "status"},
	)

	// Store operation duration
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "movie_catalog",
			Subsystem: "store",
			Name:      "duration_seconds",
			Help:      "Movie store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	// Cache lookups
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movie_catalog",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"result"},
	)

	// Published events
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movie_catalog",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Movie change events handed to the broker",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordStoreOperation records a movie store call
func RecordStoreOperation(operation, status string, durationSec float64) {
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	StoreDuration.WithLabelValues(operation).Observe(durationSec)
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordEvent records a publish attempt
func RecordEvent(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

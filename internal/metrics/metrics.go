package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Detection gate metrics. Outcome is one of passed, rejected,
	// degraded, service_error — degraded means unverified content was
	// allowed through and should be watched by operators.
	DetectionOutcomesTotal   prometheus.CounterVec
	DetectionProviderLatency prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Search metrics
	SearchQueriesTotal prometheus.CounterVec
	SearchErrors       prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			DetectionOutcomesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "detection_outcomes_total",
					Help: "AI-content detection outcomes per modality",
				},
				[]string{"modality", "outcome"},
			),
			DetectionProviderLatency: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "detection_provider_latency_seconds",
					Help:    "Latency of outbound detection provider calls",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"provider"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),
			SearchQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "search_queries_total",
					Help: "Total number of search queries",
				},
				[]string{"index"},
			),
			SearchErrors: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "search_errors_total",
					Help: "Total number of search errors",
				},
				[]string{"index", "operation"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, or nil if Initialize was never called.
func Get() *Metrics {
	return instance
}

// RecordDetection counts one detection outcome. Safe to call before
// Initialize (unit tests construct the gate directly).
func RecordDetection(modality, outcome string) {
	if instance == nil {
		return
	}
	instance.DetectionOutcomesTotal.WithLabelValues(modality, outcome).Inc()
}

// ObserveProviderLatency records one outbound provider call duration.
func ObserveProviderLatency(provider string, seconds float64) {
	if instance == nil {
		return
	}
	instance.DetectionProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheHit counts a cache hit for the named cache.
func RecordCacheHit(cache string) {
	if instance == nil {
		return
	}
	instance.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss counts a cache miss for the named cache.
func RecordCacheMiss(cache string) {
	if instance == nil {
		return
	}
	instance.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordSearchQuery counts one executed search against an index.
func RecordSearchQuery(index string) {
	if instance == nil {
		return
	}
	instance.SearchQueriesTotal.WithLabelValues(index).Inc()
}

// RecordSearchError counts one failed search operation.
func RecordSearchError(index, operation string) {
	if instance == nil {
		return
	}
	instance.SearchErrors.WithLabelValues(index, operation).Inc()
}

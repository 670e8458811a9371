package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Authorization metrics
	AuthorizeTotal    *prometheus.CounterVec
	AuthorizeDuration prometheus.Histogram

	// Permission cache metrics
	PermissionCacheHits   prometheus.Counter
	PermissionCacheMisses prometheus.Counter
	CacheInvalidations    prometheus.Counter

	// Visibility metrics
	VisibilityQueryDuration prometheus.Histogram
	VisibleEngineersCount   prometheus.Histogram

	// Store metrics
	StoreErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthorizeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesscore_authorize_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"decision"},
		),
		AuthorizeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "accesscore_authorize_duration_seconds",
				Help:    "Time spent resolving an authorization decision",
				Buckets: prometheus.DefBuckets,
			},
		),
		PermissionCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accesscore_permission_cache_hits_total",
				Help: "Permission cache hits",
			},
		),
		PermissionCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accesscore_permission_cache_misses_total",
				Help: "Permission cache misses",
			},
		),
		CacheInvalidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accesscore_cache_invalidations_total",
				Help: "Explicit cache invalidations after grants and revokes",
			},
		),
		VisibilityQueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "accesscore_visibility_query_duration_seconds",
				Help:    "Time spent resolving the visible engineer set",
				Buckets: prometheus.DefBuckets,
			},
		),
		VisibleEngineersCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "accesscore_visible_engineers_count",
				Help:    "Size of the visible engineer result set per query",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesscore_store_errors_total",
				Help: "Persistence errors by store",
			},
			[]string{"store"},
		),
	}

	registry.MustRegister(
		m.AuthorizeTotal,
		m.AuthorizeDuration,
		m.PermissionCacheHits,
		m.PermissionCacheMisses,
		m.CacheInvalidations,
		m.VisibilityQueryDuration,
		m.VisibleEngineersCount,
		m.StoreErrorsTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry in Prometheus
// text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordDecision records an authorization decision outcome.
func (m *Metrics) RecordDecision(allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.AuthorizeTotal.WithLabelValues(decision).Inc()
}

// RecordCacheHit records a permission cache hit or miss.
func (m *Metrics) RecordCacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.PermissionCacheHits.Inc()
	} else {
		m.PermissionCacheMisses.Inc()
	}
}

// RecordInvalidation records an explicit cache invalidation.
func (m *Metrics) RecordInvalidation() {
	if m == nil {
		return
	}
	m.CacheInvalidations.Inc()
}

// RecordStoreError records a persistence failure for the named store.
func (m *Metrics) RecordStoreError(store string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(store).Inc()
}

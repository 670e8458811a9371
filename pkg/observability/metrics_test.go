package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics_RegistersEverything(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RecordDecision(true)
	m.RecordDecision(false)
	m.RecordCacheHit(true)
	m.RecordCacheHit(false)
	m.RecordInvalidation()
	m.RecordStoreError("rbac")
	m.AuthorizeDuration.Observe(0.01)
	m.VisibilityQueryDuration.Observe(0.02)
	m.VisibleEngineersCount.Observe(12)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"accesscore_authorize_total",
		"accesscore_authorize_duration_seconds",
		"accesscore_permission_cache_hits_total",
		"accesscore_permission_cache_misses_total",
		"accesscore_cache_invalidations_total",
		"accesscore_visibility_query_duration_seconds",
		"accesscore_visible_engineers_count",
		"accesscore_store_errors_total",
	} {
		if !names[want] {
			t.Errorf("metric %q not registered", want)
		}
	}
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	// Components accept a nil *Metrics; the record helpers must not
	// panic in that configuration.
	var m *Metrics
	m.RecordDecision(true)
	m.RecordCacheHit(false)
	m.RecordInvalidation()
	m.RecordStoreError("rbac")
}

func TestHandler_ServesPrometheusText(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.RecordDecision(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	Handler(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "accesscore_authorize_total") {
		t.Error("metrics output missing authorize counter")
	}
}

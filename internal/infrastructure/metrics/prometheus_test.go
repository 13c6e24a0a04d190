package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()

	r.GuideResolved("Cerrada")
	r.GuideResolved("Cerrada")
	r.StageUnavailable("pesaje")
	r.LegacyMigrated("inserted")
	r.DuplicateVersioned()

	if got := testutil.ToFloat64(r.resolutions.WithLabelValues("Cerrada")); got != 2 {
		t.Fatalf("resolutions{Cerrada} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.stageUnavailable.WithLabelValues("pesaje")); got != 1 {
		t.Fatalf("stage_unavailable{pesaje} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.duplicateVersioned); got != 1 {
		t.Fatalf("duplicate_versioned = %v, want 1", got)
	}
}

func TestRegistryHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.GuideNotFound()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "guias_not_found_total 1") {
		t.Fatalf("metrics output missing guias_not_found_total:\n%s", body)
	}
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guias/internal/ports"
)

// Registry owns every guias collector. Each instance registers on its own registry so tests
// and multiple fx apps in one process do not collide.
type Registry struct {
	registry *prometheus.Registry

	resolutions        *prometheus.CounterVec
	notFound           prometheus.Counter
	stageUnavailable   *prometheus.CounterVec
	legacyFallback     prometheus.Counter
	duplicateVersioned prometheus.Counter
	legacyMigrated     *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var _ ports.GuideMetrics = (*Registry)(nil)

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guias_resolutions_total",
			Help: "Guides resolved, by lifecycle state.",
		}, []string{"estado"}),
		notFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guias_not_found_total",
			Help: "Resolutions for guide ids without an entry record.",
		}),
		stageUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guias_stage_unavailable_total",
			Help: "Stage reads that failed and were treated as absent.",
		}, []string{"etapa"}),
		legacyFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guias_legacy_fallback_total",
			Help: "Entries served from the legacy file store.",
		}),
		duplicateVersioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guias_duplicate_versioned_total",
			Help: "Entry submissions renamed with a version suffix.",
		}),
		legacyMigrated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guias_legacy_migrated_total",
			Help: "Legacy files processed by the batch migration, by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guias_http_requests_total",
			Help: "HTTP requests served by the query API.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guias_http_request_duration_seconds",
			Help:    "HTTP request latency of the query API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.resolutions,
		r.notFound,
		r.stageUnavailable,
		r.legacyFallback,
		r.duplicateVersioned,
		r.legacyMigrated,
		r.HTTPRequests,
		r.HTTPDuration,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Registry) GuideResolved(state string) {
	r.resolutions.WithLabelValues(state).Inc()
}

func (r *Registry) GuideNotFound() {
	r.notFound.Inc()
}

func (r *Registry) StageUnavailable(stage string) {
	r.stageUnavailable.WithLabelValues(stage).Inc()
}

func (r *Registry) LegacyFallback() {
	r.legacyFallback.Inc()
}

func (r *Registry) DuplicateVersioned() {
	r.duplicateVersioned.Inc()
}

func (r *Registry) LegacyMigrated(result string) {
	r.legacyMigrated.WithLabelValues(result).Inc()
}

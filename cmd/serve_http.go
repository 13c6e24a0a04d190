package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/infrastructure/metrics"
	"guias/internal/ports"
	"guias/internal/usecase/guide"
)

const requestIDHeader = "X-Request-Id"

type guideQueryService interface {
	Resolve(ctx context.Context, guideID string) (guide.ConsolidatedGuide, error)
	ListGuides(ctx context.Context, filter guide.ListFilter) ([]guide.ConsolidatedGuide, error)
	ProviderEntries(ctx context.Context, providerCode string) ([]ports.EntryRecord, error)
}

type guideHTTPHandler struct {
	svc guideQueryService
}

type guideErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type providerEntryResponse struct {
	GuideID      string `json:"codigo_guia"`
	ProviderCode string `json:"codigo_proveedor"`
	ProviderName string `json:"nombre_proveedor"`
	Plate        string `json:"placa"`
	BunchCount   string `json:"cantidad_racimos"`
	FruitType    string `json:"tipo_fruta"`
	CreatedAtUTC string `json:"timestamp_registro_utc"`
	Active       bool   `json:"is_active"`
}

// newGuideHTTPHandler exposes the resolver and listings. registry may be nil.
func newGuideHTTPHandler(svc guideQueryService, registry *metrics.Registry) http.Handler {
	h := &guideHTTPHandler{svc: svc}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if registry != nil {
		r.Use(metricsMiddleware(registry.HTTPRequests, registry.HTTPDuration))
		r.Method(http.MethodGet, "/metrics", registry.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeHTTPJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/guias", h.listGuides)
	r.Get("/guias/{guideID}", h.showGuide)
	r.Get("/proveedores/{providerCode}/entradas", h.providerEntries)
	return r
}

func (h *guideHTTPHandler) showGuide(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "guideID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeHTTPJSON(w, http.StatusOK, resolved)
}

func (h *guideHTTPHandler) listGuides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := guide.ListFilter{
		DateFrom:        q.Get("desde"),
		DateTo:          q.Get("hasta"),
		ProviderCode:    q.Get("codigo_proveedor"),
		ProviderName:    q.Get("nombre_proveedor"),
		Plate:           q.Get("placa"),
		IncludeInactive: q.Get("incluir_inactivas") == "true",
	}
	if raw := strings.TrimSpace(q.Get("etapa")); raw != "" {
		stage, ok := domain.ParseStage(raw)
		if !ok {
			writeHTTPError(w, http.StatusBadRequest, "unknown etapa "+strconv.Quote(raw))
			return
		}
		filter.Stage = stage
	}
	if raw := strings.TrimSpace(q.Get("limite")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeHTTPError(w, http.StatusBadRequest, "limite must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	items, err := h.svc.ListGuides(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeHTTPJSON(w, http.StatusOK, items)
}

func (h *guideHTTPHandler) providerEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ProviderEntries(r.Context(), chi.URLParam(r, "providerCode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]providerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, providerEntryResponse{
			GuideID:      entry.GuideID,
			ProviderCode: entry.ProviderCode,
			ProviderName: entry.ProviderName,
			Plate:        entry.Plate,
			BunchCount:   entry.BunchCount,
			FruitType:    entry.FruitType,
			CreatedAtUTC: entry.CreatedAtUTC,
			Active:       entry.Active,
		})
	}
	writeHTTPJSON(w, http.StatusOK, out)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrGuideNotFound):
		writeHTTPError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidGuideID), errors.Is(err, domain.ErrMalformedTimestamp):
		writeHTTPError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Error(r.Context(), "query api request failed", slog.Any("err", errs.Loggable(err)))
		writeHTTPError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeHTTPError(w http.ResponseWriter, status int, message string) {
	writeHTTPJSON(w, status, guideErrorResponse{
		Error:     message,
		RequestID: w.Header().Get(requestIDHeader),
	})
}

func writeHTTPJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ctx := logging.WithAttrs(r.Context(), slog.String("component", "cmd.serve"))
		logging.Info(ctx, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// metricsMiddleware labels requests by chi route pattern so guide ids do not explode cardinality.
func metricsMiddleware(requests *prometheus.CounterVec, duration *prometheus.HistogramVec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

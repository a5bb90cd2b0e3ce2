package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP layer and the import engine.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	importsTotal    *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	candidatesTotal prometheus.Counter
}

// NewMetrics initialises the registry and its collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gudang_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gudang_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gudang_imports_total",
		Help: "Import actions by source and outcome.",
	}, []string{"source", "outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gudang_import_rows_total",
		Help: "Rows produced by imports, by source.",
	}, []string{"source"})
	candidates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gudang_import_candidates_total",
		Help: "Candidates persisted to the catalog by AI import confirmations.",
	})
	registry.MustRegister(requests, duration, imports, rows, candidates)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		importsTotal:    imports,
		importRows:      rows,
		candidatesTotal: candidates,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveImport counts one finished import step and the rows it produced.
func (m *Metrics) ObserveImport(source, outcome string, rows int) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(source, outcome).Inc()
	if rows > 0 {
		m.importRows.WithLabelValues(source).Add(float64(rows))
	}
}

// ObserveCandidates counts newly discovered product candidates.
func (m *Metrics) ObserveCandidates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.candidatesTotal.Add(float64(n))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

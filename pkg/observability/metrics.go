package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes recorded per importer stage
const (
	StatusResolved  = "resolved"
	StatusDelegated = "delegated"
	StatusError     = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Import resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec

	// Module graph metrics
	ModulesDiscovered prometheus.Gauge
	GraphIssuesTotal  *prometheus.CounterVec

	// File cache metrics
	FileCacheHitsTotal   prometheus.Counter
	FileCacheMissesTotal prometheus.Counter

	// Compilation metrics
	CompilationsTotal   *prometheus.CounterVec
	CompilationDuration prometheus.Histogram

	otel *OTelMetrics
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyeglass_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eyeglass_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyeglass_import_resolutions_total",
				Help: "Import resolution attempts by importer stage and outcome",
			},
			[]string{"stage", "status"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eyeglass_import_resolution_duration_seconds",
				Help:    "Import resolution duration in seconds, including delegated stages",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"stage"},
		),

		ModulesDiscovered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eyeglass_modules_discovered",
				Help: "Number of modules in the most recently built graph, root included",
			},
		),
		GraphIssuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyeglass_graph_issues_total",
				Help: "Module graph issues by kind",
			},
			[]string{"kind"},
		),

		FileCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "eyeglass_file_cache_hits_total",
				Help: "Stylesheet reads served from the file cache",
			},
		),
		FileCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "eyeglass_file_cache_misses_total",
				Help: "Stylesheet reads that went to disk",
			},
		),

		CompilationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyeglass_compilations_total",
				Help: "Total number of stylesheet compilations",
			},
			[]string{"status"},
		),
		CompilationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eyeglass_compilation_duration_seconds",
				Help:    "Compilation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.ModulesDiscovered,
		m.GraphIssuesTotal,
		m.FileCacheHitsTotal,
		m.FileCacheMissesTotal,
		m.CompilationsTotal,
		m.CompilationDuration,
	)

	return m
}

// WithOTel mirrors resolution metrics into OpenTelemetry instruments
func (m *Metrics) WithOTel(om *OTelMetrics) *Metrics {
	if m != nil {
		m.otel = om
	}
	return m
}

// ObserveResolution records one stage attempt
func (m *Metrics) ObserveResolution(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(stage, status).Inc()
	m.ResolutionDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.otel.recordResolution(stage, status, d)
}

// ObserveGraph records the size and issues of a freshly built graph
func (m *Metrics) ObserveGraph(modules int, issues map[string]int) {
	if m == nil {
		return
	}
	m.ModulesDiscovered.Set(float64(modules))
	for kind, n := range issues {
		if n > 0 {
			m.GraphIssuesTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// FileCacheHit records a cached read
func (m *Metrics) FileCacheHit() {
	if m == nil {
		return
	}
	m.FileCacheHitsTotal.Inc()
}

// FileCacheMiss records a read that went to disk
func (m *Metrics) FileCacheMiss() {
	if m == nil {
		return
	}
	m.FileCacheMissesTotal.Inc()
}

// ObserveCompilation records one compilation
func (m *Metrics) ObserveCompilation(err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.CompilationsTotal.WithLabelValues(status).Inc()
	m.CompilationDuration.Observe(d.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests. Requests are labelled by
// their mux route template so paths with variables do not explode the label
// space.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

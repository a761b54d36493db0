package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveResolution("fs", StatusResolved, time.Millisecond)
		m.ObserveGraph(3, map[string]int{"missing": 1})
		m.FileCacheHit()
		m.FileCacheMiss()
		m.ObserveCompilation(nil, time.Second)
		m.WithOTel(nil)
	})
}

func TestMetrics_Resolution(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveResolution("module", StatusResolved, time.Millisecond)
	m.ObserveResolution("module", StatusDelegated, time.Millisecond)
	m.ObserveResolution("module", StatusResolved, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("module", StatusResolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("module", StatusDelegated)))
}

func TestMetrics_GraphAndCache(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveGraph(4, map[string]int{"missing": 2, "collision": 0})
	m.FileCacheHit()
	m.FileCacheMiss()
	m.FileCacheMiss()
	m.ObserveCompilation(errors.New("boom"), time.Second)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.ModulesDiscovered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GraphIssuesTotal.WithLabelValues("missing")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GraphIssuesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileCacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FileCacheMissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompilationsTotal.WithLabelValues("error")))
}

func TestHTTPMetricsMiddleware_RouteTemplate(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(m))
	router.HandleFunc("/css/{entry:.+}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, p := range []string{"/css/a.scss", "/css/b/c.scss"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/css/{entry:.+}", "404")))

	rec := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "eyeglass_http_requests_total")
}

func TestOTelMetrics_MirrorsResolutions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	om, err := NewOTelMetrics(provider)
	require.NoError(t, err)

	m := NewMetrics(prometheus.NewRegistry()).WithOTel(om)
	m.ObserveResolution("asset", StatusError, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var names []string
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		names = append(names, metric.Name)
	}
	assert.ElementsMatch(t, []string{"eyeglass.import.resolutions", "eyeglass.import.duration"}, names)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "hourstay", Environment: "test"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/bookings/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/bookings/1", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/bookings/:id", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
}

func TestHTTPMetricsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := newHTTPMetrics(registry, Config{})
	require.NoError(t, err)

	_, err = newHTTPMetrics(registry, Config{})
	assert.Error(t, err)
}

func TestDocumentMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newDocumentMetrics(registry, Config{Environment: "test"})

	m.ObserveRender("pdf", 40*time.Millisecond, 20_000)
	m.IncRenderFailure("pdf")
	m.ObserveDrift(0.01)
	m.ObserveDrift(-0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderFailures.WithLabelValues("pdf")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.breakdownDrift))
}

func TestDocumentsSingleton(t *testing.T) {
	ResetDocumentMetricsForTest()
	t.Cleanup(ResetDocumentMetricsForTest)

	first := Documents()
	assert.Same(t, first, Documents())
}

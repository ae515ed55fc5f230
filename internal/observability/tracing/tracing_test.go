package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestGinMiddlewareRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/bookings/:id/invoice", func(c *gin.Context) {
		_ = c.Error(errors.New("render failed: template: missing field"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/9/invoice", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "HTTP GET /api/bookings/:id/invoice", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.Int("http.status_code", http.StatusInternalServerError))

	require.Len(t, span.Events(), 1)
	assert.Contains(t, span.Events()[0].Attributes, attribute.String("exception.message", "render failed"))
}

func TestSafeAttributes(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/bookings"),
		attribute.String("guest_email", "a@b.c"),
		attribute.String("guest_phone", "+91"),
		attribute.String("seller_gstin", "29AAB"),
	)
	assert.Equal(t, []attribute.KeyValue{attribute.String("http.route", "/api/bookings")}, attrs)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.EqualError(t, SafeError(errors.New("booking_not_found: id=42")), "booking_not_found")
	assert.EqualError(t, SafeError(errors.New("plain")), "plain")
}

func TestNormalizeRatio(t *testing.T) {
	assert.Equal(t, 0.0, normalizeRatio(-1))
	assert.Equal(t, 0.25, normalizeRatio(0.25))
	assert.Equal(t, 1.0, normalizeRatio(3))
}

package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/hourstay/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedEngine(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		Logger: zap.New(core),
		ErrorClassifier: func(err error) (string, string) {
			return "validation_error", err.Error()
		},
	}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/bookings/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.POST("/api/bookings", func(c *gin.Context) {
		_ = c.Error(errors.New("invalid_guest_name"))
		c.Status(http.StatusBadRequest)
	})
	return r, logs
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	r, logs := newObservedEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/42", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	req.Header.Set(correlation.Header, "01HZX4T6M3V1C8R0Q2N5K7P9DA")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-abc", w.Header().Get("X-Request-Id"))
	assert.Equal(t, "01HZX4T6M3V1C8R0Q2N5K7P9DA", w.Header().Get(correlation.Header))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "req-abc", fields["request_id"])
	assert.Equal(t, "01HZX4T6M3V1C8R0Q2N5K7P9DA", fields["correlation_id"])
	assert.Equal(t, "/api/bookings/:id", fields["route"])
	assert.Equal(t, "42", fields["booking_id"])
	assert.Equal(t, int64(200), fields["status"])
}

func TestGinMiddlewareGeneratesIDs(t *testing.T) {
	r, _ := newObservedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/7", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.NotEmpty(t, w.Header().Get(correlation.Header))
}

func TestGinMiddlewareClassifiesErrors(t *testing.T) {
	r, logs := newObservedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "validation_error", fields["error_type"])
	assert.Equal(t, "invalid_guest_name", fields["error_code"])
}

func TestGinMiddlewareProbesLogAtDebug(t *testing.T) {
	r, logs := newObservedEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(DefaultGormLoggerConfig(), zap.New(core))

	begin := time.Now().Add(-time.Second)
	gl.Trace(context.Background(), begin, func() (string, int64) {
		return "SELECT * FROM bookings WHERE id = ?", 1
	}, nil)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM bookings", 0
	}, gormlogger.ErrRecordNotFound)

	entries := logs.FilterMessage("gorm.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "SELECT", entries[0].ContextMap()["operation"])
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "INSERT", operationFromSQL(`INSERT INTO "invoices" ("id") VALUES (1)`))
	assert.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

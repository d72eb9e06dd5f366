package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ClockAction("clock_in", "ok")
	m.ClockAction("clock_in", "ok")
	m.PermissionGateBlocked("pending")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.JobRun("expire_late_permissions", errors.New("db down"))
	m.SSEEventDropped("u1")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.clockActions.WithLabelValues("clock_in", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.permissionGate.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("expire_late_permissions", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sseDropped))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/attendance/status", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/api/v1/attendance/status",status="200"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ClockAction("clock_out", "ok")
	m.CacheLookup(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

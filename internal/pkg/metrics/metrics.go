package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the API. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	clockActions    *prometheus.CounterVec
	permissionGate  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	sseDropped      prometheus.Counter
	jobRuns         *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	clockActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_clock_actions_total",
		Help: "Clock actions by action and outcome",
	}, []string{"action", "outcome"})

	permissionGate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_late_permission_gate_total",
		Help: "Clock-ins blocked by the late-permission gate, by existing request status",
	}, []string{"existing_status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "status_cache_lookups_total",
		Help: "Status cache lookups by result",
	}, []string{"result"})

	sseDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sse_events_dropped_total",
		Help: "Events discarded because a subscriber was not keeping up",
	})

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Background job runs by job and outcome",
	}, []string{"job", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, clockActions, permissionGate, cacheLookups, sseDropped, jobRuns, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		clockActions:    clockActions,
		permissionGate:  permissionGate,
		cacheLookups:    cacheLookups,
		sseDropped:      sseDropped,
		jobRuns:         jobRuns,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, labelStatus).Inc()
}

// ClockAction counts a clock action; outcome is "ok" or an error class.
func (m *Metrics) ClockAction(action, outcome string) {
	if m == nil {
		return
	}
	m.clockActions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) PermissionGateBlocked(existingStatus string) {
	if m == nil {
		return
	}
	m.permissionGate.WithLabelValues(existingStatus).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SSEEventDropped(string) {
	if m == nil {
		return
	}
	m.sseDropped.Inc()
}

func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

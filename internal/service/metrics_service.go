package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-widget-api/internal/models"
)

// MetricsService owns the Prometheus registry of the widget API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	widgetRenders   *prometheus.CounterVec
	widgetEmpty     *prometheus.CounterVec
	plannedAlarms   *prometheus.GaugeVec
	refreshJobs     *prometheus.CounterVec
	debugClock      prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "widget_cache_read_seconds",
			Help:    "Latency of widget view cache reads",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "widget_cache_write_seconds",
			Help:    "Latency of widget view cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "widget_cache_lookups_total",
			Help: "Widget view cache lookups by result",
		}, []string{"result"}),
		widgetRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "widget_renders_total",
			Help: "Widget views rendered by kind",
		}, []string{"kind"}),
		widgetEmpty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "widget_empty_states_total",
			Help: "Widget views rendered in an empty state",
		}, []string{"kind", "state"}),
		plannedAlarms: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "widget_planned_alarms",
			Help: "Alarms in the most recent update plan by action",
		}, []string{"action"}),
		refreshJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "widget_refresh_jobs_total",
			Help: "Refresh broadcasts processed by action and outcome",
		}, []string{"action", "outcome"}),
		debugClock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "widget_debug_clock_enabled",
			Help: "1 when the debug clock override was active at the last render",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.widgetRenders, m.widgetEmpty, m.plannedAlarms, m.refreshJobs, m.debugClock,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request duration and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordWidgetRender counts a rendered view and its empty state, if any.
func (m *MetricsService) RecordWidgetRender(kind models.WidgetKind, empty models.EmptyState, debug bool) {
	if m == nil {
		return
	}
	m.widgetRenders.WithLabelValues(string(kind)).Inc()
	if empty != models.EmptyNone {
		m.widgetEmpty.WithLabelValues(string(kind), string(empty)).Inc()
	}
	if debug {
		m.debugClock.Set(1)
	} else {
		m.debugClock.Set(0)
	}
}

// RecordPlan publishes the alarm counts of a freshly computed plan.
func (m *MetricsService) RecordPlan(plan models.UpdatePlan) {
	if m == nil {
		return
	}
	counts := map[models.UpdateAction]int{
		models.ActionUpdateWidgets:       0,
		models.ActionUpdateLessonWidgets: 0,
		models.ActionUpdateExamWidgets:   0,
	}
	for _, alarm := range plan.Alarms {
		counts[alarm.Action]++
	}
	for action, n := range counts {
		m.plannedAlarms.WithLabelValues(string(action)).Set(float64(n))
	}
}

// RecordRefresh counts a processed refresh broadcast.
func (m *MetricsService) RecordRefresh(action models.UpdateAction, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.refreshJobs.WithLabelValues(string(action), outcome).Inc()
}

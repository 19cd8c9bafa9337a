package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are safe
// on a nil receiver so components can run without metrics in tests.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	activePanels    prometheus.Gauge
	sseSubscribers  prometheus.Gauge
	notifications   *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

// NewMetricsService registers the panel collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of calls to the records backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "operation"})

	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Calls to the records backend by outcome",
	}, []string{"resource", "operation", "outcome"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	activePanels := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "panel_sessions_active",
		Help: "Panels currently held in memory",
	})

	sseSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "panel_sse_subscribers",
		Help: "Open server-sent event streams",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "panel_notifications_total",
		Help: "Notifications shown to users by level",
	}, []string{"level"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "panel_mutations_total",
		Help: "Successful record mutations by entity and action",
	}, []string{"entity", "action"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, backendDuration, backendTotal, cacheLatency, cacheWrite,
		cacheHits, cacheMisses, dbQueryDuration, activePanels, sseSubscribers, notifications, mutations, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		activePanels:    activePanels,
		sseSubscribers:  sseSubscribers,
		notifications:   notifications,
		mutations:       mutations,
	}
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records inbound request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveBackendCall records one backend round trip.
func (m *MetricsService) ObserveBackendCall(resource, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(resource, operation, outcome).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// SetActivePanels sets the number of live panels.
func (m *MetricsService) SetActivePanels(n int) {
	if m == nil {
		return
	}
	m.activePanels.Set(float64(n))
}

// AddSSESubscribers adjusts the open stream gauge by delta.
func (m *MetricsService) AddSSESubscribers(delta int) {
	if m == nil {
		return
	}
	m.sseSubscribers.Add(float64(delta))
}

// CountNotification counts one notification of level.
func (m *MetricsService) CountNotification(level string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(level).Inc()
}

// CountMutation counts one successful mutation.
func (m *MetricsService) CountMutation(entity, action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, action).Inc()
}

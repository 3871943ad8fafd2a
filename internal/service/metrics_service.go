package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. Besides the
// usual HTTP metrics it counts the compliance-relevant outcomes: how
// often deletions were scheduled and how often holds refused one.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	deletionsTotal  prometheus.Counter
	holdBlocksTotal prometheus.Counter
	auditWriteFails prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	deletionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retention_deletions_scheduled_total",
		Help: "Total documents scheduled for deletion",
	})

	holdBlocksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retention_hold_blocks_total",
		Help: "Total deletion attempts refused by an active legal hold",
	})

	auditWriteFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Total audit ledger writes that failed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, deletionsTotal, holdBlocksTotal, auditWriteFails, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		deletionsTotal:  deletionsTotal,
		holdBlocksTotal: holdBlocksTotal,
		auditWriteFails: auditWriteFails,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// DeletionScheduled counts a successful deletion scheduling.
func (m *MetricsService) DeletionScheduled() {
	if m == nil {
		return
	}
	m.deletionsTotal.Inc()
}

// HoldBlocked counts a deletion refused by an active legal hold.
func (m *MetricsService) HoldBlocked() {
	if m == nil {
		return
	}
	m.holdBlocksTotal.Inc()
}

// AuditWriteFailed counts a failed audit ledger write.
func (m *MetricsService) AuditWriteFailed() {
	if m == nil {
		return
	}
	m.auditWriteFails.Inc()
}

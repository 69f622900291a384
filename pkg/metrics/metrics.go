// Package metrics provides Prometheus instrumentation for TagFile containers
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// Container operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	scanBytesTotal    *prometheus.CounterVec
	entries           prometheus.Gauge
	fileSizeBytes     prometheus.Gauge

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default Prometheus registerer; every such call returns the same
// process-wide instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		defaultOnce.Do(func() {
			defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagfile_operations_total",
				Help: "Total number of container operations",
			},
			[]string{"operation", "status"},
		),

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagfile_operation_duration_seconds",
				Help:    "Container operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		scanBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagfile_scan_bytes_total",
				Help: "Bytes consumed by forward scans",
			},
			[]string{"operation"},
		),

		entries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagfile_entries",
				Help: "Number of names in the container index",
			},
		),

		fileSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagfile_file_size_bytes",
				Help: "Size of the container file in bytes",
			},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagfile_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagfile_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tagfile_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagfile_auth_requests_total",
				Help: "Total number of API key checks",
			},
			[]string{"status"},
		),
	}
}

// RecordOperation records a container operation
func (m *Metrics) RecordOperation(operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordScanBytes records bytes consumed by a forward scan
func (m *Metrics) RecordScanBytes(operation string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.scanBytesTotal.WithLabelValues(operation).Add(float64(n))
}

// UpdateContainerStats updates entry count and file size
func (m *Metrics) UpdateContainerStats(entries int, size int64) {
	if m == nil {
		return
	}
	m.entries.Set(float64(entries))
	m.fileSizeBytes.Set(float64(size))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthRequest records the outcome of an API key check
func (m *Metrics) RecordAuthRequest(success bool) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Wrap the writer to capture the status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
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

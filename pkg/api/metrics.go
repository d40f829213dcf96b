package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ssargent/imgdedup/pkg/bptree"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Index operation metrics
	treeDepth    prometheus.Gauge
	treeNItems   prometheus.Gauge
	treeUsedSize prometheus.Gauge

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Domain operation metrics
	syncOperationsTotal  *prometheus.CounterVec
	syncDuration         prometheus.Histogram
	matchOperationsTotal *prometheus.CounterVec
	matchDuration        prometheus.Histogram
	dedupOperationsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		// HTTP request metrics
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgdedup_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "imgdedup_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "imgdedup_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		// Index metrics
		treeDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "imgdedup_tree_depth",
				Help: "Current depth of the signature B+ tree",
			},
		),
		treeNItems: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "imgdedup_tree_items_total",
				Help: "Total number of indexed (signature, offset) pairs",
			},
		),
		treeUsedSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "imgdedup_tree_used_bytes",
				Help: "Bytes used in the B+ tree's backing arena",
			},
		),

		// Authentication metrics
		authRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgdedup_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		// Domain operation metrics
		syncOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgdedup_sync_operations_total",
				Help: "Total number of directory synchronize operations",
			},
			[]string{"status"},
		),
		syncDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "imgdedup_sync_duration_seconds",
				Help:    "Directory synchronize duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		matchOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgdedup_match_operations_total",
				Help: "Total number of fuzzy match operations",
			},
			[]string{"status"},
		),
		matchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "imgdedup_match_duration_seconds",
				Help:    "Fuzzy match duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		dedupOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgdedup_dedup_operations_total",
				Help: "Total number of dedup (move-and-remove) operations",
			},
			[]string{"status"},
		),

		// Health check metrics
		healthChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgdedup_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSyncOperation records a directory synchronize operation.
func (m *Metrics) RecordSyncOperation(success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.syncOperationsTotal.WithLabelValues(status).Inc()
	m.syncDuration.Observe(duration.Seconds())
}

// RecordMatchOperation records a fuzzy match operation.
func (m *Metrics) RecordMatchOperation(success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.matchOperationsTotal.WithLabelValues(status).Inc()
	m.matchDuration.Observe(duration.Seconds())
}

// RecordDedupOperation records a dedup (move-and-remove) operation.
func (m *Metrics) RecordDedupOperation(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.dedupOperationsTotal.WithLabelValues(status).Inc()
}

// UpdateTreeStats updates the B+ tree gauges from a bptree.Stats snapshot.
func (m *Metrics) UpdateTreeStats(stats bptree.Stats) {
	m.treeDepth.Set(float64(stats.Depth))
	m.treeNItems.Set(float64(stats.NItems))
	m.treeUsedSize.Set(float64(stats.UsedSize))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Record request in flight
		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Call the original handler
		handler(rw, r)

		// Record metrics
		duration := time.Since(start)
		m.RecordHTTPRequest(method, endpoint, rw.statusCode, duration)
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check if API key is present
			apiKey := r.Header.Get("X-API-Key")
			hasAPIKey := apiKey != ""

			// Call the auth middleware
			next(h).ServeHTTP(w, r)

			// Record auth metrics based on response status
			if rw, ok := w.(*responseWriter); ok {
				success := rw.statusCode != http.StatusUnauthorized
				if hasAPIKey {
					m.RecordAuthRequest(success)
				}
			}
		})
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

// Package metrics provides Prometheus metrics for the radrate service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Dataset and rating activity
	datasetImports *prometheus.CounterVec
	reportsLoaded  prometheus.Gauge
	ratingsSaved   prometheus.Counter
	exports        *prometheus.CounterVec
	exportsEmpty   prometheus.Counter

	// Rater population, refreshed whenever stats are computed
	totalUsers  prometheus.Gauge
	activeUsers prometheus.Gauge
	logins      prometheus.Counter

	// Storage
	storageCorruptReads *prometheus.CounterVec
	storageErrors       *prometheus.CounterVec
	storageResets       prometheus.Counter
	storageOpLatency    *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "radrate",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.datasetImports = m.counterVec("dataset_imports_total", "Dataset CSV uploads by outcome", "result")
	m.reportsLoaded = m.gauge("reports_loaded", "Number of reports in the active dataset")
	m.ratingsSaved = m.counter("ratings_saved_total", "Image ratings written to storage")
	m.exports = m.counterVec("exports_total", "CSV exports produced", "variant")
	m.exportsEmpty = m.counter("exports_empty_total", "Export requests refused because no ratings exist")

	m.totalUsers = m.gauge("users_total", "Known raters")
	m.activeUsers = m.gauge("users_active", "Raters with at least one stored image rating")
	m.logins = m.counter("logins_total", "Successful logins")

	m.storageCorruptReads = m.counterVec("storage_corrupt_reads_total", "Stored values that failed to decode and were read as absent", "kind")
	m.storageErrors = m.counterVec("storage_errors_total", "Backend failures by operation", "op")
	m.storageResets = m.counter("storage_resets_total", "Full storage resets triggered by dataset uploads")
	m.storageOpLatency = m.histogramVec("storage_op_latency_ms", "Storage operation latency in milliseconds", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_ms", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "HTTP errors by type and severity", "error_type", "severity")
}

// RecordDatasetImport counts one upload with its outcome ("ok" or an error code).
func RecordDatasetImport(result string) {
	if globalManager.enabled {
		globalManager.datasetImports.WithLabelValues(result).Inc()
	}
}

// UpdateReportsLoaded sets the size of the active dataset.
func UpdateReportsLoaded(n int) {
	if globalManager.enabled {
		globalManager.reportsLoaded.Set(float64(n))
	}
}

// RecordRatingSaved counts a stored image rating.
func RecordRatingSaved() {
	if globalManager.enabled {
		globalManager.ratingsSaved.Inc()
	}
}

// RecordExport counts an export of the given variant ("user" or "batch").
func RecordExport(variant string) {
	if globalManager.enabled {
		globalManager.exports.WithLabelValues(variant).Inc()
	}
}

// RecordExportEmpty counts a refused empty export.
func RecordExportEmpty() {
	if globalManager.enabled {
		globalManager.exportsEmpty.Inc()
	}
}

// UpdateUsers sets the rater population gauges.
func UpdateUsers(total, active int) {
	if globalManager.enabled {
		globalManager.totalUsers.Set(float64(total))
		globalManager.activeUsers.Set(float64(active))
	}
}

// RecordLogin counts a login.
func RecordLogin() {
	if globalManager.enabled {
		globalManager.logins.Inc()
	}
}

// RecordStorageCorruptRead counts a stored value of the given kind that failed to decode.
func RecordStorageCorruptRead(kind string) {
	if globalManager.enabled {
		globalManager.storageCorruptReads.WithLabelValues(kind).Inc()
	}
}

// RecordStorageError counts a backend failure.
func RecordStorageError(op string) {
	if globalManager.enabled {
		globalManager.storageErrors.WithLabelValues(op).Inc()
	}
}

// RecordStorageReset counts a full storage reset.
func RecordStorageReset() {
	if globalManager.enabled {
		globalManager.storageResets.Inc()
	}
}

// RecordStorageOpLatency observes one storage operation.
func RecordStorageOpLatency(op string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storageOpLatency.WithLabelValues(op).Observe(latencyMs)
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint counts an HTTP error on an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByType counts an HTTP error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// GetRegistry returns the registry the global manager reports to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the SmartBudget pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline and API.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline throughput
	rowsIngested     prometheus.Counter
	rowsRejected     prometheus.Counter
	expensesUpserted prometheus.Counter
	labelsAssigned   prometheus.Counter
	unmappedRecorded prometheus.Counter
	expensesScored   prometheus.Counter
	recommendations  prometheus.Counter

	// Stage health
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec

	// HTTP API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry()

// Initialize global metrics.
func init() {
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "smartbudget",
		subsystem:        "etl",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_ingested_total",
		Help:      "Total number of CSV rows validated and staged",
	})

	m.rowsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_rejected_total",
		Help:      "Total number of CSV rows rejected by validation",
	})

	m.expensesUpserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "expenses_upserted_total",
		Help:      "Total number of canonical expense rows written",
	})

	m.labelsAssigned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "labels_assigned_total",
		Help:      "Total number of new expense label assignments",
	})

	m.unmappedRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unmapped_categories_total",
		Help:      "Total number of newly recorded unmapped category values",
	})

	m.expensesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "expenses_scored_total",
		Help:      "Total number of expense priority scores written",
	})

	m.recommendations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_generated_total",
		Help:      "Total number of recommendations generated",
	})

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"stage"},
	)

	m.stageErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "stage_errors_total",
			Help:      "Total number of failed pipeline stage runs",
		},
		[]string{"stage"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordRowsIngested adds to the ingested rows counter.
func RecordRowsIngested(n int) {
	globalManager.rowsIngested.Add(float64(n))
}

// RecordRowsRejected adds to the rejected rows counter.
func RecordRowsRejected(n int) {
	globalManager.rowsRejected.Add(float64(n))
}

// RecordExpensesUpserted adds to the upserted expenses counter.
func RecordExpensesUpserted(n int64) {
	globalManager.expensesUpserted.Add(float64(n))
}

// RecordLabelsAssigned adds to the label assignments counter.
func RecordLabelsAssigned(n int64) {
	globalManager.labelsAssigned.Add(float64(n))
}

// RecordUnmappedCategories adds to the unmapped categories counter.
func RecordUnmappedCategories(n int64) {
	globalManager.unmappedRecorded.Add(float64(n))
}

// RecordExpensesScored adds to the scored expenses counter.
func RecordExpensesScored(n int) {
	globalManager.expensesScored.Add(float64(n))
}

// RecordRecommendations adds to the generated recommendations counter.
func RecordRecommendations(n int) {
	globalManager.recommendations.Add(float64(n))
}

// ObserveStageDuration records the duration of a pipeline stage in seconds.
func ObserveStageDuration(stage string, seconds float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordStageError increments the error counter for a pipeline stage.
func RecordStageError(stage string) {
	globalManager.stageErrors.WithLabelValues(stage).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

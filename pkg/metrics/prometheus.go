// Package metrics provides Prometheus metrics for the dealdesk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store
	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	storeRecords    *prometheus.GaugeVec

	// Timeline and ranking engines
	timelineGestures      *prometheus.CounterVec
	timelineClampedMoves  prometheus.Counter
	timelineRejectedSpans prometheus.Counter
	leaderboardBuilds     prometheus.Counter
	leaderboardReps       prometheus.Gauge

	// Mutation dispatcher
	dispatchQueueSize     prometheus.Gauge
	dispatchQueueCapacity prometheus.Gauge
	dispatchRejected      prometheus.Counter
	dispatchLatency       prometheus.Histogram
	idempotentReplays     prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dealdesk",
		subsystem:        "crm",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.storeOperations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operations_total",
		Help:      "Record store operations by entity and operation",
	}, []string{"entity", "op"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Record store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"entity", "op"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Record store failures by entity, operation and kind",
	}, []string{"entity", "op", "kind"})

	m.storeRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_records",
		Help:      "Number of records held per entity",
	}, []string{"entity"})

	m.timelineGestures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "timeline_gestures_total",
		Help:      "Timeline move and resize gestures applied",
	}, []string{"gesture"})

	m.timelineClampedMoves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "timeline_clamped_moves_total",
		Help:      "Moves whose span was truncated at the end of the year",
	})

	m.timelineRejectedSpans = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "timeline_rejected_spans_total",
		Help:      "Resizes rejected because the end would precede the start",
	})

	m.leaderboardBuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_builds_total",
		Help:      "Number of leaderboard rankings computed",
	})

	m.leaderboardReps = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_reps",
		Help:      "Sales reps ranked in the last leaderboard build",
	})

	m.dispatchQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_queue_size",
		Help:      "Pending deal mutations across all lanes",
	})

	m.dispatchQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_queue_capacity",
		Help:      "Total capacity of the mutation lanes",
	})

	m.dispatchRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_rejected_total",
		Help:      "Mutations rejected because their lane was full or closed",
	})

	m.dispatchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_latency_milliseconds",
		Help:      "Time from submit to completion of a deal mutation",
		Buckets:   m.histogramBuckets,
	})

	m.idempotentReplays = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "idempotent_replays_total",
		Help:      "Mutation requests answered from an earlier application",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordStoreOperation records one store call and its latency.
func RecordStoreOperation(entity, op string, latencyMs float64) {
	globalManager.storeOperations.WithLabelValues(entity, op).Inc()
	globalManager.storeLatency.WithLabelValues(entity, op).Observe(latencyMs)
}

// RecordStoreError records a failed store call.
func RecordStoreError(entity, op, kind string) {
	globalManager.storeErrors.WithLabelValues(entity, op, kind).Inc()
}

// UpdateStoreRecords sets the number of records held for entity.
func UpdateStoreRecords(entity string, count int) {
	globalManager.storeRecords.WithLabelValues(entity).Set(float64(count))
}

// RecordTimelineGesture counts an applied move or resize.
func RecordTimelineGesture(gesture string) {
	globalManager.timelineGestures.WithLabelValues(gesture).Inc()
}

// RecordTimelineClampedMove counts a move truncated at December.
func RecordTimelineClampedMove() {
	globalManager.timelineClampedMoves.Inc()
}

// RecordTimelineRejectedSpan counts a resize rejected as an invalid span.
func RecordTimelineRejectedSpan() {
	globalManager.timelineRejectedSpans.Inc()
}

// RecordLeaderboardBuild counts a ranking computation over reps sales reps.
func RecordLeaderboardBuild(reps int) {
	globalManager.leaderboardBuilds.Inc()
	globalManager.leaderboardReps.Set(float64(reps))
}

// UpdateDispatchQueue sets the pending mutation count and lane capacity.
func UpdateDispatchQueue(size, capacity int) {
	globalManager.dispatchQueueSize.Set(float64(size))
	globalManager.dispatchQueueCapacity.Set(float64(capacity))
}

// RecordDispatchRejected counts a mutation refused by the dispatcher.
func RecordDispatchRejected() {
	globalManager.dispatchRejected.Inc()
}

// RecordDispatchLatency records submit-to-completion latency of a mutation.
func RecordDispatchLatency(latencyMs float64) {
	globalManager.dispatchLatency.Observe(latencyMs)
}

// RecordIdempotentReplay counts a replayed mutation request.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

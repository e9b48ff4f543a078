// Package metrics provides Prometheus metrics for the grade statistics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the grade statistics service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	recordBuckets    []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics
	statsRequests         *prometheus.CounterVec
	computationLatency    *prometheus.HistogramVec
	recordsFetched        *prometheus.HistogramVec
	learnersTotal         *prometheus.GaugeVec
	percentageAbove       *prometheus.GaugeVec
	distributionBuckets   *prometheus.GaugeVec
	computationErrors     *prometheus.CounterVec
	classNotFound         prometheus.Counter
	lastComputationUnixTs *prometheus.GaugeVec

	// Source Metrics
	sourceErrors         *prometheus.CounterVec
	sourceFetchLatency   *prometheus.HistogramVec
	sourceConnectRetries *prometheus.CounterVec
	sourceReloads        *prometheus.CounterVec

	// Cache Metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gradestats",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		recordBuckets:    prometheus.ExponentialBuckets(1, 4, 10),
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Namespace returns the metric namespace.
func (m *Manager) Namespace() string { return m.namespace }

// Subsystem returns the metric subsystem.
func (m *Manager) Subsystem() string { return m.subsystem }

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the period of the system gauge updater.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.statsRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("stats_requests_total"),
			Help:        "Total number of statistics computations by scope and outcome",
			ConstLabels: m.customLabels,
		},
		[]string{"scope", "outcome"},
	)

	m.computationLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("computation_latency_milliseconds"),
			Help:        "End-to-end pipeline latency in milliseconds, source read included",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.recordsFetched = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("records_fetched"),
			Help:        "Number of score records read from the source per computation",
			Buckets:     m.recordBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.learnersTotal = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("learners_total"),
			Help:        "Number of learners in the latest computation",
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.percentageAbove = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("percentage_above_threshold"),
			Help:        "Percentage of learners above the pass mark in the latest computation",
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.distributionBuckets = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("distribution_buckets"),
			Help:        "Number of non-empty distribution buckets in the latest computation",
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.computationErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("computation_errors_total"),
			Help:        "Total number of failed computations by error kind",
			ConstLabels: m.customLabels,
		},
		[]string{"kind"},
	)

	m.classNotFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("class_not_found_total"),
		Help:        "Total number of class requests for classes without records",
		ConstLabels: m.customLabels,
	})

	m.lastComputationUnixTs = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("last_computation_unix"),
			Help:        "Unix timestamp of the latest successful computation",
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	// Source Metrics
	m.sourceErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_errors_total"),
			Help:        "Total number of failed reads from the record source",
			ConstLabels: m.customLabels,
		},
		[]string{"driver"},
	)

	m.sourceFetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_fetch_latency_milliseconds"),
			Help:        "Latency of record source reads in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"driver"},
	)

	m.sourceConnectRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_connect_retries_total"),
			Help:        "Total number of retried source connection attempts",
			ConstLabels: m.customLabels,
		},
		[]string{"driver"},
	)

	m.sourceReloads = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_reloads_total"),
			Help:        "Total number of file source reloads by outcome",
			ConstLabels: m.customLabels,
		},
		[]string{"outcome"},
	)

	// Cache Metrics
	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_hits_total"),
			Help:        "Total number of result cache hits",
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_misses_total"),
			Help:        "Total number of result cache misses",
			ConstLabels: m.customLabels,
		},
		[]string{"scope"},
	)

	m.cacheErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_errors_total"),
			Help:        "Total number of result cache failures by operation",
			ConstLabels: m.customLabels,
		},
		[]string{"op"},
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Total number of errors by component and type",
			ConstLabels: m.customLabels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by HTTP endpoint",
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: m.customLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: m.customLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	})
}

// Statistics Metrics Functions.

// RecordStatsRequest counts a computation for scope with its outcome
// (ok, not_found, source_error, computation_error, cached).
func RecordStatsRequest(scope, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.statsRequests.WithLabelValues(scope, outcome).Inc()
}

// RecordComputationLatency records pipeline latency in milliseconds.
func RecordComputationLatency(scope string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.computationLatency.WithLabelValues(scope).Observe(latencyMs)
}

// RecordRecordsFetched records how many records a computation read.
func RecordRecordsFetched(scope string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsFetched.WithLabelValues(scope).Observe(float64(count))
}

// UpdateLearnersTotal sets the learner count of the latest computation.
func UpdateLearnersTotal(scope string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.learnersTotal.WithLabelValues(scope).Set(float64(count))
}

// UpdatePercentageAbove sets the pass percentage of the latest computation.
func UpdatePercentageAbove(scope string, pct float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.percentageAbove.WithLabelValues(scope).Set(pct)
}

// UpdateDistributionBuckets sets the bucket count of the latest computation.
func UpdateDistributionBuckets(scope string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.distributionBuckets.WithLabelValues(scope).Set(float64(count))
}

// MarkComputation stamps the time of the latest successful computation.
func MarkComputation(scope string, at time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.lastComputationUnixTs.WithLabelValues(scope).Set(float64(at.Unix()))
}

// RecordComputationError counts a failed computation by kind.
func RecordComputationError(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.computationErrors.WithLabelValues(kind).Inc()
}

// RecordClassNotFound counts a class request that matched no records.
func RecordClassNotFound() {
	if !globalManager.enabled {
		return
	}
	globalManager.classNotFound.Inc()
}

// Source Metrics Functions.

// RecordSourceError counts a failed source read.
func RecordSourceError(driver string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceErrors.WithLabelValues(driver).Inc()
}

// RecordSourceFetchLatency records a source read latency in milliseconds.
func RecordSourceFetchLatency(driver string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceFetchLatency.WithLabelValues(driver).Observe(latencyMs)
}

// RecordSourceConnectRetry counts a retried connection attempt.
func RecordSourceConnectRetry(driver string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceConnectRetries.WithLabelValues(driver).Inc()
}

// RecordSourceReload counts a file source reload (ok or error).
func RecordSourceReload(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sourceReloads.WithLabelValues(outcome).Inc()
}

// Cache Metrics Functions.

// RecordCacheHit counts a cache hit for scope.
func RecordCacheHit(scope string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.WithLabelValues(scope).Inc()
}

// RecordCacheMiss counts a cache miss for scope.
func RecordCacheMiss(scope string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.WithLabelValues(scope).Inc()
}

// RecordCacheError counts a failed cache operation (get or set).
func RecordCacheError(op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheErrors.WithLabelValues(op).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled switches recording of business metrics on or off at runtime.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// RefreshInterval returns the system gauge refresh period of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

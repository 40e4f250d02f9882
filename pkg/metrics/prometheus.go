// Package metrics provides Prometheus metrics for the peloton service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are milliseconds; roster operations are sub-millisecond
// while provider fetches take hundreds.
var latencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager owns all Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Catalog
	catalogLoads        *prometheus.CounterVec
	catalogLoadDuration prometheus.Histogram
	catalogRiders       prometheus.Gauge
	catalogRaces        prometheus.Gauge
	catalogLastLoadUnix prometheus.Gauge

	// Rosters
	rosterMutations   *prometheus.CounterVec
	evaluations       *prometheus.CounterVec
	idempotentReplays prometheus.Counter
	openSessions      prometheus.Gauge

	// Repository
	repositoryOps     *prometheus.CounterVec
	repositoryLatency *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "peloton",
		subsystem:        "manager",
		histogramBuckets: latencyBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint, method and error type", "endpoint", "method", "error_type")

	m.catalogLoads = m.counterVec("catalog_loads_total",
		"Catalog loads from the data provider by outcome", "outcome")
	m.catalogLoadDuration = m.histogram("catalog_load_duration_milliseconds",
		"Time to fetch and index riders and races")
	m.catalogRiders = m.gauge("catalog_riders", "Riders in the active catalog")
	m.catalogRaces = m.gauge("catalog_races", "Races in the active catalog")
	m.catalogLastLoadUnix = m.gauge("catalog_last_load_unix_seconds", "Unix time of the last successful catalog load")

	m.rosterMutations = m.counterVec("roster_mutations_total",
		"Roster mutations by operation and outcome", "op", "outcome")
	m.evaluations = m.counterVec("evaluations_total",
		"Race evaluations by race state", "completed")
	m.idempotentReplays = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "idempotent_replays_total",
		Help: "Toggle requests answered from a previously seen idempotency key",
	})
	m.openSessions = m.gauge("open_sessions", "User roster stores held in memory")

	m.repositoryOps = m.counterVec("repository_operations_total",
		"Roster repository calls by backend, operation and outcome", "backend", "op", "outcome")
	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds",
		"Roster repository call latency", "backend", "op")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause time")
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes a request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Catalog Metrics Functions.

// RecordCatalogLoad records a load attempt. Sizes and timestamp are only
// updated for successful loads.
func RecordCatalogLoad(ok bool, durationMs float64, riders, races int, unix int64) {
	if !globalManager.enabled {
		return
	}
	if !ok {
		globalManager.catalogLoads.WithLabelValues("error").Inc()
		return
	}
	globalManager.catalogLoads.WithLabelValues("ok").Inc()
	globalManager.catalogLoadDuration.Observe(durationMs)
	globalManager.catalogRiders.Set(float64(riders))
	globalManager.catalogRaces.Set(float64(races))
	globalManager.catalogLastLoadUnix.Set(float64(unix))
}

// Roster Metrics Functions.

// RecordRosterMutation counts a mutation attempt; outcome is "ok" or an error kind.
func RecordRosterMutation(op, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.rosterMutations.WithLabelValues(op, outcome).Inc()
}

// RecordEvaluation counts a race evaluation.
func RecordEvaluation(completed bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.evaluations.WithLabelValues(strconv.FormatBool(completed)).Inc()
}

// RecordIdempotentReplay counts a deduplicated toggle.
func RecordIdempotentReplay() {
	if !globalManager.enabled {
		return
	}
	globalManager.idempotentReplays.Inc()
}

// UpdateOpenSessions sets the number of cached user stores.
func UpdateOpenSessions(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.openSessions.Set(float64(count))
}

// Repository Metrics Functions.

// RecordRepositoryOperation records a repository call.
func RecordRepositoryOperation(backend, op, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.repositoryOps.WithLabelValues(backend, op, outcome).Inc()
	globalManager.repositoryLatency.WithLabelValues(backend, op).Observe(latencyMs)
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

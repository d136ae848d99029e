// Package metrics provides Prometheus metrics for the localscan lookup service.
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

// Upstream call outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Lookup metrics
	lookups            *prometheus.CounterVec
	lookupDuration     prometheus.Histogram
	lookupsInFlight    prometheus.Gauge
	charactersResolved prometheus.Counter
	charactersEnriched prometheus.Counter
	charactersDropped  prometheus.Counter
	fleetSize          prometheus.Histogram
	profiles           *prometheus.CounterVec

	// Upstream metrics
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "localscan",
		subsystem:        "lookup",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often system gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.lookups = m.counterVec("lookups_total", "Total number of lookup batches by outcome", "outcome")
	m.lookupDuration = m.histogram("lookup_duration_seconds", "Wall time of a lookup batch in seconds",
		[]float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120})
	m.lookupsInFlight = m.gauge("lookups_in_flight", "Lookup batches currently running")
	m.charactersResolved = m.counter("characters_resolved_total", "Characters resolved from submitted names")
	m.charactersEnriched = m.counter("characters_enriched_total", "Characters assembled into a record")
	m.charactersDropped = m.counter("characters_dropped_total", "Characters dropped after an assembly failure")
	m.fleetSize = m.histogram("fleet_members", "Distinct ship types in an estimated fleet composition",
		[]float64{0, 1, 2, 3, 5, 8, 13, 21})
	m.profiles = m.counterVec("profiles_total", "Narrative profile generations by outcome", "outcome")

	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Upstream API calls by service, endpoint and outcome", "service", "endpoint", "outcome")
	m.upstreamLatency = m.histogramVec("upstream_latency_seconds",
		"Upstream API call latency in seconds", "service", "endpoint")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordLookup counts a finished lookup batch and its duration.
func RecordLookup(outcome string, d time.Duration) {
	globalManager.lookups.WithLabelValues(outcome).Inc()
	globalManager.lookupDuration.Observe(d.Seconds())
}

// LookupStarted bumps the in-flight gauge; call the returned func when done.
func LookupStarted() func() {
	globalManager.lookupsInFlight.Inc()
	return globalManager.lookupsInFlight.Dec
}

// RecordCharactersResolved adds n resolved characters.
func RecordCharactersResolved(n int) {
	globalManager.charactersResolved.Add(float64(n))
}

// RecordCharacterEnriched counts one assembled record.
func RecordCharacterEnriched() {
	globalManager.charactersEnriched.Inc()
}

// RecordCharacterDropped counts one character lost to an assembly failure.
func RecordCharacterDropped() {
	globalManager.charactersDropped.Inc()
}

// RecordFleetSize observes the number of ship types in a fleet estimate.
func RecordFleetSize(n int) {
	globalManager.fleetSize.Observe(float64(n))
}

// RecordProfile counts a narrative profile attempt.
func RecordProfile(outcome string) {
	globalManager.profiles.WithLabelValues(outcome).Inc()
}

// RecordUpstream counts an upstream call and observes its latency.
func RecordUpstream(service, endpoint, outcome string, d time.Duration) {
	globalManager.upstreamRequests.WithLabelValues(service, endpoint, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(service, endpoint).Observe(d.Seconds())
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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

// DefaultRefreshInterval returns the refresh interval of the global manager.
func DefaultRefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

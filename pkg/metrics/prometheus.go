// Package metrics provides Prometheus metrics for the shangan simulation service.
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

// Probability histogram buckets, one per decile.
var probabilityBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Simulation metrics
	simulations           *prometheus.CounterVec
	simulationDuration    *prometheus.HistogramVec
	promotionProbability  *prometheus.HistogramVec
	samplesDrawn          *prometheus.CounterVec
	samplesAccepted       *prometheus.CounterVec
	invalidRequests       *prometheus.CounterVec
	simulationsInProgress prometheus.Gauge

	// Queue metrics
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueRejections *prometheus.CounterVec
	queueWait       prometheus.Histogram

	// Worker metrics
	workerCount prometheus.Gauge
	workerBusy  prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shangan",
		subsystem:        "simulator",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.simulations = m.counterVec("simulations_total",
		"Completed simulations by exam type and outcome", "exam", "outcome")
	m.simulationDuration = m.histogramVec("simulation_duration_milliseconds",
		"Wall time of one simulation run in milliseconds", m.histogramBuckets, "exam")
	m.promotionProbability = m.histogramVec("promotion_probability",
		"Distribution of estimated promotion probabilities", probabilityBuckets, "exam")
	m.samplesDrawn = m.counterVec("samples_drawn_total",
		"Normal draws requested while filling pools", "kind")
	m.samplesAccepted = m.counterVec("samples_accepted_total",
		"Draws kept after truncation", "kind")
	m.invalidRequests = m.counterVec("invalid_requests_total",
		"Requests rejected by parameter validation", "field")
	m.simulationsInProgress = m.gauge("simulations_in_progress",
		"Simulations currently executing")

	m.queueSize = m.gauge("queue_size", "Current number of queued simulation jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued simulation jobs")
	m.queueRejections = m.counterVec("queue_rejections_total",
		"Jobs refused by the queue", "reason")
	m.queueWait = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_wait_milliseconds",
		Help:        "Time a job spent queued before a worker picked it up",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.workerCount = m.gauge("worker_count", "Number of simulation workers")
	m.workerBusy = m.gauge("worker_busy", "Number of workers running a job")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordSimulation records a finished simulation.
func (m *Manager) RecordSimulation(exam string, promoted bool, probability float64, took time.Duration) {
	if !m.enabled {
		return
	}
	outcome := "not_promoted"
	if promoted {
		outcome = "promoted"
	}
	m.simulations.WithLabelValues(exam, outcome).Inc()
	m.simulationDuration.WithLabelValues(exam).Observe(float64(took.Milliseconds()))
	m.promotionProbability.WithLabelValues(exam).Observe(probability)
}

// RecordSampling records pool filling effort for kind ("written" or "interview").
func (m *Manager) RecordSampling(kind string, drawn, accepted int) {
	if !m.enabled || drawn == 0 {
		return
	}
	m.samplesDrawn.WithLabelValues(kind).Add(float64(drawn))
	m.samplesAccepted.WithLabelValues(kind).Add(float64(accepted))
}

// RecordInvalidRequest counts a validation failure on field.
func (m *Manager) RecordInvalidRequest(field string) {
	if m.enabled {
		m.invalidRequests.WithLabelValues(field).Inc()
	}
}

// Registry returns the registerer backing m.
func (m *Manager) Registry() prometheus.Registerer { return m.registry }

// Package-level helpers operate on the global manager.

// RecordSimulation records a finished simulation.
func RecordSimulation(exam string, promoted bool, probability float64, took time.Duration) {
	globalManager.RecordSimulation(exam, promoted, probability, took)
}

// RecordSampling records pool filling effort.
func RecordSampling(kind string, drawn, accepted int) {
	globalManager.RecordSampling(kind, drawn, accepted)
}

// RecordInvalidRequest counts a validation failure.
func RecordInvalidRequest(field string) {
	globalManager.RecordInvalidRequest(field)
}

// SimulationStarted increments the in-progress gauge.
func SimulationStarted() { globalManager.simulationsInProgress.Inc() }

// SimulationFinished decrements the in-progress gauge.
func SimulationFinished() { globalManager.simulationsInProgress.Dec() }

// UpdateQueueSize sets the queue length gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejection counts a refused enqueue.
func RecordQueueRejection(reason string) {
	globalManager.queueRejections.WithLabelValues(reason).Inc()
}

// RecordQueueWait observes how long a job waited before running.
func RecordQueueWait(latencyMs float64) { globalManager.queueWait.Observe(latencyMs) }

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// WorkerBusy marks one more worker as running a job.
func WorkerBusy() { globalManager.workerBusy.Inc() }

// WorkerIdle marks one worker as idle again.
func WorkerIdle() { globalManager.workerBusy.Dec() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Gatherer returns m's registry as a Gatherer when it is one.
func (m *Manager) Gatherer() (prometheus.Gatherer, error) {
	g, ok := m.registry.(prometheus.Gatherer)
	if !ok {
		return nil, ErrNoGatherer
	}
	return g, nil
}

// RefreshInterval is how often gauge refreshers should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval is the global manager's gauge refresh interval.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

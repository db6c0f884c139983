package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parlab/sumforge/internal/jobs"
	"github.com/parlab/sumforge/internal/sysmon"
)

const metricsNamespace = "sumforge"

// Prometheus collectors are global singletons on the default registry;
// registration happens once regardless of how many Metrics values exist
// (tests construct several).
var (
	registerOnce sync.Once

	activeRequests  prometheus.Gauge
	requestsTotal   prometheus.Counter
	requestDuration prometheus.Histogram
	jobsTotal       *prometheus.CounterVec
	jobDuration     prometheus.Histogram
	jobElements     prometheus.Counter
	systemCPU       prometheus.Gauge
	systemMem       prometheus.Gauge
)

func registerCollectors() {
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "active_requests",
		Help:      "Number of HTTP requests currently in flight.",
	})
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "requests_total",
		Help:      "Total number of HTTP requests served.",
	})
	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency distribution.",
		Buckets:   prometheus.DefBuckets,
	})
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "jobs_total",
		Help:      "Total number of compute jobs by terminal status.",
	}, []string{"status"})
	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "job_duration_seconds",
		Help:      "Compute job duration distribution.",
		Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
	})
	jobElements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "job_elements_total",
		Help:      "Total number of elements processed across all jobs.",
	})
	systemCPU = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "system_cpu_percent",
		Help:      "System-wide CPU utilization percentage.",
	})
	systemMem = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "system_memory_percent",
		Help:      "System-wide memory utilization percentage.",
	})
}

// Metrics exposes the service's Prometheus instrumentation. It also
// implements jobs.Observer so the orchestrator reports job lifecycle events
// without depending on this package.
type Metrics struct {
	handler http.Handler
}

// NewMetrics creates the Metrics facade, registering the collectors on
// first use.
func NewMetrics() *Metrics {
	registerOnce.Do(registerCollectors)
	return &Metrics{handler: promhttp.Handler()}
}

// IncrementActiveRequests marks one more request in flight.
func (m *Metrics) IncrementActiveRequests() {
	activeRequests.Inc()
	requestsTotal.Inc()
}

// DecrementActiveRequests marks one request finished.
func (m *Metrics) DecrementActiveRequests() {
	activeRequests.Dec()
}

// ObserveRequestDuration records one request's wall-clock latency.
func (m *Metrics) ObserveRequestDuration(d time.Duration) {
	requestDuration.Observe(d.Seconds())
}

// JobStarted implements jobs.Observer.
func (m *Metrics) JobStarted(size uint64) {}

// JobFinished implements jobs.Observer.
func (m *Metrics) JobFinished(status jobs.Status, elapsed time.Duration, elements uint64) {
	jobsTotal.WithLabelValues(string(status)).Inc()
	jobDuration.Observe(elapsed.Seconds())
	jobElements.Add(float64(elements))
}

// SetSystemStats publishes a sysmon snapshot to the resource gauges.
func (m *Metrics) SetSystemStats(s sysmon.Stats) {
	systemCPU.Set(s.CPUPercent)
	systemMem.Set(s.MemPercent)
}

// WritePrometheus serves the metrics exposition endpoint.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

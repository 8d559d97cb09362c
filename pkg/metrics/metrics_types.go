package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the radar
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Engine Metrics
	EnginePassesTotal   *prometheus.CounterVec
	EnginePassDuration  prometheus.Histogram
	EngineLastPassTime  prometheus.Gauge
	GraphNodes          *prometheus.GaugeVec
	GraphEdges          prometheus.Gauge
	GraphPrunedTotal    *prometheus.CounterVec
	ApplicationRisk     *prometheus.GaugeVec
	ComponentLifecycles *prometheus.GaugeVec

	// Retrieval Metrics
	RetrievalFactSheetsTotal *prometheus.CounterVec
	RetrievalPagesTotal      *prometheus.CounterVec
	RetrievalDuration        *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initEngineMetrics()
	r.initRetrievalMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.EnginePassesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_engine_passes_total",
			Help: "Total number of recompute passes",
		},
		[]string{"status"},
	)

	r.EnginePassDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "radar_engine_pass_duration_seconds",
			Help:    "Duration of one full recompute pass in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.EngineLastPassTime = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "radar_engine_last_success_timestamp_seconds",
			Help: "Unix time of the last successful pass",
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "radar_graph_nodes",
			Help: "Nodes in the last published graph",
		},
		[]string{"kind"},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "radar_graph_edges",
			Help: "Edges in the last published graph",
		},
	)

	r.GraphPrunedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_graph_pruned_total",
			Help: "Graph elements dropped by passes, by reason",
		},
		[]string{"reason"},
	)

	r.ApplicationRisk = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "radar_application_risk",
			Help: "Applications per aggregated obsolescence risk in the last published graph",
		},
		[]string{"risk"},
	)

	r.ComponentLifecycles = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "radar_it_component_lifecycle",
			Help: "IT Components per aggregated lifecycle phase in the last published graph",
		},
		[]string{"phase"},
	)
}

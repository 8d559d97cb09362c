package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRetrievalMetrics() {
	r.RetrievalFactSheetsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_retrieval_factsheets_total",
			Help: "Fact sheets downloaded from the workspace",
		},
		[]string{"type"},
	)

	r.RetrievalPagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_retrieval_pages_total",
			Help: "Result pages fetched from the workspace",
		},
		[]string{"type"},
	)

	r.RetrievalDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_retrieval_duration_seconds",
			Help:    "Time to download all fact sheets of one type",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"type"},
	)
}

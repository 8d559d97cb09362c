package metrics

import (
	"context"
	"runtime"
	"time"
)

// Pass status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordHTTPRequest records a served HTTP request
func (r *Registry) RecordHTTPRequest(method, path, code string, duration time.Duration, size int) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	r.HTTPResponseSizeBytes.WithLabelValues(path).Observe(float64(size))
}

// RecordPass records one recompute pass
func (r *Registry) RecordPass(status string, duration time.Duration) {
	r.EnginePassesTotal.WithLabelValues(status).Inc()
	r.EnginePassDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		r.EngineLastPassTime.SetToCurrentTime()
	}
}

// RecordPruned adds n to the count of elements dropped for reason
func (r *Registry) RecordPruned(reason string, n int) {
	if n <= 0 {
		return
	}
	r.GraphPrunedTotal.WithLabelValues(reason).Add(float64(n))
}

// GraphSnapshot describes the shape of a published graph.
type GraphSnapshot struct {
	Nodes      map[string]int // by node kind
	Edges      int
	Risks      map[string]int // Applications by risk key
	Lifecycles map[string]int // IT Components by aggregated phase key
}

// ObserveGraph replaces the graph gauges with the values of s. Labels absent
// from s are removed so stale risks do not linger.
func (r *Registry) ObserveGraph(s GraphSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.GraphNodes.Reset()
	for kind, n := range s.Nodes {
		r.GraphNodes.WithLabelValues(kind).Set(float64(n))
	}
	r.GraphEdges.Set(float64(s.Edges))

	r.ApplicationRisk.Reset()
	for risk, n := range s.Risks {
		r.ApplicationRisk.WithLabelValues(risk).Set(float64(n))
	}

	r.ComponentLifecycles.Reset()
	for phase, n := range s.Lifecycles {
		r.ComponentLifecycles.WithLabelValues(phase).Set(float64(n))
	}
}

// RecordRetrievalPage records one downloaded page of fact sheets
func (r *Registry) RecordRetrievalPage(factSheetType string, count int) {
	r.RetrievalPagesTotal.WithLabelValues(factSheetType).Inc()
	r.RetrievalFactSheetsTotal.WithLabelValues(factSheetType).Add(float64(count))
}

// RecordRetrieval records the time taken to download every page of one type
func (r *Registry) RecordRetrieval(factSheetType string, duration time.Duration) {
	r.RetrievalDuration.WithLabelValues(factSheetType).Observe(duration.Seconds())
}

// UpdateSystemMetrics samples uptime and Go runtime statistics
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// RunSystemCollector samples system metrics every interval until ctx is done
func (r *Registry) RunSystemCollector(ctx context.Context, start time.Time, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.UpdateSystemMetrics(start)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.UpdateSystemMetrics(start)
		}
	}
}

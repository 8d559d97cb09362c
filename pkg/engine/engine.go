package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/metrics"
)

// Result is one published pass.
type Result struct {
	RunID      string
	RefDate    int
	Graph      *graph.Graph
	Stats      Stats
	ComputedAt time.Time
	Duration   time.Duration
}

// ApplicationRisk is the resolved risk of one Application.
type ApplicationRisk struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Risk  string `json:"risk"`
}

// ComponentLifecycle is the resolved lifecycle of one IT Component.
type ComponentLifecycle struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Lifecycle           string `json:"lifecycle"`
	AggregatedLifecycle string `json:"aggregatedLifecycle"`
}

// ApplicationRisks lists the Applications of the result sorted by id.
func (r *Result) ApplicationRisks() []ApplicationRisk {
	apps := r.Graph.Applications()
	out := make([]ApplicationRisk, 0, len(apps))
	for _, a := range apps {
		out = append(out, ApplicationRisk{ID: a.ID, Name: a.Name, Level: a.Level, Risk: a.AggregatedObsolescenceRiskKey})
	}
	return out
}

// ComponentLifecycles lists the IT Components of the result sorted by id.
func (r *Result) ComponentLifecycles() []ComponentLifecycle {
	comps := r.Graph.ITComponents()
	out := make([]ComponentLifecycle, 0, len(comps))
	for _, c := range comps {
		out = append(out, ComponentLifecycle{ID: c.ID, Name: c.Name, Lifecycle: c.LifecycleKey, AggregatedLifecycle: c.AggregatedLifecycleKey})
	}
	return out
}

// Snapshot summarizes the result for the graph gauges.
func (r *Result) Snapshot() metrics.GraphSnapshot {
	apps, comps, edges := r.Graph.Counts()
	s := metrics.GraphSnapshot{
		Nodes: map[string]int{
			string(factsheet.KindApplication): apps,
			string(factsheet.KindITComponent): comps,
		},
		Edges:      edges,
		Risks:      make(map[string]int),
		Lifecycles: make(map[string]int),
	}
	for _, a := range r.ApplicationRisks() {
		s.Risks[a.Risk]++
	}
	for _, c := range r.ComponentLifecycles() {
		s.Lifecycles[c.AggregatedLifecycle]++
	}
	return s
}

// Engine runs passes with logging and metrics around the pure pipeline.
type Engine struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates an engine. A nil logger discards output and a nil registry
// disables metrics.
func New(logger logging.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		logger:  logger.With(logging.Component("engine")),
		metrics: reg,
	}
}

// Compute runs one pass over g. On error no partial result is returned.
func (e *Engine) Compute(g *graph.Graph, refDate int, visible map[string]struct{}) (*Result, error) {
	runID := uuid.NewString()
	log := e.logger.With(logging.RunID(runID), logging.RefDate(refDate))
	timer := logging.StartTimer(log, "pass computed")
	start := time.Now()

	out, stats, err := Run(g, refDate, visible)
	elapsed := time.Since(start)
	if err != nil {
		timer.EndError(err)
		if e.metrics != nil {
			e.metrics.RecordPass(metrics.StatusError, elapsed)
		}
		return nil, fmt.Errorf("pass %s: %w", runID, err)
	}

	res := &Result{
		RunID:      runID,
		RefDate:    refDate,
		Graph:      out,
		Stats:      stats,
		ComputedAt: start,
		Duration:   elapsed,
	}

	log.Debug("pass decisions",
		logging.Int("edges_kept", stats.Filter.EdgesKept),
		logging.Int("edges_expired", stats.Filter.EdgesExpired),
		logging.Int("components_untouched", stats.Filter.ITComponentsDropped),
		logging.Int("components_orphaned", stats.Lifecycle.OrphanComponents),
		logging.Int("edges_orphaned", stats.Lifecycle.OrphanEdges),
		logging.Int("components_in_cycle", stats.Lifecycle.ComponentsInCycle),
		logging.Int("applications_hidden", stats.HiddenApplications),
		logging.Int("components_hidden", stats.HiddenITComponents),
	)
	apps, comps, edges := out.Counts()
	timer.End()
	log.Info("pass summary",
		logging.Int("applications", apps),
		logging.Int("it_components", comps),
		logging.Int("edges", edges),
	)

	if e.metrics != nil {
		e.metrics.RecordPass(metrics.StatusSuccess, elapsed)
		e.metrics.RecordPruned("expired_edge", stats.Filter.EdgesExpired)
		e.metrics.RecordPruned("untouched_component", stats.Filter.ITComponentsDropped)
		e.metrics.RecordPruned("orphan_component", stats.Lifecycle.OrphanComponents)
		e.metrics.RecordPruned("hidden_application", stats.HiddenApplications)
		e.metrics.RecordPruned("hidden_component", stats.HiddenITComponents)
		e.metrics.ObserveGraph(res.Snapshot())
	}
	return res, nil
}

package lifecycle

import (
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
)

// Stats summarizes one aggregation pass.
type Stats struct {
	Components        int // components aggregated
	OrphanComponents  int // components dropped as unreachable from any Application
	OrphanEdges       int // edges dropped with them
	LargestClosure    int
	ComponentsInCycle int // components whose closure contains themselves
}

// Aggregate resolves the own and aggregated lifecycle phase of every IT
// Component in g, writing them onto the nodes, then drops components that no
// Application reaches. g must be a filtered snapshot owned by the caller.
//
// Pass 1 computes each component's own phase and dependency closure. Pass 2
// folds the own phases of the closure into the aggregated phase. Only own
// phases are consulted transitively, so no topological order is needed.
func Aggregate(g *graph.Graph, refDate int) (Stats, error) {
	var stats Stats

	components := g.ITComponents()
	own := make(map[string]factsheet.Phase, len(components))
	closures := make(map[string][]string, len(components))

	for _, c := range components {
		p := OwnPhase(c, refDate)
		c.SetLifecycle(p)
		own[c.ID] = p

		deps, err := Closure(g, c.ID)
		if err != nil {
			return stats, err
		}
		closures[c.ID] = deps
		if len(deps) > stats.LargestClosure {
			stats.LargestClosure = len(deps)
		}
	}

	for _, c := range components {
		agg := own[c.ID]
		for _, dep := range closures[c.ID] {
			p, ok := own[dep]
			if !ok || !p.Valid() {
				return stats, graph.NewError("aggregate").Node(c.ID).Ref(dep).
					Cause(graph.ErrAggregationInconsistency).Err()
			}
			if dep == c.ID {
				stats.ComponentsInCycle++
			}
			agg = factsheet.WorsePhase(agg, p)
		}
		c.SetAggregatedLifecycle(agg)
	}
	stats.Components = len(components)

	orphans, edges := pruneUnreachable(g, closures)
	stats.OrphanComponents = orphans
	stats.OrphanEdges = edges
	return stats, nil
}

// pruneUnreachable removes IT Components not reachable from any
// Application's IT component relations, and the edges that pointed at them.
func pruneUnreachable(g *graph.Graph, closures map[string][]string) (components, edges int) {
	reachable := make(map[string]bool)
	for _, app := range g.Applications() {
		for _, r := range app.ITComponents {
			if _, ok := g.ITComponent(r.FactSheetID); !ok {
				// unresolved references are reported by the roll-up
				continue
			}
			reachable[r.FactSheetID] = true
			for _, dep := range closures[r.FactSheetID] {
				reachable[dep] = true
			}
		}
	}

	orphans := make(map[string]struct{})
	for _, c := range g.ITComponents() {
		if !reachable[c.ID] {
			orphans[c.ID] = struct{}{}
		}
	}
	return len(orphans), g.RemoveNodes(orphans)
}

package graph

import (
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
)

// ActiveAt reports whether a validity window contains refDate. Nil bounds
// are unbounded and both bounds are inclusive.
func ActiveAt(activeFrom, activeUntil *int, refDate int) bool {
	if activeFrom != nil && refDate < *activeFrom {
		return false
	}
	if activeUntil != nil && refDate > *activeUntil {
		return false
	}
	return true
}

// FilterStats records the decisions a temporal filter pass made.
type FilterStats struct {
	EdgesKept           int
	EdgesExpired        int
	ITComponentsKept    int
	ITComponentsDropped int
}

// FilterAt returns the point-in-time subgraph valid at refDate.
//
// Edges are kept iff their window contains refDate. Applications are always
// kept; IT Components only when a surviving edge touches them. Kept nodes
// are shallow copies whose relation lists only reference surviving edges,
// so the input graph is never mutated. A surviving edge whose endpoint is
// not a node is reported as ErrDanglingEdge.
func FilterAt(g *Graph, refDate int) (*Graph, FilterStats, error) {
	var stats FilterStats
	out := New()

	touched := make(map[string]bool)
	for _, e := range g.SortedEdges() {
		if !ActiveAt(e.ActiveFrom, e.ActiveUntil, refDate) {
			stats.EdgesExpired++
			continue
		}
		out.Edges[e.ID] = e
		touched[e.Source] = true
		touched[e.Target] = true
	}
	stats.EdgesKept = len(out.Edges)

	for id, n := range g.Nodes {
		switch n.Kind {
		case factsheet.KindApplication:
			out.Nodes[id] = ApplicationNode(copyApplication(n.Application, out.Edges))
		case factsheet.KindITComponent:
			if !touched[id] {
				stats.ITComponentsDropped++
				continue
			}
			out.Nodes[id] = ITComponentNode(copyITComponent(n.ITComponent, out.Edges))
			stats.ITComponentsKept++
		default:
			return nil, stats, NewError("filter").Node(id).Detail("kind %q", n.Kind).Cause(ErrLookup).Err()
		}
	}

	for _, e := range out.SortedEdges() {
		if _, ok := out.Nodes[e.Source]; !ok {
			return nil, stats, DanglingEdgeError("filter", e.ID, e.Source)
		}
		if _, ok := out.Nodes[e.Target]; !ok {
			return nil, stats, DanglingEdgeError("filter", e.ID, e.Target)
		}
	}

	return out, stats, nil
}

func copyApplication(a *factsheet.Application, edges map[string]*Edge) *factsheet.Application {
	cp := *a
	cp.Children = keepRelations(a.ID, a.Children, edges)
	cp.ITComponents = make([]factsheet.RelatedITComponent, 0, len(a.ITComponents))
	for _, rel := range a.ITComponents {
		if survived(a.ID, rel.RelatedFactSheet, edges) {
			cp.ITComponents = append(cp.ITComponents, rel)
		}
	}
	cp.AggregatedObsolescenceRisk = nil
	cp.AggregatedObsolescenceRiskKey = ""
	return &cp
}

func copyITComponent(c *factsheet.ITComponent, edges map[string]*Edge) *factsheet.ITComponent {
	cp := *c
	cp.Children = keepRelations(c.ID, c.Children, edges)
	cp.Requires = keepRelations(c.ID, c.Requires, edges)
	cp.Lifecycle, cp.LifecycleKey = nil, ""
	cp.AggregatedLifecycle, cp.AggregatedLifecycleKey = nil, ""
	return &cp
}

func keepRelations(ownerID string, rels []factsheet.RelatedFactSheet, edges map[string]*Edge) []factsheet.RelatedFactSheet {
	out := make([]factsheet.RelatedFactSheet, 0, len(rels))
	for _, rel := range rels {
		if survived(ownerID, rel, edges) {
			out = append(out, rel)
		}
	}
	return out
}

// survived reports whether the relation's own edge is among the kept edges.
// An edge id reused by another relation does not count.
func survived(ownerID string, rel factsheet.RelatedFactSheet, edges map[string]*Edge) bool {
	e, ok := edges[rel.ID]
	return ok && e.Source == rel.FactSheetID && e.Target == ownerID
}

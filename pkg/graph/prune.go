package graph

import "github.com/dd0wney/obsolescence-radar/pkg/factsheet"

// RemoveNodes deletes the nodes in ids and every edge touching them, then
// drops relations of the remaining nodes whose edge is gone. It returns the
// number of edges removed. Remaining nodes are rewritten in place, so g must
// be a snapshot owned by the caller.
func (g *Graph) RemoveNodes(ids map[string]struct{}) int {
	if len(ids) == 0 {
		return 0
	}
	for id := range ids {
		delete(g.Nodes, id)
	}

	removed := 0
	for id, e := range g.Edges {
		_, srcOK := g.Nodes[e.Source]
		_, dstOK := g.Nodes[e.Target]
		if !srcOK || !dstOK {
			delete(g.Edges, id)
			removed++
		}
	}
	if removed == 0 {
		return 0
	}

	for _, n := range g.Nodes {
		switch n.Kind {
		case factsheet.KindApplication:
			a := n.Application
			a.Children = keepRelations(a.ID, a.Children, g.Edges)
			its := make([]factsheet.RelatedITComponent, 0, len(a.ITComponents))
			for _, rel := range a.ITComponents {
				if survived(a.ID, rel.RelatedFactSheet, g.Edges) {
					its = append(its, rel)
				}
			}
			a.ITComponents = its
		case factsheet.KindITComponent:
			c := n.ITComponent
			c.Children = keepRelations(c.ID, c.Children, g.Edges)
			c.Requires = keepRelations(c.ID, c.Requires, g.Edges)
		default:
			panic("graph: unknown node kind " + string(n.Kind))
		}
	}
	return removed
}

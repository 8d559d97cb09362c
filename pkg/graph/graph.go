package graph

import (
	"fmt"
	"sort"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
)

// EdgeType names the relation an edge was built from.
type EdgeType string

const (
	EdgeChild                    EdgeType = "relToChild"
	EdgeRequires                 EdgeType = "relToRequires"
	EdgeApplicationToITComponent EdgeType = "relApplicationToITComponent"
)

// Node is a tagged union of the two fact sheet kinds. Exactly one of
// Application and ITComponent is set, selected by Kind.
type Node struct {
	Kind        factsheet.Kind
	Application *factsheet.Application
	ITComponent *factsheet.ITComponent
}

// ApplicationNode wraps an Application.
func ApplicationNode(a *factsheet.Application) *Node {
	return &Node{Kind: factsheet.KindApplication, Application: a}
}

// ITComponentNode wraps an IT Component.
func ITComponentNode(c *factsheet.ITComponent) *Node {
	return &Node{Kind: factsheet.KindITComponent, ITComponent: c}
}

// FactSheet returns the shared fact sheet fields.
func (n *Node) FactSheet() *factsheet.FactSheet {
	switch n.Kind {
	case factsheet.KindApplication:
		return &n.Application.FactSheet
	case factsheet.KindITComponent:
		return &n.ITComponent.FactSheet
	default:
		panic(fmt.Sprintf("graph: unknown node kind %q", n.Kind))
	}
}

// ID returns the fact sheet id.
func (n *Node) ID() string {
	return n.FactSheet().ID
}

// Edge is a relation between two nodes. Source is the related or child side,
// Target the owning node.
type Edge struct {
	ID                     string               `json:"id"`
	Type                   EdgeType             `json:"type"`
	Source                 string               `json:"source"`
	Target                 string               `json:"target"`
	ActiveFrom             *int                 `json:"activeFrom"`
	ActiveUntil            *int                 `json:"activeUntil"`
	ObsolescenceRiskStatus factsheet.RiskStatus `json:"obsolescenceRiskStatus,omitempty"`
}

// Graph holds nodes and edges indexed by id.
type Graph struct {
	Nodes map[string]*Node
	Edges map[string]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
	}
}

// AddNode registers a node, replacing any node with the same id.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID()] = n
}

// AddEdge registers an edge. A duplicate id overwrites the earlier edge.
func (g *Graph) AddEdge(e *Edge) {
	g.Edges[e.ID] = e
}

// Application returns the Application with the given id, if any.
func (g *Graph) Application(id string) (*factsheet.Application, bool) {
	n, ok := g.Nodes[id]
	if !ok || n.Kind != factsheet.KindApplication {
		return nil, false
	}
	return n.Application, true
}

// ITComponent returns the IT Component with the given id, if any.
func (g *Graph) ITComponent(id string) (*factsheet.ITComponent, bool) {
	n, ok := g.Nodes[id]
	if !ok || n.Kind != factsheet.KindITComponent {
		return nil, false
	}
	return n.ITComponent, true
}

// Applications returns every Application sorted by id.
func (g *Graph) Applications() []*factsheet.Application {
	apps := make([]*factsheet.Application, 0)
	for _, id := range g.sortedNodeIDs() {
		if n := g.Nodes[id]; n.Kind == factsheet.KindApplication {
			apps = append(apps, n.Application)
		}
	}
	return apps
}

// ITComponents returns every IT Component sorted by id.
func (g *Graph) ITComponents() []*factsheet.ITComponent {
	comps := make([]*factsheet.ITComponent, 0)
	for _, id := range g.sortedNodeIDs() {
		if n := g.Nodes[id]; n.Kind == factsheet.KindITComponent {
			comps = append(comps, n.ITComponent)
		}
	}
	return comps
}

// SortedEdges returns every edge sorted by id.
func (g *Graph) SortedEdges() []*Edge {
	edges := make([]*Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// Counts returns the number of Applications, IT Components and edges.
func (g *Graph) Counts() (applications, itComponents, edges int) {
	for _, n := range g.Nodes {
		switch n.Kind {
		case factsheet.KindApplication:
			applications++
		case factsheet.KindITComponent:
			itComponents++
		}
	}
	return applications, itComponents, len(g.Edges)
}

// Validate reports the first edge, in id order, whose endpoint is not a node.
func (g *Graph) Validate() error {
	for _, e := range g.SortedEdges() {
		if _, ok := g.Nodes[e.Source]; !ok {
			return DanglingEdgeError("validate", e.ID, e.Source)
		}
		if _, ok := g.Nodes[e.Target]; !ok {
			return DanglingEdgeError("validate", e.ID, e.Target)
		}
	}
	return nil
}

func (g *Graph) sortedNodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

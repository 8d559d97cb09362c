package graph

import (
	"sort"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
)

// Build assembles a graph from id-indexed Applications and IT Components.
// Every relation becomes one edge pointing from the related fact sheet to
// its owner. Relation ids are edge ids; a duplicate id overwrites silently.
// Entities are visited in id order so overwrites are deterministic.
func Build(applications map[string]*factsheet.Application, itComponents map[string]*factsheet.ITComponent) *Graph {
	g := New()

	for _, id := range sortedKeys(applications) {
		app := applications[id]
		g.AddNode(ApplicationNode(app))
		for _, child := range app.Children {
			g.AddEdge(relationEdge(EdgeChild, app.ID, child))
		}
		for _, rel := range app.ITComponents {
			e := relationEdge(EdgeApplicationToITComponent, app.ID, rel.RelatedFactSheet)
			e.ObsolescenceRiskStatus = rel.ObsolescenceRiskStatus
			g.AddEdge(e)
		}
	}

	for _, id := range sortedKeys(itComponents) {
		comp := itComponents[id]
		g.AddNode(ITComponentNode(comp))
		for _, child := range comp.Children {
			g.AddEdge(relationEdge(EdgeChild, comp.ID, child))
		}
		for _, req := range comp.Requires {
			g.AddEdge(relationEdge(EdgeRequires, comp.ID, req))
		}
	}

	return g
}

func relationEdge(typ EdgeType, ownerID string, rel factsheet.RelatedFactSheet) *Edge {
	return &Edge{
		ID:          rel.ID,
		Type:        typ,
		Source:      rel.FactSheetID,
		Target:      ownerID,
		ActiveFrom:  rel.ActiveFrom,
		ActiveUntil: rel.ActiveUntil,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildInventory builds the graph of a retrieved inventory.
func BuildInventory(inv *factsheet.Inventory) *Graph {
	return Build(inv.Applications, inv.ITComponents)
}

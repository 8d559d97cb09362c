package graph

import "testing"

func TestRemoveNodes(t *testing.T) {
	g := sampleGraph()

	removed := g.RemoveNodes(map[string]struct{}{"app-2": {}, "itc-3": {}})

	// r-c1 (app-2 -> app-1), r-i2 (itc-2 -> app-2), r-q1 (itc-3 -> itc-2)
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if _, ok := g.Edges["r-i1"]; !ok {
		t.Error("r-i1 should remain")
	}
	app1, _ := g.Application("app-1")
	if len(app1.Children) != 0 {
		t.Errorf("app-1 children = %v, want none", app1.Children)
	}
	if len(app1.ITComponents) != 1 {
		t.Errorf("app-1 itComponents = %v, want r-i1 only", app1.ITComponents)
	}
	itc2, _ := g.ITComponent("itc-2")
	if len(itc2.Requires) != 0 {
		t.Errorf("itc-2 requires = %v, want none", itc2.Requires)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after RemoveNodes = %v", err)
	}
}

func TestRemoveNodes_Empty(t *testing.T) {
	g := sampleGraph()
	before := len(g.Edges)
	if removed := g.RemoveNodes(nil); removed != 0 || len(g.Edges) != before {
		t.Errorf("RemoveNodes(nil) changed the graph")
	}
}

func TestRemoveNodes_UnrelatedNode(t *testing.T) {
	g := sampleGraph()
	if removed := g.RemoveNodes(map[string]struct{}{"itc-4": {}}); removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, ok := g.Nodes["itc-4"]; ok {
		t.Error("itc-4 should be gone")
	}
	if _, ok := g.Nodes["itc-1"]; !ok {
		t.Error("itc-1 should remain")
	}
}

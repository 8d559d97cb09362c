package lifecycle

import (
	"sort"

	"github.com/dd0wney/obsolescence-radar/pkg/graph"
)

// Closure returns the ids of every IT Component reachable from componentID
// through children and requires relations, sorted. The component itself is
// included only when a cycle leads back to it.
//
// Traversal is an iterative DFS with an explicit visited set, so cycles
// terminate and a dependency reachable through several paths is resolved once.
func Closure(g *graph.Graph, componentID string) ([]string, error) {
	root, ok := g.ITComponent(componentID)
	if !ok {
		return nil, graph.MissingDependencyError(componentID, componentID)
	}

	visited := make(map[string]bool)
	stack := make([]string, 0)
	for _, dep := range root.Dependencies() {
		stack = append(stack, dep.FactSheetID)
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}

		comp, ok := g.ITComponent(current)
		if !ok {
			if _, exists := g.Nodes[current]; exists {
				return nil, graph.NewError("aggregate").Node(componentID).Ref(current).
					Detail("not an IT component").Cause(graph.ErrMissingDependency).Err()
			}
			return nil, graph.MissingDependencyError(componentID, current)
		}
		visited[current] = true

		for _, dep := range comp.Dependencies() {
			if !visited[dep.FactSheetID] {
				stack = append(stack, dep.FactSheetID)
			}
		}
	}

	ids := make([]string, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

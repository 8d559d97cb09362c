// Package engine runs the obsolescence pipeline over an inventory graph and
// holds the application state that triggers recomputation.
package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/lifecycle"
	"github.com/dd0wney/obsolescence-radar/pkg/risk"
)

// Stats collects the decisions taken by every stage of one pass.
type Stats struct {
	Filter    graph.FilterStats
	Lifecycle lifecycle.Stats
	Risk      risk.Stats

	HiddenApplications int // outside the visible set
	HiddenITComponents int // not reachable from a visible Application
	HiddenEdges        int
}

// Run computes the point-in-time view of g at refDate. g is not modified.
// visible restricts the Applications in the output; nil keeps all of them.
// Hidden Applications still take part in the roll-up of their parents.
func Run(g *graph.Graph, refDate int, visible map[string]struct{}) (*graph.Graph, Stats, error) {
	var stats Stats

	if g == nil {
		return nil, stats, ErrNoGraph
	}
	if !ValidRefDate(refDate) {
		return nil, stats, fmt.Errorf("%w: %d", ErrInvalidRefDate, refDate)
	}
	if err := g.Validate(); err != nil {
		return nil, stats, err
	}

	out, fs, err := graph.FilterAt(g, refDate)
	if err != nil {
		return nil, stats, err
	}
	stats.Filter = fs

	ls, err := lifecycle.Aggregate(out, refDate)
	if err != nil {
		return nil, stats, err
	}
	stats.Lifecycle = ls

	rs, err := risk.Rollup(out)
	if err != nil {
		return nil, stats, err
	}
	stats.Risk = rs

	if err := project(out, visible, &stats); err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// project drops Applications outside visible, then IT Components that no
// remaining Application reaches.
func project(g *graph.Graph, visible map[string]struct{}, stats *Stats) error {
	if visible == nil {
		return nil
	}

	hidden := make(map[string]struct{})
	reachable := make(map[string]struct{})
	for _, app := range g.Applications() {
		if _, ok := visible[app.ID]; !ok {
			hidden[app.ID] = struct{}{}
			stats.HiddenApplications++
			continue
		}
		for _, r := range app.ITComponents {
			reachable[r.FactSheetID] = struct{}{}
			deps, err := lifecycle.Closure(g, r.FactSheetID)
			if err != nil {
				return err
			}
			for _, dep := range deps {
				reachable[dep] = struct{}{}
			}
		}
	}
	for _, c := range g.ITComponents() {
		if _, ok := reachable[c.ID]; !ok {
			hidden[c.ID] = struct{}{}
			stats.HiddenITComponents++
		}
	}

	stats.HiddenEdges = g.RemoveNodes(hidden)
	return nil
}

// ValidRefDate reports whether d is a calendar date written as YYYYMMDD.
func ValidRefDate(d int) bool {
	if d < 10000101 || d > 99991231 {
		return false
	}
	_, err := time.Parse("20060102", strconv.Itoa(d))
	return err == nil
}

// RefDateOf converts t to a YYYYMMDD reference date.
func RefDateOf(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// ParseRefDate accepts YYYY-MM-DD or YYYYMMDD.
func ParseRefDate(s string) (int, error) {
	p := s
	d, err := factsheet.ParseDate(&p)
	if err != nil || d == nil || !ValidRefDate(*d) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRefDate, s)
	}
	return *d, nil
}

// VisibleSet builds a visible-Application set from ids. Nil ids yield a nil
// set, meaning every Application is visible; an empty non-nil slice hides
// every Application.
func VisibleSet(ids []string) map[string]struct{} {
	if ids == nil {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

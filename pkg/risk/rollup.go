// Package risk rolls IT Component lifecycles up into a worst-case
// obsolescence risk per Application.
package risk

import (
	"sort"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
)

// Stats counts Applications per resolved risk.
type Stats struct {
	Applications int
	ByRisk       map[factsheet.Risk]int
}

// Rollup resolves the obsolescence risk of every Application in g. g must
// already carry aggregated IT Component lifecycles.
//
// Applications are processed deepest level first so child risks are resolved
// before their parents. A child that has not been resolved when its parent is
// processed means the level data is inconsistent and is reported as ErrLookup.
func Rollup(g *graph.Graph) (Stats, error) {
	stats := Stats{ByRisk: make(map[factsheet.Risk]int)}

	apps := g.Applications()
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Level > apps[j].Level
	})

	resolved := make(map[string]factsheet.Risk, len(apps))
	for _, app := range apps {
		r, err := applicationRisk(g, app, resolved)
		if err != nil {
			return stats, err
		}
		app.SetRisk(r)
		resolved[app.ID] = r
		stats.ByRisk[r]++
	}
	stats.Applications = len(apps)
	return stats, nil
}

func applicationRisk(g *graph.Graph, app *factsheet.Application, resolved map[string]factsheet.Risk) (factsheet.Risk, error) {
	if len(app.ITComponents) == 0 {
		return factsheet.RiskMissingITComponent, nil
	}

	childRisk := factsheet.RiskNone
	for _, child := range app.Children {
		n, ok := g.Nodes[child.FactSheetID]
		if !ok {
			return 0, graph.LookupError(app.ID, child.FactSheetID, "child not found")
		}
		switch n.Kind {
		case factsheet.KindApplication:
			r, ok := resolved[child.FactSheetID]
			if !ok {
				return 0, graph.NewError("rollup").Node(app.ID).Ref(child.FactSheetID).
					Detail("child at level %d not resolved before parent at level %d", n.Application.Level, app.Level).
					Cause(graph.ErrLookup).Err()
			}
			childRisk = factsheet.WorseRisk(childRisk, r)
		case factsheet.KindITComponent:
			// only Application children carry a risk
		default:
			return 0, graph.LookupError(app.ID, child.FactSheetID, "unknown node kind")
		}
	}
	if childRisk == factsheet.RiskMissingITComponent {
		return factsheet.RiskMissingITComponent, nil
	}

	worst := factsheet.RiskNone
	for _, r := range app.ITComponents {
		comp, ok := g.ITComponent(r.FactSheetID)
		if !ok {
			return 0, graph.LookupError(app.ID, r.FactSheetID, "IT component not found")
		}
		if comp.AggregatedLifecycle == nil {
			return 0, graph.LookupError(app.ID, r.FactSheetID, "IT component lifecycle not aggregated")
		}
		worst = factsheet.WorseRisk(worst, RelationRisk(*comp.AggregatedLifecycle, r.ObsolescenceRiskStatus))
	}
	return worst, nil
}

// RelationRisk derives the risk one IT Component relation contributes. Any
// phase more severe than other is a risk unless the relation acknowledges it.
func RelationRisk(aggregated factsheet.Phase, status factsheet.RiskStatus) factsheet.Risk {
	if aggregated >= factsheet.PhaseOther {
		return factsheet.RiskNone
	}
	switch status {
	case factsheet.RiskStatusAccepted:
		return factsheet.RiskAccepted
	case factsheet.RiskStatusAddressed:
		return factsheet.RiskAddressed
	}
	switch aggregated {
	case factsheet.PhaseUndefined:
		return factsheet.RiskMissingLifecycle
	case factsheet.PhasePhaseOut:
		return factsheet.RiskUnaddressedPhaseOut
	default:
		return factsheet.RiskUnaddressedEndOfLife
	}
}

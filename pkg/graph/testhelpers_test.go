package graph

import (
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
)

func rel(id, target string, from, until *int) factsheet.RelatedFactSheet {
	return factsheet.RelatedFactSheet{ID: id, FactSheetID: target, ActiveFrom: from, ActiveUntil: until}
}

func newApp(id string, level int) *factsheet.Application {
	return &factsheet.Application{
		FactSheet:    factsheet.FactSheet{ID: id, Name: id, Level: level, Children: []factsheet.RelatedFactSheet{}},
		ITComponents: []factsheet.RelatedITComponent{},
	}
}

func newComp(id string) *factsheet.ITComponent {
	return &factsheet.ITComponent{
		FactSheet: factsheet.FactSheet{ID: id, Name: id, Level: 1, Children: []factsheet.RelatedFactSheet{}},
		Requires:  []factsheet.RelatedFactSheet{},
	}
}

func uses(app *factsheet.Application, id, comp string, from, until *int, status factsheet.RiskStatus) {
	app.ITComponents = append(app.ITComponents, factsheet.RelatedITComponent{
		RelatedFactSheet:       rel(id, comp, from, until),
		ObsolescenceRiskStatus: status,
	})
}

// sampleGraph builds:
//
//	app-1 --child(r-c1)--> app-2
//	app-1 --itc(r-i1, until 20201231)--> itc-1
//	app-2 --itc(r-i2)--> itc-2
//	itc-2 --requires(r-q1, from 20220101)--> itc-3
//	itc-4 (no relations)
func sampleGraph() *Graph {
	app1 := newApp("app-1", 1)
	app2 := newApp("app-2", 2)
	app1.Children = append(app1.Children, rel("r-c1", "app-2", nil, nil))
	uses(app1, "r-i1", "itc-1", nil, factsheet.Date(20201231), factsheet.RiskStatusNone)
	uses(app2, "r-i2", "itc-2", nil, nil, factsheet.RiskStatusAccepted)

	itc2 := newComp("itc-2")
	itc2.Requires = append(itc2.Requires, rel("r-q1", "itc-3", factsheet.Date(20220101), nil))

	return Build(
		map[string]*factsheet.Application{"app-1": app1, "app-2": app2},
		map[string]*factsheet.ITComponent{
			"itc-1": newComp("itc-1"),
			"itc-2": itc2,
			"itc-3": newComp("itc-3"),
			"itc-4": newComp("itc-4"),
		},
	)
}

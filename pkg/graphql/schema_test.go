package graphql

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	graphpkg "github.com/dd0wney/obsolescence-radar/pkg/graph"
)

type fakeSource struct {
	g      *graphpkg.Graph
	latest *engine.Result
	eng    *engine.Engine
}

func (s *fakeSource) Graph() *graphpkg.Graph { return s.g }
func (s *fakeSource) Latest() *engine.Result { return s.latest }
func (s *fakeSource) Engine() *engine.Engine { return s.eng }

// testInventory builds app-1 (level 1) using itc-1, with child app-2
// (level 2) using itc-2 under an accepted risk. Both components reached
// end of life before 2023.
func testInventory() *graphpkg.Graph {
	app1 := &factsheet.Application{
		FactSheet: factsheet.FactSheet{ID: "app-1", Name: "CRM", Level: 1, Children: []factsheet.RelatedFactSheet{
			{ID: "c-1-2", FactSheetID: "app-2"},
		}},
		ITComponents: []factsheet.RelatedITComponent{
			{RelatedFactSheet: factsheet.RelatedFactSheet{ID: "u-1-1", FactSheetID: "itc-1"}},
		},
	}
	app2 := &factsheet.Application{
		FactSheet: factsheet.FactSheet{ID: "app-2", Name: "CRM Portal", Level: 2, Children: []factsheet.RelatedFactSheet{}},
		ITComponents: []factsheet.RelatedITComponent{{
			RelatedFactSheet:       factsheet.RelatedFactSheet{ID: "u-2-2", FactSheetID: "itc-2", ActiveFrom: factsheet.Date(20190101)},
			ObsolescenceRiskStatus: factsheet.RiskStatusAccepted,
		}},
	}
	itc1 := &factsheet.ITComponent{
		FactSheet: factsheet.FactSheet{ID: "itc-1", Name: "Java 8", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		EOL:       factsheet.Date(20200101),
		Requires:  []factsheet.RelatedFactSheet{},
	}
	itc2 := &factsheet.ITComponent{
		FactSheet: factsheet.FactSheet{ID: "itc-2", Name: "Tomcat 7", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		EOL:       factsheet.Date(20210101),
		Requires:  []factsheet.RelatedFactSheet{},
	}
	return graphpkg.Build(
		map[string]*factsheet.Application{"app-1": app1, "app-2": app2},
		map[string]*factsheet.ITComponent{"itc-1": itc1, "itc-2": itc2},
	)
}

func testSchema(t *testing.T, src *fakeSource) graphql.Schema {
	t.Helper()
	if src.eng == nil {
		src.eng = engine.New(nil, nil)
	}
	schema, err := GenerateSchema(src)
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}
	return schema
}

func mustData(t *testing.T, result *graphql.Result) map[string]interface{} {
	t.Helper()
	if result.HasErrors() {
		t.Fatalf("query failed: %v", result.Errors)
	}
	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data type %T", result.Data)
	}
	return data
}

func TestHealthQuery(t *testing.T) {
	schema := testSchema(t, &fakeSource{})
	data := mustData(t, ExecuteQuery(context.Background(), `{ health }`, schema))
	if data["health"] != "ok" {
		t.Errorf("health = %v, want ok", data["health"])
	}
}

func TestApplicationsQuery(t *testing.T) {
	schema := testSchema(t, &fakeSource{g: testInventory()})
	data := mustData(t, ExecuteQuery(context.Background(), `{ applications { id name level } }`, schema))

	apps := data["applications"].([]interface{})
	if len(apps) != 2 {
		t.Fatalf("got %d applications, want 2", len(apps))
	}
	first := apps[0].(map[string]interface{})
	if first["id"] != "app-1" || first["name"] != "CRM" || first["level"] != 1 {
		t.Errorf("first application = %v", first)
	}
}

func TestApplicationsQuery_NoGraph(t *testing.T) {
	schema := testSchema(t, &fakeSource{})
	result := ExecuteQuery(context.Background(), `{ applications { id } }`, schema)
	if !result.HasErrors() {
		t.Fatal("expected an error without a loaded graph")
	}
}

func TestGraphQuery(t *testing.T) {
	schema := testSchema(t, &fakeSource{g: testInventory()})
	query := `query ($date: Int!) {
		graph(refDate: $date) {
			refDate
			runId
			nodes { id type aggregatedObsolescenceRisk lifecycle aggregatedLifecycle }
			edges { id type source target activeFrom activeUntil obsolescenceRiskStatus }
		}
	}`
	data := mustData(t, ExecuteQueryWithVariables(context.Background(), query, schema, map[string]any{"date": 20230101}))

	g := data["graph"].(map[string]interface{})
	if g["refDate"] != 20230101 {
		t.Errorf("refDate = %v", g["refDate"])
	}
	if g["runId"] == "" || g["runId"] == nil {
		t.Error("runId is empty")
	}

	nodes := g["nodes"].([]interface{})
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(nodes))
	}
	want := []struct {
		id, risk, lifecycle string
	}{
		{"app-1", "unaddressedEndOfLife", ""},
		{"app-2", "riskAccepted", ""},
		{"itc-1", "", "eol"},
		{"itc-2", "", "eol"},
	}
	for i, w := range want {
		n := nodes[i].(map[string]interface{})
		if n["id"] != w.id {
			t.Errorf("node %d id = %v, want %s", i, n["id"], w.id)
		}
		if w.risk != "" && n["aggregatedObsolescenceRisk"] != w.risk {
			t.Errorf("%s risk = %v, want %s", w.id, n["aggregatedObsolescenceRisk"], w.risk)
		}
		if w.risk == "" && n["aggregatedObsolescenceRisk"] != nil {
			t.Errorf("%s risk = %v, want null", w.id, n["aggregatedObsolescenceRisk"])
		}
		if w.lifecycle != "" && n["aggregatedLifecycle"] != w.lifecycle {
			t.Errorf("%s aggregatedLifecycle = %v, want %s", w.id, n["aggregatedLifecycle"], w.lifecycle)
		}
		if w.lifecycle == "" && n["lifecycle"] != nil {
			t.Errorf("%s lifecycle = %v, want null", w.id, n["lifecycle"])
		}
	}

	edges := g["edges"].([]interface{})
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}
	accepted := edges[2].(map[string]interface{})
	if accepted["id"] != "u-2-2" || accepted["obsolescenceRiskStatus"] != "riskAccepted" || accepted["activeFrom"] != 20190101 {
		t.Errorf("edge u-2-2 = %v", accepted)
	}
	if accepted["activeUntil"] != nil {
		t.Errorf("activeUntil = %v, want null", accepted["activeUntil"])
	}
}

func TestGraphQuery_VisibleApplications(t *testing.T) {
	schema := testSchema(t, &fakeSource{g: testInventory()})
	data := mustData(t, ExecuteQuery(context.Background(),
		`{ graph(refDate: 20230101, applications: ["app-2"]) { nodes { id } } }`, schema))

	nodes := data["graph"].(map[string]interface{})["nodes"].([]interface{})
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.(map[string]interface{})["id"].(string))
	}
	if len(ids) != 2 || ids[0] != "app-2" || ids[1] != "itc-2" {
		t.Errorf("nodes = %v, want [app-2 itc-2]", ids)
	}
}

func TestGraphQuery_EmptyVisibleList(t *testing.T) {
	schema := testSchema(t, &fakeSource{g: testInventory()})
	data := mustData(t, ExecuteQuery(context.Background(),
		`{ graph(refDate: 20230101, applications: []) { nodes { id } } }`, schema))

	nodes := data["graph"].(map[string]interface{})["nodes"].([]interface{})
	if len(nodes) != 0 {
		t.Errorf("got %d nodes, want none", len(nodes))
	}
}

func TestGraphQuery_InvalidRefDate(t *testing.T) {
	schema := testSchema(t, &fakeSource{g: testInventory()})
	result := ExecuteQuery(context.Background(), `{ graph(refDate: 20231301) { runId } }`, schema)
	if !result.HasErrors() {
		t.Fatal("expected an error for month 13")
	}
}

func TestLatestQuery(t *testing.T) {
	src := &fakeSource{g: testInventory()}
	schema := testSchema(t, src)

	data := mustData(t, ExecuteQuery(context.Background(), `{ latest { runId } }`, schema))
	if data["latest"] != nil {
		t.Errorf("latest = %v before any pass, want null", data["latest"])
	}

	res, err := src.eng.Compute(src.g, 20230101, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	src.latest = res

	data = mustData(t, ExecuteQuery(context.Background(), `{ latest { runId refDate } }`, schema))
	latest := data["latest"].(map[string]interface{})
	if latest["runId"] != res.RunID {
		t.Errorf("runId = %v, want %s", latest["runId"], res.RunID)
	}
}

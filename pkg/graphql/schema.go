package graphql

import (
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
)

// Source is what the schema resolves against. *engine.State implements it.
type Source interface {
	Graph() *graph.Graph
	Latest() *engine.Result
	Engine() *engine.Engine
}

// GenerateSchema builds the query schema over src.
func GenerateSchema(src Source) (graphql.Schema, error) {
	nodeType := createNodeType()
	edgeType := createEdgeType()
	graphType := createGraphType(nodeType, edgeType)
	applicationType := createApplicationType()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return "ok", nil
				},
			},
			"applications": &graphql.Field{
				Type:    graphql.NewList(applicationType),
				Resolve: createApplicationsResolver(src),
			},
			"graph": &graphql.Field{
				Type: graphType,
				Args: graphql.FieldConfigArgument{
					"refDate": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.Int),
					},
					"applications": &graphql.ArgumentConfig{
						Type: graphql.NewList(graphql.NewNonNull(graphql.ID)),
					},
				},
				Resolve: createGraphResolver(src),
			},
			"latest": &graphql.Field{
				Type: graphType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if res := src.Latest(); res != nil {
						return res, nil
					}
					return nil, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

// createApplicationType describes an inventory Application before any pass.
func createApplicationType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Application",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*factsheet.Application).ID, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*factsheet.Application).Name, nil
				},
			},
			"level": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*factsheet.Application).Level, nil
				},
			},
		},
	})
}

func createNodeType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*graph.Node).ID(), nil
				},
			},
			"type": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*graph.Node).Kind), nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*graph.Node).FactSheet().Name, nil
				},
			},
			"level": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*graph.Node).FactSheet().Level, nil
				},
			},
			// Lifecycle fields are null on Applications, risk is null on IT
			// Components.
			"lifecycle": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c := p.Source.(*graph.Node).ITComponent; c != nil && c.Lifecycle != nil {
						return c.LifecycleKey, nil
					}
					return nil, nil
				},
			},
			"aggregatedLifecycle": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c := p.Source.(*graph.Node).ITComponent; c != nil && c.AggregatedLifecycle != nil {
						return c.AggregatedLifecycleKey, nil
					}
					return nil, nil
				},
			},
			"aggregatedObsolescenceRisk": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if a := p.Source.(*graph.Node).Application; a != nil && a.AggregatedObsolescenceRisk != nil {
						return a.AggregatedObsolescenceRiskKey, nil
					}
					return nil, nil
				},
			},
		},
	})
}

func createEdgeType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Edge",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*graph.Edge).ID, nil
				},
			},
			"type": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*graph.Edge).Type), nil
				},
			},
			"source": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*graph.Edge).Source, nil
				},
			},
			"target": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*graph.Edge).Target, nil
				},
			},
			"activeFrom": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return intOrNil(p.Source.(*graph.Edge).ActiveFrom), nil
				},
			},
			"activeUntil": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return intOrNil(p.Source.(*graph.Edge).ActiveUntil), nil
				},
			},
			"obsolescenceRiskStatus": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if s := p.Source.(*graph.Edge).ObsolescenceRiskStatus; s != factsheet.RiskStatusNone {
						return string(s), nil
					}
					return nil, nil
				},
			},
		},
	})
}

func createGraphType(nodeType, edgeType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Graph",
		Fields: graphql.Fields{
			"runId": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*engine.Result).RunID, nil
				},
			},
			"refDate": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*engine.Result).RefDate, nil
				},
			},
			"computedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*engine.Result).ComputedAt.UTC().Format(time.RFC3339), nil
				},
			},
			"nodes": &graphql.Field{
				Type: graphql.NewList(nodeType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return sortedNodes(p.Source.(*engine.Result).Graph), nil
				},
			},
			"edges": &graphql.Field{
				Type: graphql.NewList(edgeType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*engine.Result).Graph.SortedEdges(), nil
				},
			},
		},
	})
}

func createApplicationsResolver(src Source) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		g := src.Graph()
		if g == nil {
			return nil, engine.ErrNoGraph
		}
		return g.Applications(), nil
	}
}

// createGraphResolver computes a pass on demand. It does not touch the
// state's published result.
func createGraphResolver(src Source) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		g := src.Graph()
		if g == nil {
			return nil, engine.ErrNoGraph
		}
		refDate, _ := p.Args["refDate"].(int)
		if !engine.ValidRefDate(refDate) {
			return nil, fmt.Errorf("%w: %d", engine.ErrInvalidRefDate, refDate)
		}

		// An omitted argument shows every Application, an empty list none.
		var ids []string
		if raw, ok := p.Args["applications"].([]interface{}); ok {
			ids = make([]string, 0, len(raw))
			for _, v := range raw {
				if id, ok := v.(string); ok {
					ids = append(ids, id)
				}
			}
		}
		return src.Engine().Compute(g, refDate, engine.VisibleSet(ids))
	}
}

func sortedNodes(g *graph.Graph) []*graph.Node {
	nodes := make([]*graph.Node, 0, len(g.Nodes))
	for _, a := range g.Applications() {
		nodes = append(nodes, g.Nodes[a.ID])
	}
	for _, c := range g.ITComponents() {
		nodes = append(nodes, g.Nodes[c.ID])
	}
	return nodes
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

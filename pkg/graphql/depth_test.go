package graphql

import (
	"context"
	"strings"
	"testing"
)

func TestCalculateQueryDepth(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"scalar", `{ health }`, 1},
		{"list", `{ applications { id } }`, 2},
		{"nested", `{ graph(refDate: 20230101) { nodes { id } } }`, 3},
		{"inline fragment", `{ graph(refDate: 20230101) { ... on Graph { edges { id } } } }`, 3},
		{"fragment spread", `{ latest { ...g } } fragment g on Graph { nodes { id } }`, 3},
		{"introspection", `{ __schema { types { fields { name } } } }`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateQueryDepth(tt.query, tt.want); err != nil {
				t.Errorf("depth %d rejected: %v", tt.want, err)
			}
			if tt.want > 1 {
				if err := ValidateQueryDepth(tt.query, tt.want-1); err == nil {
					t.Errorf("depth %d accepted with limit %d", tt.want, tt.want-1)
				}
			}
		})
	}
}

func TestValidateQueryDepth_ParseError(t *testing.T) {
	err := ValidateQueryDepth(`{ graph(`, 5)
	if err == nil || !strings.Contains(err.Error(), "failed to parse query") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestExecuteWithDepthLimit(t *testing.T) {
	schema := testSchema(t, &fakeSource{g: testInventory()})

	result := ExecuteWithDepthLimit(context.Background(), schema, `{ applications { id } }`, 2, nil)
	if result.HasErrors() {
		t.Fatalf("shallow query failed: %v", result.Errors)
	}

	result = ExecuteWithDepthLimit(context.Background(), schema, `{ graph(refDate: 20230101) { nodes { id } } }`, 2, nil)
	if !result.HasErrors() {
		t.Fatal("expected deep query to be rejected")
	}
	if !strings.Contains(result.Errors[0].Message, "exceeds maximum allowed depth") {
		t.Errorf("unexpected error: %s", result.Errors[0].Message)
	}
}

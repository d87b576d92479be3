package subgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	gqlast "github.com/vektah/gqlparser/v2/ast"

	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
)

func astField(name string, args gqlast.ArgumentList) *gqlast.Field {
	return &gqlast.Field{Name: name, Arguments: args}
}

func TestRenderRoot_AliasesRenamedField(t *testing.T) {
	p := &plan.ExecutionPlan{
		TypeName: "Query",
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{
				ResponseKey: operation.ResponseKey{ResponseName: "p"},
				SchemaName:  "product",
				ASTField:    astField("product", nil),
			}},
		},
	}
	got := renderRoot(p, "query", nil)
	require.Contains(t, got.Query, "p: product")
	require.True(t, strings.HasPrefix(got.Query, "query {"))
}

func TestRenderRoot_ArgumentsInlineLiteralsAndForwardVariables(t *testing.T) {
	args := gqlast.ArgumentList{
		{Name: "limit", Value: &gqlast.Value{Kind: gqlast.IntValue, Raw: "5"}},
		{Name: "after", Value: &gqlast.Value{Kind: gqlast.Variable, Raw: "cursor"}},
	}
	p := &plan.ExecutionPlan{
		TypeName: "Query",
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{
				ResponseKey: operation.ResponseKey{ResponseName: "items"},
				SchemaName:  "items",
				ASTField:    astField("items", args),
			}},
		},
	}
	clientVars := map[string]any{"cursor": "abc123", "unused": 1}
	got := renderRoot(p, "query", clientVars)
	require.Contains(t, got.Query, "limit: 5")
	require.Contains(t, got.Query, "after: $cursor")
	require.Equal(t, map[string]any{"cursor": "abc123"}, got.Variables)
}

func TestRenderRoot_SingleConcreteTypeOmitsFragment(t *testing.T) {
	p := &plan.ExecutionPlan{
		TypeName: "Query",
		Selection: []*plan.PlannedField{
			{
				Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "product"}, SchemaName: "product", ASTField: astField("product", nil)},
				Nested: map[string][]*plan.PlannedField{
					"Product": {{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "id"}, SchemaName: "id", ASTField: astField("id", nil)}}},
				},
			},
		},
	}
	got := renderRoot(p, "query", nil)
	require.NotContains(t, got.Query, "... on Product")
	require.Contains(t, got.Query, "id\n")
}

func TestRenderRoot_MultipleConcreteTypesUseFragmentsWithBareTypename(t *testing.T) {
	p := &plan.ExecutionPlan{
		TypeName: "Query",
		Selection: []*plan.PlannedField{
			{
				Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "node"}, SchemaName: "node", ASTField: astField("node", nil)},
				Nested: map[string][]*plan.PlannedField{
					"Product": {{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "sku"}, SchemaName: "sku", ASTField: astField("sku", nil)}}},
					"Review":  {{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "stars"}, SchemaName: "stars", ASTField: astField("stars", nil)}}},
				},
			},
		},
	}
	got := renderRoot(p, "query", nil)
	require.Contains(t, got.Query, "__typename")
	require.Contains(t, got.Query, "... on Product")
	require.Contains(t, got.Query, "... on Review")
}

func TestRenderEntity_WrapsSelectionInEntitiesQuery(t *testing.T) {
	p := &plan.ExecutionPlan{
		TypeName: "Product",
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "weight"}, SchemaName: "weight", ASTField: astField("weight", nil)}},
		},
	}
	got := renderEntity(p, nil)
	require.Contains(t, got.Query, "_entities(representations: $representations)")
	require.Contains(t, got.Query, "... on Product")
	require.Contains(t, got.Query, "weight")
}

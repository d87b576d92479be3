package response

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
	"github.com/stretchr/testify/require"
)

func fieldShape(pos int, name string, t *schema.TypeRef) *operation.FieldShape {
	return &operation.FieldShape{
		ResponseKey: operation.ResponseKey{QueryPosition: pos, ResponseName: name},
		SchemaName:  name,
		Type:        t,
	}
}

func rootPlan(selection []*plan.PlannedField) *plan.ExecutionPlan {
	return &plan.ExecutionPlan{Path: nil, TypeName: "Query", Selection: selection, ParentID: -1}
}

func TestBuilder_MergeRoot_SimpleScalars(t *testing.T) {
	b := NewBuilder("Query")
	p := rootPlan([]*plan.PlannedField{
		{Field: fieldShape(0, "name", schema.NonNullType(schema.NamedType("String")))},
		{Field: fieldShape(1, "count", schema.NamedType("Int"))},
	})

	b.MergeRoot(p, map[string]any{"name": "widget", "count": float64(3)})

	resp := b.Finalize()
	require.Empty(t, resp.Errors)
	require.Equal(t, StatusSuccess, resp.Status)
	data := resp.Data.(map[string]any)
	require.Equal(t, "widget", data["name"])
	require.Equal(t, int64(3), data["count"])
}

func TestBuilder_SharedRootMerge_KeepsBothPlansFields(t *testing.T) {
	b := NewBuilder("Query")
	p1 := rootPlan([]*plan.PlannedField{{Field: fieldShape(0, "a", schema.NamedType("String"))}})
	p2 := rootPlan([]*plan.PlannedField{{Field: fieldShape(1, "b", schema.NamedType("String"))}})

	b.MergeRoot(p1, map[string]any{"a": "1"})
	b.MergeRoot(p2, map[string]any{"b": "2"})

	resp := b.Finalize()
	data := resp.Data.(map[string]any)
	require.Equal(t, "1", data["a"])
	require.Equal(t, "2", data["b"])
}

func TestBuilder_SharedRootMerge_FirstWriteWinsOnOverlap(t *testing.T) {
	b := NewBuilder("Query")
	p1 := rootPlan([]*plan.PlannedField{{Field: fieldShape(0, "a", schema.NamedType("String"))}})
	p2 := rootPlan([]*plan.PlannedField{{Field: fieldShape(0, "a", schema.NamedType("String"))}})

	b.MergeRoot(p1, map[string]any{"a": "first"})
	b.MergeRoot(p2, map[string]any{"a": "second"})

	resp := b.Finalize()
	data := resp.Data.(map[string]any)
	require.Equal(t, "first", data["a"])
}

func TestBuilder_NonNullFieldMissing_NullsNearestAncestor(t *testing.T) {
	b := NewBuilder("Query")
	productFields := []*plan.PlannedField{
		{Field: fieldShape(1, "id", schema.NonNullType(schema.NamedType("ID")))},
		{Field: fieldShape(2, "name", schema.NonNullType(schema.NamedType("String")))},
	}
	p := rootPlan([]*plan.PlannedField{
		{
			Field: fieldShape(0, "product", schema.NamedType("Product")),
			Nested: map[string][]*plan.PlannedField{
				"Product": productFields,
			},
			NestedTypenameKey: map[string]*operation.ResponseKey{},
		},
	})

	// "name" is missing; since "product" itself is nullable, the object
	// becomes Null rather than the whole response failing.
	b.MergeRoot(p, map[string]any{"product": map[string]any{"id": "1"}})

	resp := b.Finalize()
	require.NotEmpty(t, resp.Errors)
	require.Equal(t, StatusFieldError, resp.Status)
	data := resp.Data.(map[string]any)
	require.Nil(t, data["product"])
}

func TestBuilder_NonNullFieldExplicitNull_RecordsInvalidResponseError(t *testing.T) {
	b := NewBuilder("Query")
	p := rootPlan([]*plan.PlannedField{
		{Field: fieldShape(0, "name", schema.NonNullType(schema.NamedType("String")))},
	})

	// Unlike a missing key, the subgraph here explicitly echoed back a JSON
	// null for a non-null field — §4.6.1 requires the same
	// SUBGRAPH_INVALID_RESPONSE_ERROR either way.
	b.MergeRoot(p, map[string]any{"name": nil})

	resp := b.Finalize()
	require.NotEmpty(t, resp.Errors)
	require.Equal(t, gqlerr.CodeSubgraphInvalidResponse, resp.Errors[0].Code)
	require.Equal(t, StatusFieldError, resp.Status)
	data := resp.Data.(map[string]any)
	require.Nil(t, data["name"])
}

func TestBuilder_NonNullListElementExplicitNull_RecordsErrorAtElementPath(t *testing.T) {
	b := NewBuilder("Query")
	p := rootPlan([]*plan.PlannedField{
		{Field: fieldShape(0, "scores", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("Int")))))},
	})

	// User.scores: [Int!]! returning [1, null, 3] — the null at index 1 is
	// a non-null list element, so the whole list (the nearest nullable
	// ancestor above the element, since the list itself is NonNull) must
	// be nulled, and the error path must point at the failing element.
	b.MergeRoot(p, map[string]any{"scores": []any{float64(1), nil, float64(3)}})

	resp := b.Finalize()
	require.NotEmpty(t, resp.Errors)
	require.Equal(t, gqlerr.CodeSubgraphInvalidResponse, resp.Errors[0].Code)
	require.Equal(t, []gqlerr.PathElement{"scores", 1}, resp.Errors[0].Path)
	data := resp.Data.(map[string]any)
	require.Nil(t, data["scores"])
}

func TestBuilder_MergeRoot_StructuralDiffAgainstExpectedTree(t *testing.T) {
	b := NewBuilder("Query")
	idKey := operation.ResponseKey{QueryPosition: 1, ResponseName: "id"}
	nameKey := operation.ResponseKey{QueryPosition: 2, ResponseName: "name"}
	typenameKey := operation.ResponseKey{QueryPosition: 0, ResponseName: "__typename"}
	productField := &operation.FieldShape{
		ResponseKey: operation.ResponseKey{QueryPosition: 0, ResponseName: "product"},
		Type:        schema.NamedType("Product"),
	}
	p := rootPlan([]*plan.PlannedField{{
		Field: productField,
		Nested: map[string][]*plan.PlannedField{
			"Product": {
				{Field: &operation.FieldShape{ResponseKey: idKey, Type: schema.NonNullType(schema.NamedType("ID"))}},
				{Field: &operation.FieldShape{ResponseKey: nameKey, Type: schema.NamedType("String")}},
			},
		},
		NestedTypenameKey: map[string]*operation.ResponseKey{"Product": &typenameKey},
	}})

	b.MergeRoot(p, map[string]any{"product": map[string]any{"id": "p1", "name": "widget"}})

	resp := b.Finalize()
	require.Empty(t, resp.Errors)

	want := map[string]any{
		"product": map[string]any{
			"__typename": "Product",
			"id":         "p1",
			"name":       "widget",
		},
	}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Fatalf("response tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_EntityMerge_FansOutThroughListAndSynthesizesTypename(t *testing.T) {
	b := NewBuilder("Query")

	idKey := operation.ResponseKey{QueryPosition: 1, ResponseName: "id"}
	typenameKey := operation.ResponseKey{QueryPosition: 0, ResponseName: "__typename"}
	productFieldShape := &operation.FieldShape{
		ResponseKey: operation.ResponseKey{QueryPosition: 0, ResponseName: "products"},
		Type:        schema.ListType(schema.NamedType("Product")),
	}
	rootSel := []*plan.PlannedField{{
		Field: productFieldShape,
		Nested: map[string][]*plan.PlannedField{
			"Product": {{Field: &operation.FieldShape{ResponseKey: idKey, Type: schema.NonNullType(schema.NamedType("ID"))}}},
		},
		NestedTypenameKey: map[string]*operation.ResponseKey{"Product": &typenameKey},
	}}
	root := rootPlan(rootSel)
	b.MergeRoot(root, map[string]any{"products": []any{
		map[string]any{"id": "p1"},
		map[string]any{"id": "p2"},
	}})

	weightKey := operation.ResponseKey{QueryPosition: 2, ResponseName: "weight"}
	entityPlan := &plan.ExecutionPlan{
		Path:     []plan.PathElement{{ResponseName: "products"}},
		TypeName: "Product",
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{ResponseKey: weightKey, Type: schema.NonNullType(schema.NamedType("Float"))}},
		},
		ParentID: 0,
	}
	parents := b.ParentObjects(entityPlan.Path)
	require.Len(t, parents, 2)
	b.MergeEntities(entityPlan, parents, []any{
		map[string]any{"weight": float64(1.5)},
		map[string]any{"weight": float64(2.5)},
	})

	resp := b.Finalize()
	require.Empty(t, resp.Errors)
	data := resp.Data.(map[string]any)
	products := data["products"].([]any)
	require.Len(t, products, 2)
	p1 := products[0].(map[string]any)
	require.Equal(t, "p1", p1["id"])
	require.Equal(t, "Product", p1["__typename"])
	require.Equal(t, float64(1.5), p1["weight"])
}

func TestBuilder_RequestError_NullsPlanFieldsAndRecordsError(t *testing.T) {
	b := NewBuilder("Query")
	p := rootPlan([]*plan.PlannedField{{Field: fieldShape(0, "name", schema.NamedType("String"))}})

	b.RecordRequestError(p, "subgraph unreachable")

	resp := b.Finalize()
	require.NotEmpty(t, resp.Errors)
	require.Equal(t, StatusFieldError, resp.Status)
	data := resp.Data.(map[string]any)
	require.Nil(t, data["name"])
}

func TestBuilder_ExtractRepresentations_MatchesBySchemaNameAndNestsCompositeKeys(t *testing.T) {
	b := NewBuilder("Query")

	orgIDKey := operation.ResponseKey{QueryPosition: 2, ResponseName: "orgID"}
	productSel := []*plan.PlannedField{
		{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{QueryPosition: 0, ResponseName: "sku"}, SchemaName: "sku", Type: schema.NonNullType(schema.NamedType("ID"))}},
		{
			Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{QueryPosition: 1, ResponseName: "org"}, SchemaName: "org", Type: schema.NamedType("Org")},
			Nested: map[string][]*plan.PlannedField{
				"Org": {{Field: &operation.FieldShape{ResponseKey: orgIDKey, SchemaName: "id", Type: schema.NonNullType(schema.NamedType("ID"))}}},
			},
			NestedTypenameKey: map[string]*operation.ResponseKey{},
		},
	}
	root := rootPlan([]*plan.PlannedField{{
		Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{QueryPosition: 0, ResponseName: "product"}, Type: schema.NamedType("Product")},
		Nested: map[string][]*plan.PlannedField{"Product": productSel},
		NestedTypenameKey: map[string]*operation.ResponseKey{},
	}})
	b.MergeRoot(root, map[string]any{"product": map[string]any{
		"sku": "p1",
		"org": map[string]any{"id": "o1"},
	}})

	parents := b.ParentObjects([]plan.PathElement{{ResponseName: "product"}})
	require.Len(t, parents, 1)

	keys := schema.FieldSet{
		{Name: "sku"},
		{Name: "org", Selections: schema.FieldSet{{Name: "id"}}},
	}
	reps := b.ExtractRepresentations(parents, "Product", keys)
	require.Len(t, reps, 1)
	require.Equal(t, "Product", reps[0]["__typename"])
	require.Equal(t, "p1", reps[0]["sku"])
	org := reps[0]["org"].(map[string]any)
	require.Equal(t, "o1", org["id"])
}

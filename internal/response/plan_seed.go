package response

import (
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// seedPlannedFields deserializes obj against a plan's own pruned selection
// (plan.ExecutionPlan.Selection) rather than the full ConcreteShape a
// field's type could otherwise expose — a plan's subgraph response only
// ever carries the fields that plan itself asked for (§4.3
// "plan_selection_set"), so seeding must walk the PlannedField tree, not
// the shape arena, to avoid reporting sibling plans' not-yet-resolved
// fields as missing.
func (st *seedState) seedPlannedFields(fields []*plan.PlannedField, obj map[string]any, path []gqlerr.PathElement) ([]ResponseField, bool) {
	out := make([]ResponseField, 0, len(fields))
	failed := false
	for _, pf := range fields {
		fs := pf.Field
		raw, present := obj[fs.ResponseKey.ResponseName]
		fieldPath := append(append([]gqlerr.PathElement(nil), path...), fs.ResponseKey.ResponseName)
		if !present {
			if fs.Type.IsNonNull() {
				st.store.addInvalidResponseError(fieldPath, "missing field in subgraph response")
				failed = true
				out = append(out, ResponseField{Key: fs.ResponseKey, SchemaName: fs.SchemaName, Value: unexpectedValue})
				continue
			}
			out = append(out, ResponseField{Key: fs.ResponseKey, SchemaName: fs.SchemaName, Value: nullValue})
			continue
		}
		v := st.seedPlannedType(fs.Type, pf.Nested, pf.NestedTypenameKey, raw, fieldPath)
		if v.Kind == KindUnexpected {
			failed = true
		}
		out = append(out, ResponseField{Key: fs.ResponseKey, SchemaName: fs.SchemaName, Value: v})
	}
	return out, failed
}

// seedPlannedType mirrors seedType, but resolves object/interface/union
// positions against a plan's Nested map instead of a FieldShape's
// PossibleShapes + the shape arena, and synthesizes __typename from
// typenameKeys rather than requiring the subgraph to have echoed it back.
func (st *seedState) seedPlannedType(t *schema.TypeRef, nested map[string][]*plan.PlannedField, typenameKeys map[string]*operation.ResponseKey, data any, path []gqlerr.PathElement) ResponseValue {
	if t.IsNonNull() {
		if data == nil {
			st.store.addInvalidResponseError(path, "expected a non-null value")
			return unexpectedValue
		}
		inner := st.seedPlannedType(t.Unwrap(), nested, typenameKeys, data, path)
		if inner.Kind == KindNull || inner.Kind == KindUnexpected {
			return unexpectedValue
		}
		return inner
	}

	if data == nil {
		return nullValue
	}

	switch t.Kind {
	case schema.TypeRefKindList:
		arr, ok := data.([]any)
		if !ok {
			st.store.addInvalidResponseError(path, "expected a list")
			return unexpectedValue
		}
		elemType := t.Unwrap()
		items := make([]ResponseValue, 0, len(arr))
		absorbed := false
		for i, item := range arr {
			v := st.seedPlannedType(elemType, nested, typenameKeys, item, append(append([]gqlerr.PathElement(nil), path...), i))
			if v.Kind == KindUnexpected {
				absorbed = true
			}
			items = append(items, v)
		}
		if absorbed {
			return nullValue
		}
		return ResponseValue{Kind: KindList, List: st.store.newList(items)}

	case schema.TypeRefKindNamed:
		if len(nested) == 0 {
			switch t.Named {
			case "Int":
				return seedInt(data, st.store, path)
			case "Float":
				return seedFloat(data, st.store, path)
			case "String", "ID":
				return seedString(data, st.store, path)
			case "Boolean":
				return seedBool(data, st.store, path)
			}
			return ResponseValue{Kind: KindJSON, JSON: data}
		}

		obj, ok := data.(map[string]any)
		if !ok {
			st.store.addInvalidResponseError(path, "expected an object")
			return unexpectedValue
		}
		typeName, pfs, ok := resolvePlannedShape(nested, obj)
		if !ok {
			st.store.addInvalidResponseError(path, "could not resolve concrete type for response object")
			return unexpectedValue
		}
		fields, failed := st.seedPlannedFields(pfs, obj, path)
		if failed {
			// By the time control reaches here, any enclosing NonNull
			// wrapper has already been peeled off by the recursive check
			// above, so this object position is itself nullable: it is the
			// nearest nullable ancestor the failing descendant bubbles to,
			// and absorbs the failure as Null rather than re-propagating
			// Unexpected further up (§4.6.2).
			return nullValue
		}
		if key := typenameKeys[typeName]; key != nil {
			fields = append(fields, ResponseField{Key: *key, SchemaName: "__typename", Value: ResponseValue{Kind: KindString, Str: typeName}})
		}
		sortFields(fields)
		return ResponseValue{Kind: KindObject, Object: st.store.newObject(typeName, fields)}
	}
	return unexpectedValue
}

func resolvePlannedShape(nested map[string][]*plan.PlannedField, obj map[string]any) (string, []*plan.PlannedField, bool) {
	if tn, ok := obj["__typename"].(string); ok && tn != "" {
		if pfs, ok := nested[tn]; ok {
			return tn, pfs, true
		}
	}
	if len(nested) == 1 {
		for tn, pfs := range nested {
			return tn, pfs, true
		}
	}
	return "", nil, false
}

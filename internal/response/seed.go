package response

import (
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
)

// seedState carries the store a subgraph payload is being seeded into.
// Seeding itself is always driven by a plan's pruned PlannedField tree
// (plan_seed.go), never by the full shape arena: a plan's subgraph
// response only ever carries the fields that plan asked for (§4.3
// "plan_selection_set"), so walking the full ConcreteShape here would
// misreport sibling plans' not-yet-resolved fields as missing.
type seedState struct {
	store *Store
}

func seedInt(data any, st *Store, path []gqlerr.PathElement) ResponseValue {
	switch v := data.(type) {
	case float64:
		return ResponseValue{Kind: KindInt, Int: int64(v)}
	case int64:
		return ResponseValue{Kind: KindInt, Int: v}
	case int:
		return ResponseValue{Kind: KindInt, Int: int64(v)}
	}
	st.addInvalidResponseError(path, "expected an integer")
	return unexpectedValue
}

func seedFloat(data any, st *Store, path []gqlerr.PathElement) ResponseValue {
	switch v := data.(type) {
	case float64:
		return ResponseValue{Kind: KindFloat, Float: v}
	case int:
		return ResponseValue{Kind: KindFloat, Float: float64(v)}
	}
	st.addInvalidResponseError(path, "expected a float")
	return unexpectedValue
}

func seedString(data any, st *Store, path []gqlerr.PathElement) ResponseValue {
	s, ok := data.(string)
	if !ok {
		st.addInvalidResponseError(path, "expected a string")
		return unexpectedValue
	}
	return ResponseValue{Kind: KindString, Str: s}
}

func seedBool(data any, st *Store, path []gqlerr.PathElement) ResponseValue {
	b, ok := data.(bool)
	if !ok {
		st.addInvalidResponseError(path, "expected a boolean")
		return unexpectedValue
	}
	return ResponseValue{Kind: KindBool, Bool: b}
}

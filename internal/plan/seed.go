package plan

import operation "github.com/nexusgraph/federation-gateway/internal/operation"

// PlannedFieldsFor rebuilds a full PlannedField tree for a selection whose
// data is already known in full — a partial-cache hit (§4.7) or a
// synthesized introspection result (§4.1) — rather than one the query
// planner pruned to a subgraph's own coverage boundary. It recurses through
// every PossibleShapes entry unconditionally: unlike the planner's
// buildCovered (internal/planner/planner.go), there is no subgraph
// ownership boundary to stop at, since this data was already computed in
// full by whoever produced it before MergeRoot is called with it.
func PlannedFieldsFor(fields []*operation.FieldShape, shapes []*operation.ConcreteShape) []*PlannedField {
	out := make([]*PlannedField, 0, len(fields))
	for _, f := range fields {
		pf := &PlannedField{Field: f}
		if len(f.PossibleShapes) > 0 {
			pf.Nested = map[string][]*PlannedField{}
			pf.NestedTypenameKey = map[string]*operation.ResponseKey{}
			for typeName, shapeID := range f.PossibleShapes {
				shape := shapes[shapeID]
				pf.Nested[typeName] = PlannedFieldsFor(shape.Fields, shapes)
				pf.NestedTypenameKey[typeName] = shape.TypenameKey
			}
		}
		out = append(out, pf)
	}
	return out
}

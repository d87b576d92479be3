// Package introspection resolves __schema/__type (§4.1) entirely outside
// the Plan DAG and executor: these fields carry no Resolvers (they are
// synthesized, like __typename — internal/schema/builder.go's
// isSynthesizedField), so the query planner could never cover them. Split
// pulls them out of a prepared operation's root selection before planning
// runs; Plan then resolves their data straight from the composed
// schema.Schema Go struct graph and hands back a plan.ExecutionPlan whose
// only purpose is to carry a pre-pruned Selection into
// response.Builder.MergeRoot, the same sorted-merge path a subgraph result
// or a partial-cache hit already uses.
package introspection

import (
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Split partitions prepared's top-level fields into introspection root
// fields and everything else. __schema/__type only ever appear on the
// query root type, so Split is safe to call unconditionally regardless of
// operation type — a Mutation/Subscription's RootShape simply never
// contains them.
func Split(prepared *operation.PreparedOperation) (introspected, rest []*operation.FieldShape) {
	if prepared == nil || prepared.RootShape == nil {
		return nil, nil
	}
	for _, f := range prepared.RootShape.Fields {
		if f.SchemaName == "__schema" || f.SchemaName == "__type" {
			introspected = append(introspected, f)
			continue
		}
		rest = append(rest, f)
	}
	return introspected, rest
}

// Plan resolves introspected's data and wraps it as a root-level
// plan.ExecutionPlan ready for response.Builder.MergeRoot. Returns (nil,
// nil) when introspected is empty, so callers can unconditionally call
// Plan and skip the merge when there is nothing to add.
func Plan(sch *schema.Schema, introspected []*operation.FieldShape, shapes []*operation.ConcreteShape, variables map[string]any) (*plan.ExecutionPlan, map[string]any) {
	if len(introspected) == 0 {
		return nil, nil
	}
	data := Resolve(sch, introspected, shapes, variables)
	p := &plan.ExecutionPlan{
		ParentID:  -1,
		TypeName:  sch.QueryType,
		Selection: plan.PlannedFieldsFor(introspected, shapes),
	}
	return p, data
}

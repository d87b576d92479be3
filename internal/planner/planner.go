// Package planner implements the Query Planner (§4.3): it turns a prepared
// operation's shape tree into a plan DAG of subgraph fetches.
package planner

import (
	"sort"

	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Planner holds the schema a prepared operation was bound against.
type Planner struct {
	schema *schema.Schema
}

// New returns a Planner bound to sch.
func New(sch *schema.Schema) *Planner {
	return &Planner{schema: sch}
}

// pendingWork is one work-list item: a shape position with fields still
// needing a resolver assigned, and the plan node (if any) that will become
// their dependency.
type pendingWork struct {
	parentID plan.NodeID
	path     []plan.PathElement
	shapeID  operation.ShapeID
	fields   []*operation.FieldShape
}

// Plan runs the work-list algorithm of §4.3 against op, respecting mods'
// skipped-field bitset (modifier-aware planning: skipped fields are removed
// up front so resolvers are never invoked for them).
func (pl *Planner) Plan(op *operation.PreparedOperation, mods *operation.QueryModifications) (*plan.DAG, error) {
	return pl.PlanFields(op, op.RootShape.Fields, mods)
}

// PlanFields runs the same work-list algorithm against an explicit
// top-level field set rather than op.RootShape.Fields in full — the entry
// point a caller uses once it has already carved fields out of the root
// selection before planning (a partial cache hit's MissFields, §4.7, or
// the non-introspection remainder Split leaves behind, §4.1). The fields
// must still belong to op.RootShape; only which of them reach the planner
// changes.
func (pl *Planner) PlanFields(op *operation.PreparedOperation, fields []*operation.FieldShape, mods *operation.QueryModifications) (*plan.DAG, error) {
	dag := plan.NewDAG()

	queue := []pendingWork{{
		parentID: -1,
		shapeID:  op.RootShape.ID,
		fields:   filterSkipped(fields, mods),
	}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if len(item.fields) == 0 {
			continue
		}

		groups := groupCandidates(item.fields)
		if len(groups) == 0 {
			return nil, plan.Uncovered(item.path, "no resolver covers the remaining selection")
		}
		chosen := selectBestGroup(groups)

		inputKeys := entityInputKeys(chosen.resolver, chosen.fields)
		selected, nested := pl.buildCovered(chosen.fields, chosen.resolver.Subgraph(), item.path, mods, op.Shapes)

		node := &plan.ExecutionPlan{
			Path:        item.path,
			InputKeys:   inputKeys,
			Resolver:    chosen.resolver,
			ShapeID:     item.shapeID,
			TypeName:    op.Shapes[item.shapeID].TypeName,
			TypenameKey: op.Shapes[item.shapeID].TypenameKey,
			Selection:   selected,
			ParentID:    item.parentID,
		}
		nodeID := dag.AddNode(node)
		if item.parentID >= 0 {
			dag.AddEdge(item.parentID, nodeID)
		}

		// Remainder: fields of this work item not covered by the chosen
		// resolver become a new work item depending on the plan just
		// created (§4.3 step 2, "remainder ... pushed as a new work item
		// with parent = this_plan").
		if remainder := subtract(item.fields, chosen.fields); len(remainder) > 0 {
			queue = append(queue, pendingWork{parentID: nodeID, path: item.path, shapeID: item.shapeID, fields: remainder})
		}
		for _, r := range nested {
			r.parentID = nodeID
			queue = append(queue, r)
		}
	}

	return dag, nil
}

// buildCovered recursively includes providable descendants of the fields a
// chosen resolver covers (§4.3 step 2: "recursively including providable
// descendants"), stopping at the boundary where a descendant field is
// neither owned by subgraph nor covered by an ancestor's `@provides`. Fields
// past that boundary are returned as pendingWork for the caller to enqueue.
func (pl *Planner) buildCovered(fields []*operation.FieldShape, subgraph schema.SubgraphID, path []plan.PathElement, mods *operation.QueryModifications, shapes []*operation.ConcreteShape) ([]*plan.PlannedField, []pendingWork) {
	var selected []*plan.PlannedField
	var remainder []pendingWork

	for _, f := range fields {
		pf := &plan.PlannedField{Field: f}
		if len(f.PossibleShapes) > 0 {
			pf.Nested = map[string][]*plan.PlannedField{}
			pf.NestedTypenameKey = map[string]*operation.ResponseKey{}
			childPath := appendPath(path, f.ResponseKey.ResponseName)
			provides := f.SchemaField.Provides[subgraph]

			// Deterministic iteration over PossibleShapes for stable plans.
			typeNames := make([]string, 0, len(f.PossibleShapes))
			for t := range f.PossibleShapes {
				typeNames = append(typeNames, t)
			}
			sort.Strings(typeNames)

			for _, typeName := range typeNames {
				childID := f.PossibleShapes[typeName]
				childShape := shapes[childID]
				childFields := filterSkipped(childShape.Fields, mods)

				var providable, blocked []*operation.FieldShape
				for _, cf := range childFields {
					if cf.SchemaField.ExistsIn(subgraph) || provides.Contains(cf.SchemaName) {
						providable = append(providable, cf)
					} else {
						blocked = append(blocked, cf)
					}
				}

				nestedSelected, nestedRemainder := pl.buildCovered(providable, subgraph, childPath, mods, shapes)
				pf.Nested[typeName] = nestedSelected
				pf.NestedTypenameKey[typeName] = childShape.TypenameKey
				remainder = append(remainder, nestedRemainder...)
				if len(blocked) > 0 {
					remainder = append(remainder, pendingWork{path: childPath, shapeID: childID, fields: blocked})
				}
			}
		}
		selected = append(selected, pf)
	}
	return selected, remainder
}

func appendPath(path []plan.PathElement, responseName string) []plan.PathElement {
	out := make([]plan.PathElement, len(path), len(path)+1)
	copy(out, path)
	return append(out, plan.PathElement{ResponseName: responseName})
}

func filterSkipped(fields []*operation.FieldShape, mods *operation.QueryModifications) []*operation.FieldShape {
	if mods == nil {
		return fields
	}
	out := make([]*operation.FieldShape, 0, len(fields))
	for _, f := range fields {
		if !mods.Skipped.IsSet(f.BitIndex) {
			out = append(out, f)
		}
	}
	return out
}

func subtract(all, covered []*operation.FieldShape) []*operation.FieldShape {
	coveredSet := make(map[*operation.FieldShape]bool, len(covered))
	for _, f := range covered {
		coveredSet[f] = true
	}
	var out []*operation.FieldShape
	for _, f := range all {
		if !coveredSet[f] {
			out = append(out, f)
		}
	}
	return out
}

// entityInputKeys computes a GraphqlFederationEntity plan's input_keys as
// the union of its key FieldSet and every `@requires` FieldSet declared by
// the fields it is chosen to resolve (§4.3 step 3, step 4): the ancestor
// plan producing the parent object must have already written both before
// this plan is scheduled, which the DAG's in-degree ordering guarantees.
func entityInputKeys(resolver *schema.ResolverDefinition, fields []*operation.FieldShape) schema.FieldSet {
	if resolver.Kind != schema.ResolverKindGraphqlFederationEntity {
		return nil
	}
	merged := append(schema.FieldSet{}, resolver.GraphqlFederationEntity.KeyFields...)
	seen := map[string]bool{}
	for _, it := range merged {
		seen[it.Name] = true
	}
	subgraph := resolver.Subgraph()
	for _, f := range fields {
		for _, it := range f.SchemaField.Requires[subgraph] {
			if !seen[it.Name] {
				merged = append(merged, it)
				seen[it.Name] = true
			}
		}
	}
	return merged
}

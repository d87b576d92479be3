// Package plan defines the Plan DAG (§3.3): the query planner's output and
// the executor's input. A DAG is a flat, arena-indexed list of
// ExecutionPlan nodes plus dependency edges, mirroring the schema package's
// arena-indexed-graph design rather than a pointer graph (§9).
package plan

import (
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// NodeID indexes into DAG.Nodes.
type NodeID int

// PathElement is one step from the operation root to a plan's entry point:
// a field's response name. The static path carries no list indices; list
// positions are fanned out per element at execution time.
type PathElement struct {
	ResponseName string
}

// ExecutionPlan is one node of the plan DAG (§3.3).
type ExecutionPlan struct {
	ID NodeID

	// Path is the operation path from root to this plan's entry point.
	Path []PathElement

	// InputKeys is the subset of the parent object set this plan must read
	// out of the response store to build its subgraph request (an entity
	// key FieldSet for GraphqlFederationEntity resolvers, empty for root
	// plans).
	InputKeys schema.FieldSet

	// Resolver is the resolver definition chosen to satisfy this plan.
	Resolver *schema.ResolverDefinition

	// ShapeID roots the slice of the prepared operation's shape tree this
	// plan is responsible for deserializing into.
	ShapeID operation.ShapeID

	// TypeName is the concrete object type this plan's own position
	// resolves (the root operation type for a root plan, the entity type
	// for an entity-fetch plan) — lifted from the shape arena so the
	// Response Builder can synthesize __typename without needing the
	// subgraph to have echoed it back.
	TypeName string

	// TypenameKey is non-nil when the selection at this plan's position
	// requested __typename, naming the response key to write it under.
	TypenameKey *operation.ResponseKey

	// Selection is the subtree of the shape tree this plan fetches from its
	// subgraph, already pruned to what the resolver can produce plus
	// `provides`-covered descendants (§4.3 step 2 "plan_selection_set"). It
	// is a tree, not a flat list, since a plan may reach several levels deep
	// into the shape before hitting a boundary that needs its own plan.
	Selection []*PlannedField

	// ParentID is -1 for root plans.
	ParentID NodeID
}

// PlannedField is one field this plan's subgraph request will select,
// together with whichever nested selection is also covered by the same
// plan (i.e. didn't need its own dependent plan).
type PlannedField struct {
	Field *operation.FieldShape

	// Nested maps a possible concrete type name to the pruned selection
	// covered by this plan for that type — mirrors
	// operation.FieldShape.PossibleShapes, but only the subset this plan
	// resolves itself rather than handing off to a child plan.
	Nested map[string][]*PlannedField

	// NestedTypenameKey mirrors Nested's keys, naming the response key to
	// write __typename under for that concrete type, when requested.
	NestedTypenameKey map[string]*operation.ResponseKey
}

// IsRoot reports whether p has no parent plan.
func (p *ExecutionPlan) IsRoot() bool { return p.ParentID < 0 }

// DAG is the complete plan produced by the planner for one prepared
// operation (§3.3).
type DAG struct {
	Nodes []*ExecutionPlan
	// edges maps a parent node to the set of children depending on it.
	edges map[NodeID][]NodeID
	// indegree counts unsatisfied dependencies per node, decremented as
	// the executor completes parents (§4.4 main loop step 2).
	indegree map[NodeID]int
}

// NewDAG returns an empty DAG ready for AddNode/AddEdge calls.
func NewDAG() *DAG {
	return &DAG{edges: map[NodeID][]NodeID{}, indegree: map[NodeID]int{}}
}

// AddNode appends p to the DAG, assigning it the next NodeID.
func (d *DAG) AddNode(p *ExecutionPlan) NodeID {
	id := NodeID(len(d.Nodes))
	p.ID = id
	d.Nodes = append(d.Nodes, p)
	if _, ok := d.indegree[id]; !ok {
		d.indegree[id] = 0
	}
	return id
}

// AddEdge records that child depends on parent: child's in-degree rises by
// one and will only be schedulable once parent (and every other
// dependency) has completed.
func (d *DAG) AddEdge(parent, child NodeID) {
	d.edges[parent] = append(d.edges[parent], child)
	d.indegree[child]++
}

// Roots returns every node with in-degree 0, the initial schedulable set
// (§4.4 main loop step 1).
func (d *DAG) Roots() []NodeID {
	var roots []NodeID
	for _, n := range d.Nodes {
		if d.indegree[n.ID] == 0 {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Complete marks node as finished and returns the children whose in-degree
// just reached 0 as a result — the set newly eligible to spawn (§4.4 main
// loop step 2).
func (d *DAG) Complete(node NodeID) []NodeID {
	var ready []NodeID
	for _, child := range d.edges[node] {
		d.indegree[child]--
		if d.indegree[child] == 0 {
			ready = append(ready, child)
		}
	}
	return ready
}

// Children returns the nodes that depend on node, without mutating state.
func (d *DAG) Children(node NodeID) []NodeID { return d.edges[node] }

// Package executor implements the Plan-DAG scheduler (§4.4): it walks the
// dependency graph the query planner produced, runs each plan node against
// a Runner, and merges the results into a Response Builder.
//
// # Execution model
//
// Scheduling is cooperative and single-event-loop at the outer level: the
// Executor computes one "wave" of schedulable nodes at a time (initially
// dag.Roots(), the set with no unresolved dependency) and runs every node
// in that wave concurrently via golang.org/x/sync/errgroup. When the wave
// finishes, dag.Complete(id) reports each node's now-unblocked children,
// which become the next wave. This repeats until no node remains.
//
// Within one wave, a node may run arbitrarily long — I/O only ever
// suspends on the Runner's own subgraph call, never elsewhere — so a slow
// plan does not stall its unrelated siblings.
//
// # Per-plan task
//
// Each node's execution (runNode) follows §4.4's "Per-plan task" steps:
//  1. Build a ParentObjectSet by walking the response store at the plan's
//     path (Builder.ParentObjects). Root plans resolve to the single
//     synthetic root object; an empty set (the parent position resolved to
//     null/empty upstream) short-circuits the node with nothing to do.
//  2. If the plan carries InputKeys (an entity key FieldSet), materialize
//     one representation per parent (Builder.ExtractRepresentations).
//  3. Invoke the Runner — the capability boundary to internal/subgraph —
//     which performs the actual subgraph round trip.
//  4. Merge the result into the Response Builder: MergeRoot for a root
//     plan, MergeEntities (index-aligned with the representations sent)
//     for an entity-fetch plan. Any GraphQL errors the subgraph response
//     carried are rewritten onto the federated path and recorded.
//
// A Runner error (rather than a populated SubgraphResult) means the round
// trip itself never completed — transport failure, unparseable body, or a
// deadline exceeded — and is treated as a whole-plan failure via
// Builder.RecordRequestError, nulling the plan's own top-level fields.
//
// # Cancellation and timeouts
//
// Run also takes a RequestContext (variables, incoming headers, access
// token) threaded unfiltered into every node's SubgraphRequest — deciding
// what a given plan's subgraph call actually needs from it is the Runner's
// job, not the scheduler's.
//
// A non-zero Deadlines.Request wraps the whole Run call in a deadline; a
// non-zero Deadlines.Subgraph wraps each individual node's Runner.Run call.
// A node observed after the context is already done is recorded as a
// request error rather than started, matching §4.4 step 3's "cancelled
// tasks return without writing further to the response store" — already
// in-flight Runner calls are expected to abort via ctx themselves.
package executor

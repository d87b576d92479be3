package executor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	response "github.com/nexusgraph/federation-gateway/internal/response"
)

// Deadlines bounds the Executor's two enforced timeouts (§4.4 step 4): a
// global deadline for the whole request, and a per-subgraph deadline
// applied to every individual Runner.Run call. Zero means unbounded.
type Deadlines struct {
	Request  time.Duration
	Subgraph time.Duration
}

// Executor drives a plan DAG to completion against a Response Builder
// (§4.4). It generalizes the depth-wise batch loop an earlier revision of
// this package used for per-field async resolution — spawn the current
// frontier, wait for it, spawn whatever the completions newly unblocked —
// from one batched runtime call per BFS depth to one concurrent Runner.Run
// per DAG wave (dag.Roots() the first wave, dag.Complete(id) producing each
// next one).
type Executor struct {
	runner    Runner
	deadlines Deadlines
}

func NewExecutor(runner Runner, deadlines Deadlines) *Executor {
	return &Executor{runner: runner, deadlines: deadlines}
}

// Run executes every node of dag, merging results into builder, until no
// node remains schedulable or ctx is cancelled. It never returns a Go error
// for a subgraph-level failure — those are recorded into builder as
// response errors (§4.6.4) — only for outright cancellation/deadline
// exceeded, matching §4.4 step 3's "cancelled tasks return without writing
// further to the response store".
func (e *Executor) Run(ctx context.Context, dag *plan.DAG, builder *response.Builder, reqCtx RequestContext) error {
	if e.deadlines.Request > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deadlines.Request)
		defer cancel()
	}

	wave := dag.Roots()
	for len(wave) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		readyPerNode := make([][]plan.NodeID, len(wave))
		for i, id := range wave {
			i, id := i, id
			g.Go(func() error {
				readyPerNode[i] = e.runNode(gctx, dag, id, builder, reqCtx)
				return nil
			})
		}
		// runNode never returns an error of its own — every subgraph or
		// transport failure is recorded into builder instead — and every
		// goroutine returns nil, so Wait reports no error; ctx's own
		// cancellation/deadline is caught by the ctx.Err() checks.
		if err := g.Wait(); err != nil {
			return err
		}

		var next []plan.NodeID
		for _, ready := range readyPerNode {
			next = append(next, ready...)
		}
		wave = next
	}
	return ctx.Err()
}

// runNode executes a single plan node: build its parent object set,
// materialize representations for entity-fetch plans, invoke the Runner,
// merge the result (or record the failure), and report newly-ready
// children (§4.4 "Per-plan task").
func (e *Executor) runNode(ctx context.Context, dag *plan.DAG, id plan.NodeID, builder *response.Builder, reqCtx RequestContext) []plan.NodeID {
	node := dag.Nodes[id]

	if err := ctx.Err(); err != nil {
		builder.RecordRequestError(node, "request cancelled before this plan could run")
		return dag.Complete(id)
	}

	parents := builder.ParentObjects(node.Path)
	if len(parents) == 0 {
		// Nothing in the response store matched this plan's path (e.g. the
		// parent list/field resolved to null/empty upstream) — there is
		// nothing to fetch or merge, and no failure to report.
		return dag.Complete(id)
	}

	req := SubgraphRequest{Plan: node, RequestContext: reqCtx}
	if len(node.InputKeys) > 0 {
		req.Representations = builder.ExtractRepresentations(parents, node.TypeName, node.InputKeys)
	}

	runCtx := ctx
	if e.deadlines.Subgraph > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.deadlines.Subgraph)
		defer cancel()
	}

	result, err := e.runner.Run(runCtx, req)
	if err != nil {
		builder.RecordRequestError(node, requestErrorMessage(runCtx, err))
		return dag.Complete(id)
	}

	if node.IsRoot() {
		builder.MergeRoot(node, result.RootData)
	} else {
		builder.MergeEntities(node, parents, result.Entities)
	}

	basePath := gqlPathOf(node)
	for _, subErr := range result.Errors {
		builder.RecordSubgraphError(basePath, subErr.Path, subErr.Message, subErr.Extensions)
	}

	return dag.Complete(id)
}

// requestErrorMessage reports a deadline-exceeded distinctly from an
// ordinary transport failure, since §4.4 step 4 treats a subgraph timeout
// as its own case ("a subgraph timeout yields an error at the plan's root
// shape and null-propagates").
func requestErrorMessage(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "subgraph request timed out"
	}
	return err.Error()
}

func gqlPathOf(p *plan.ExecutionPlan) []gqlerr.PathElement {
	out := make([]gqlerr.PathElement, 0, len(p.Path))
	for _, step := range p.Path {
		out = append(out, step.ResponseName)
	}
	return out
}

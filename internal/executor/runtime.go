package executor

import (
	"context"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
)

// RequestContext is the per-client-request state every plan node's subgraph
// call may need beyond the plan itself: the operation's variable values, the
// client's own incoming headers (for header-rule projection, §4.5.1), and
// the caller's access token (for auth-identity-bit cache keys, §4.5.2, and
// ExtensionRuntime.Authenticate). It is threaded through unfiltered — deciding
// what to actually use is the Runner's job, not the scheduler's.
type RequestContext struct {
	Variables map[string]any
	Headers   map[string][]string
	Token     capability.AccessToken
}

// Runner is the capability boundary between the Plan-DAG scheduler and a
// concrete resolver implementation (§4.5, built by internal/subgraph). The
// scheduler never knows about HTTP, the GraphQL wire format, or entity
// caching — it calls Run exactly once per plan node and merges whatever
// comes back through the Response Builder.
//
// Run must not block past ctx's deadline; the Executor applies the
// per-subgraph deadline to ctx before calling Run, so a Runner that simply
// respects ctx gets per-subgraph timeout enforcement for free (§4.4 step 4).
type Runner interface {
	Run(ctx context.Context, req SubgraphRequest) (*SubgraphResult, error)
}

// SubgraphRequest is everything a Runner needs to satisfy one plan node.
// Representations is nil for root plans and one entry per parent object for
// entity-fetch plans (§4.5.1), already extracted from the response store by
// the Executor via Builder.ExtractRepresentations.
type SubgraphRequest struct {
	Plan            *plan.ExecutionPlan
	Representations []map[string]any
	RequestContext  RequestContext
}

// SubgraphResult is what a Runner reports back for one plan node on a
// completed round trip. Exactly one of RootData/Entities is populated,
// matching Plan.IsRoot(). A Runner that cannot complete the round trip at
// all (transport failure, non-2xx with unparseable body) returns a non-nil
// error from Run instead of a SubgraphResult — the Executor treats that as
// a whole-plan failure (§4.4 "a subgraph timeout yields an error at the
// plan's root shape and null-propagates").
type SubgraphResult struct {
	// RootData is the subgraph's decoded `data` object for a root-level
	// plan's own selection.
	RootData map[string]any

	// Entities is the subgraph's decoded `_entities` array for an
	// entity-fetch plan, index-aligned with the representations sent.
	Entities []any

	// Errors are GraphQL errors the subgraph's response body carried
	// alongside (or instead of) data (§4.6.4).
	Errors []SubgraphGraphQLError
}

// SubgraphGraphQLError is one error object from a subgraph's GraphQL
// response body, still in the subgraph's own path coordinate space —
// Builder.RecordSubgraphError rewrites Path onto the federated response
// path before it's recorded.
type SubgraphGraphQLError struct {
	Message    string
	Path       []any
	Extensions map[string]any
}

package subgraph

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	executor "github.com/nexusgraph/federation-gateway/internal/executor"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Config wires a Resolver against its deployment (§6.5 "subgraphs[name]"):
// one Transport serves every subgraph (the URL varies per call), an
// optional EntityCache backs §4.5.2, an optional ExtensionRuntime backs
// §4.5.3, and Retries holds the per-subgraph retry budget configuration
// (§4.5.4).
type Config struct {
	Schema           *schema.Schema
	Transport        capability.Transport
	EntityCache      capability.EntityCache
	ExtensionRuntime capability.ExtensionRuntime
	Clock            capability.Clock
	Retries          map[schema.SubgraphID]RetryPolicy
	CacheTTL         map[schema.SubgraphID]time.Duration
}

// Resolver is the HTTP-based Subgraph Resolver (§4.5): the executor.Runner
// a Plan-DAG Executor drives once per plan node.
type Resolver struct {
	cfg       Config
	budgetsMu sync.Mutex
	budgets   map[schema.SubgraphID]*RetryBudget

	// inflight collapses concurrent GraphQL-path calls that land on the
	// same cacheKey (same subgraph, query, variables, forwarded headers,
	// auth identity) into a single round trip — e.g. a batch of sibling
	// entity representations resolved by fan-out plans that all happen to
	// share a key, or two concurrent requests warming the same cold cache
	// entry at once.
	inflight singleflight.Group
}

func NewResolver(cfg Config) *Resolver {
	if cfg.Clock == nil {
		cfg.Clock = capability.SystemClock{}
	}
	return &Resolver{cfg: cfg, budgets: map[schema.SubgraphID]*RetryBudget{}}
}

var _ executor.Runner = (*Resolver)(nil)

func (r *Resolver) budgetFor(id schema.SubgraphID) *RetryBudget {
	r.budgetsMu.Lock()
	defer r.budgetsMu.Unlock()
	if b, ok := r.budgets[id]; ok {
		return b
	}
	b := NewRetryBudget(r.cfg.Retries[id], r.cfg.Clock)
	r.budgets[id] = b
	return b
}

// Run satisfies executor.Runner, dispatching to the resolver variant the
// plan's schema.ResolverDefinition names (§4.5.1/§4.5.3).
func (r *Resolver) Run(ctx context.Context, req executor.SubgraphRequest) (*executor.SubgraphResult, error) {
	resolver := req.Plan.Resolver
	if resolver == nil {
		return nil, fmt.Errorf("subgraph: plan %d carries no resolver definition", req.Plan.ID)
	}

	switch resolver.Kind {
	case schema.ResolverKindGraphqlRootField, schema.ResolverKindGraphqlFederationEntity:
		return r.runGraphQL(ctx, req, resolver)
	case schema.ResolverKindExtension, schema.ResolverKindSelectionSetResolverExtension:
		return r.runExtension(ctx, req, resolver)
	default:
		return nil, fmt.Errorf("subgraph: resolver kind %s has no field-level network call (resolved by FieldResolverExtension instead)", resolver.Kind)
	}
}

// runGraphQL implements §4.5.1: render the plan into a GraphQL request,
// send it (through caching and retry), and ingest the response.
func (r *Resolver) runGraphQL(ctx context.Context, req executor.SubgraphRequest, resolver *schema.ResolverDefinition) (*executor.SubgraphResult, error) {
	subgraphID := resolver.Subgraph()
	sg := r.cfg.Schema.Subgraphs[subgraphID]
	if sg == nil {
		return nil, fmt.Errorf("subgraph: unknown subgraph %q", subgraphID)
	}

	isEntity := !req.Plan.IsRoot()
	var rendered renderedRequest
	if isEntity {
		rendered = renderEntity(req.Plan, req.RequestContext.Variables)
		if rendered.Variables == nil {
			rendered.Variables = map[string]any{}
		}
		rendered.Variables["representations"] = req.Representations
	} else {
		rendered = renderRoot(req.Plan, rootOperationKeyword(r.cfg.Schema, req.Plan.TypeName), req.RequestContext.Variables)
	}

	body, err := marshalJSON(requestBody{Query: rendered.Query, Variables: rendered.Variables})
	if err != nil {
		return nil, fmt.Errorf("subgraph: encoding request body: %w", err)
	}

	headers := projectHeaders(sg.HeaderRules, req.RequestContext.Headers)
	headers["Content-Type"] = []string{"application/json"}

	authBits := ""
	if req.RequestContext.Token != nil && !req.RequestContext.Token.IsAnonymous() {
		if raw, ok := req.RequestContext.Token.AsBytes(); ok {
			authBits = string(raw)
		}
	}

	key := cacheKey(subgraphID, rendered.Query, rendered.Variables, headers, authBits)
	if body, ok := entityCacheLookup(ctx, r.cfg.EntityCache, key); ok {
		return decodeResponse(body, isEntity)
	}

	isMutation := r.cfg.Schema.MutationType != "" && req.Plan.TypeName == r.cfg.Schema.MutationType
	budget := r.budgetFor(subgraphID)
	policy := r.cfg.Retries[subgraphID]

	fetchAndDecode := func() (any, error) {
		resp, err := withRetry(ctx, budget, policy, isMutation, func() (capability.Response, error) {
			return r.cfg.Transport.Fetch(ctx, capability.Request{
				Method:  http.MethodPost,
				URL:     sg.URL,
				Headers: headers,
				Body:    body,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("subgraph %q: %w", subgraphID, err)
		}
		if resp.Status < 200 || resp.Status >= 300 {
			if len(resp.Body) == 0 {
				return nil, fmt.Errorf("subgraph %q: non-2xx status %d with no response body", subgraphID, resp.Status)
			}
			// A non-2xx response that still carried a parseable GraphQL body
			// (partial data + errors) is ingested like any other response
			// rather than treated as a whole-plan failure (§4.5.1).
		}

		result, err := decodeResponse(resp.Body, isEntity)
		if err != nil {
			return nil, fmt.Errorf("subgraph %q: %w", subgraphID, err)
		}

		if ttl, ok := cacheableTTL(httpHeader(resp.Headers), r.cfg.CacheTTL[subgraphID]); ok && r.cfg.EntityCache != nil {
			// Write-back is fire-and-forget relative to the caller's deadline:
			// a slow cache must never make an otherwise-successful subgraph
			// call miss its own deadline.
			go func() {
				_ = r.cfg.EntityCache.Put(context.Background(), key, resp.Body, ttl)
			}()
		}

		return result, nil
	}

	// Mutations never share a singleflight key with one another — each
	// caller's side effect must actually run. Queries/entity fetches that
	// land on the same cache key within the same in-flight window share one
	// round trip instead of issuing N identical subgraph calls.
	if isMutation {
		v, err := fetchAndDecode()
		if err != nil {
			return nil, err
		}
		return v.(*executor.SubgraphResult), nil
	}
	v, err, _ := r.inflight.Do(key, fetchAndDecode)
	if err != nil {
		return nil, err
	}
	return v.(*executor.SubgraphResult), nil
}

// runExtension implements §4.5.3: invoke the injected ExtensionRuntime
// instead of a network call, then decode its result through the same
// shape-guided seed the GraphQL path uses.
func (r *Resolver) runExtension(ctx context.Context, req executor.SubgraphRequest, resolver *schema.ResolverDefinition) (*executor.SubgraphResult, error) {
	if r.cfg.ExtensionRuntime == nil {
		return nil, fmt.Errorf("subgraph: no ExtensionRuntime configured for resolver kind %s", resolver.Kind)
	}

	var extensionID, subgraphID string
	switch resolver.Kind {
	case schema.ResolverKindExtension:
		extensionID = resolver.Extension.ExtensionID
		subgraphID = string(resolver.Extension.SubgraphID)
	case schema.ResolverKindSelectionSetResolverExtension:
		extensionID = resolver.SelectionSetResolverExtension.ExtensionID
		subgraphID = string(resolver.SelectionSetResolverExtension.SubgraphID)
	}

	isEntity := !req.Plan.IsRoot()
	var rendered renderedRequest
	if isEntity {
		rendered = renderEntity(req.Plan, req.RequestContext.Variables)
	} else {
		rendered = renderRoot(req.Plan, rootOperationKeyword(r.cfg.Schema, req.Plan.TypeName), req.RequestContext.Variables)
	}
	if isEntity {
		if rendered.Variables == nil {
			rendered.Variables = map[string]any{}
		}
		rendered.Variables["representations"] = req.Representations
	}

	result, err := r.cfg.ExtensionRuntime.ResolveSelectionSet(ctx, capability.SelectionSetResolveCall{
		SubgraphID:   subgraphID,
		ExtensionID:  extensionID,
		SelectionSet: []byte(rendered.Query),
		Variables:    rendered.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("extension %q: %w", extensionID, err)
	}
	if result.Err != nil {
		return nil, fmt.Errorf("extension %q: %s", extensionID, result.Err.Message)
	}

	data := result.DataJSON
	if data == nil {
		// CBOR responses decode through the same jsoniter-compatible path
		// once transcoded; out of scope here (§1 CBOR transcoding is an
		// ExtensionRuntime-internal concern), so an extension that only
		// returns DataCBOR is a configuration error for this deployment.
		return nil, fmt.Errorf("extension %q: no JSON data returned", extensionID)
	}
	return decodeExtensionData(data, isEntity)
}

func rootOperationKeyword(sch *schema.Schema, typeName string) string {
	if sch != nil && sch.MutationType == typeName {
		return "mutation"
	}
	return "query"
}

func httpHeader(h map[string][]string) http.Header {
	out := http.Header{}
	for k, v := range h {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}

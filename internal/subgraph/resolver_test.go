package subgraph

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	executor "github.com/nexusgraph/federation-gateway/internal/executor"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

type fakeTransport struct {
	mu    sync.Mutex
	calls []capability.Request
	fn    func(capability.Request) (capability.Response, error)
}

func (t *fakeTransport) Fetch(ctx context.Context, req capability.Request) (capability.Response, error) {
	t.mu.Lock()
	t.calls = append(t.calls, req)
	t.mu.Unlock()
	return t.fn(req)
}

type fakeEntityCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeEntityCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *fakeEntityCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = value
	return nil
}

var _ capability.EntityCache = (*fakeEntityCache)(nil)

func testSchema() *schema.Schema {
	return &schema.Schema{
		QueryType:    "Query",
		MutationType: "Mutation",
		Subgraphs: map[schema.SubgraphID]*schema.Subgraph{
			"products": {ID: "products", Name: "products", URL: "http://products.internal/graphql"},
		},
	}
}

func TestResolver_Run_RootPlanSendsPostAndDecodesData(t *testing.T) {
	transport := &fakeTransport{fn: func(req capability.Request) (capability.Response, error) {
		require.Equal(t, "POST", req.Method)
		require.Equal(t, "http://products.internal/graphql", req.URL)
		return capability.Response{Status: 200, Body: []byte(`{"data":{"name":"widget"}}`)}, nil
	}}
	r := NewResolver(Config{Schema: testSchema(), Transport: transport})

	p := &plan.ExecutionPlan{
		ParentID: -1,
		TypeName: "Query",
		Resolver: &schema.ResolverDefinition{Kind: schema.ResolverKindGraphqlRootField, GraphqlRootField: &schema.GraphqlRootFieldResolver{EndpointID: "products"}},
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "name"}, SchemaName: "name", ASTField: astField("name", nil)}},
		},
	}

	result, err := r.Run(context.Background(), executor.SubgraphRequest{Plan: p})
	require.NoError(t, err)
	require.Equal(t, "widget", result.RootData["name"])
	require.Len(t, transport.calls, 1)
}

func TestResolver_Run_EntityPlanSendsRepresentationsAndDecodesEntities(t *testing.T) {
	transport := &fakeTransport{fn: func(req capability.Request) (capability.Response, error) {
		return capability.Response{Status: 200, Body: []byte(`{"data":{"_entities":[{"weight":2.5}]}}`)}, nil
	}}
	r := NewResolver(Config{Schema: testSchema(), Transport: transport})

	p := &plan.ExecutionPlan{
		ParentID:  0,
		TypeName:  "Product",
		InputKeys: schema.FieldSet{{Name: "id"}},
		Resolver: &schema.ResolverDefinition{
			Kind:                    schema.ResolverKindGraphqlFederationEntity,
			GraphqlFederationEntity: &schema.GraphqlFederationEntityResolver{EndpointID: "products", KeyFields: schema.FieldSet{{Name: "id"}}},
		},
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "weight"}, SchemaName: "weight", ASTField: astField("weight", nil)}},
		},
	}
	reps := []map[string]any{{"__typename": "Product", "id": "p1"}}

	result, err := r.Run(context.Background(), executor.SubgraphRequest{Plan: p, Representations: reps})
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
	require.Equal(t, float64(2.5), result.Entities[0].(map[string]any)["weight"])
}

func TestResolver_Run_ServerErrorWithoutBodyAndNoRetryBudgetIsAnError(t *testing.T) {
	transport := &fakeTransport{fn: func(req capability.Request) (capability.Response, error) {
		return capability.Response{Status: 502, Body: nil}, nil
	}}
	r := NewResolver(Config{Schema: testSchema(), Transport: transport})
	p := &plan.ExecutionPlan{
		ParentID: -1,
		TypeName: "Query",
		Resolver: &schema.ResolverDefinition{Kind: schema.ResolverKindGraphqlRootField, GraphqlRootField: &schema.GraphqlRootFieldResolver{EndpointID: "products"}},
	}

	_, err := r.Run(context.Background(), executor.SubgraphRequest{Plan: p})
	require.Error(t, err)
}

func TestResolver_Run_CacheHitSkipsTransport(t *testing.T) {
	transport := &fakeTransport{fn: func(req capability.Request) (capability.Response, error) {
		t.Fatal("transport should not be called on a cache hit")
		return capability.Response{}, nil
	}}
	r := NewResolver(Config{Schema: testSchema(), Transport: transport})

	p := &plan.ExecutionPlan{
		ParentID: -1,
		TypeName: "Query",
		Resolver: &schema.ResolverDefinition{Kind: schema.ResolverKindGraphqlRootField, GraphqlRootField: &schema.GraphqlRootFieldResolver{EndpointID: "products"}},
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "name"}, SchemaName: "name", ASTField: astField("name", nil)}},
		},
	}

	rendered := renderRoot(p, "query", nil)
	headers := projectHeaders(testSchema().Subgraphs["products"].HeaderRules, nil)
	headers["Content-Type"] = []string{"application/json"}
	key := cacheKey("products", rendered.Query, rendered.Variables, headers, "")

	cache := &fakeEntityCache{store: map[string][]byte{key: []byte(`{"data":{"name":"cached"}}`)}}
	r.cfg.EntityCache = cache

	result, err := r.Run(context.Background(), executor.SubgraphRequest{Plan: p})
	require.NoError(t, err)
	require.Equal(t, "cached", result.RootData["name"])
}

func TestResolver_Run_ConcurrentIdenticalCallsShareOneRoundTrip(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	transport := &fakeTransport{fn: func(req capability.Request) (capability.Response, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return capability.Response{Status: 200, Body: []byte(`{"data":{"name":"widget"}}`)}, nil
	}}
	r := NewResolver(Config{Schema: testSchema(), Transport: transport})

	p := &plan.ExecutionPlan{
		ParentID: -1,
		TypeName: "Query",
		Resolver: &schema.ResolverDefinition{Kind: schema.ResolverKindGraphqlRootField, GraphqlRootField: &schema.GraphqlRootFieldResolver{EndpointID: "products"}},
		Selection: []*plan.PlannedField{
			{Field: &operation.FieldShape{ResponseKey: operation.ResponseKey{ResponseName: "name"}, SchemaName: "name", ASTField: astField("name", nil)}},
		},
	}

	var wg sync.WaitGroup
	results := make([]*executor.SubgraphResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Run(context.Background(), executor.SubgraphRequest{Plan: p})
			require.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Give every goroutine a chance to register with singleflight before
	// the one in-flight call is allowed to complete.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, res := range results {
		require.Equal(t, "widget", res.RootData["name"])
	}
}

func TestResolver_Run_UnknownResolverKindErrors(t *testing.T) {
	r := NewResolver(Config{Schema: testSchema(), Transport: &fakeTransport{fn: func(capability.Request) (capability.Response, error) {
		t.Fatal("transport should not be called")
		return capability.Response{}, nil
	}}})
	p := &plan.ExecutionPlan{
		Resolver: &schema.ResolverDefinition{Kind: schema.ResolverKindFieldResolverExtension, FieldResolverExtension: &schema.FieldResolverExtensionResolver{DirectiveID: "x"}},
	}
	_, err := r.Run(context.Background(), executor.SubgraphRequest{Plan: p})
	require.Error(t, err)
}

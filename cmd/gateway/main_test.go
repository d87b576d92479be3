package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexusgraph/federation-gateway/internal/language"
	"github.com/nexusgraph/federation-gateway/internal/schema"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	runErr := fn()
	w.Close()
	out, _ := io.ReadAll(r)
	os.Stdout = old
	return string(out), runErr
}

func TestCmdHelp_PrintsTopicUsage(t *testing.T) {
	out, err := captureStdout(t, func() error { return run([]string{"help", "serve"}) })
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")
}

func TestCmdHelp_UnknownTopicErrors(t *testing.T) {
	err := run([]string{"help", "bogus"})
	require.Error(t, err)
}

func TestRun_UnknownCommandErrors(t *testing.T) {
	err := run([]string{"frobnicate"})
	require.Error(t, err)
}

const testSupergraphSDL = `
enum join__Graph {
  PRODUCTS @join__graph(name: "products", url: "http://products.internal")
}

type Query {
  topProducts: [Product!]! @join__field(graph: PRODUCTS)
}

type Product @join__type(graph: PRODUCTS, key: "id") {
  id: ID! @join__field(graph: PRODUCTS)
  name: String! @join__field(graph: PRODUCTS)
}
`

func writeTempSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supergraph.graphql")
	require.NoError(t, os.WriteFile(path, []byte(testSupergraphSDL), 0644))
	return path
}

func TestLoadConfig_AppliesDefaultsAndOverrides(t *testing.T) {
	schemaPath := writeTempSchema(t)
	configPath := filepath.Join(t.TempDir(), "gateway.yaml")
	yaml := `
schema:
  path: ` + schemaPath + `
server:
  addr: ":9090"
  pretty: true
complexity_control:
  mode: enforce
  max_complexity: 500
trusted_documents:
  enabled: true
  enforced: true
  bypass_header: X-Internal-Tooling
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0644))

	cfg, err := loadConfig(configPath)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.True(t, cfg.Server.Pretty)
	// Untouched defaults survive the partial override.
	require.True(t, cfg.Server.Introspection)
	require.Equal(t, "federation-gateway", cfg.Telemetry.ServiceName)

	require.Equal(t, "enforce", string(cfg.complexityPolicy().Mode))
	require.Equal(t, 500, cfg.complexityPolicy().MaxComplexity)

	td := cfg.trustedDocumentsPolicy()
	require.True(t, td.Enabled)
	require.True(t, td.Enforced)
	require.Equal(t, "X-Internal-Tooling", td.BypassHeader)
}

func TestBuildSchema_MissingPathErrors(t *testing.T) {
	cfg := defaultConfig()
	_, err := buildSchema(cfg)
	require.Error(t, err)
}

func TestBuildSchema_ParsesAndExtendsForIntrospection(t *testing.T) {
	cfg := defaultConfig()
	cfg.Schema.Path = writeTempSchema(t)

	sch, err := buildSchema(cfg)
	require.NoError(t, err)
	require.NotNil(t, sch.Types["__Schema"], "schema should be introspection-extended")
}

func TestApplySubgraphConfig_OverridesURLAndHeaderRulesByName(t *testing.T) {
	doc, err := language.ParseSchema("s.graphql", testSupergraphSDL)
	require.NoError(t, err)
	sch, err := schema.Build(doc)
	require.NoError(t, err)

	err = applySubgraphConfig(sch, map[string]SubgraphConfig{
		"products": {
			URL:          "http://products.new.internal",
			WebsocketURL: "ws://products.new.internal/ws",
			Headers: []HeaderRuleConfig{
				{Op: "forward", Name: "Authorization"},
				{Op: "insert", Name: "X-From-Gateway", Value: "1"},
			},
		},
	})
	require.NoError(t, err)

	sg := sch.Subgraphs[schema.SubgraphID("PRODUCTS")]
	require.NotNil(t, sg)
	require.Equal(t, "http://products.new.internal", sg.URL)
	require.Equal(t, "ws://products.new.internal/ws", sg.WebsocketURL)
	require.Len(t, sg.HeaderRules, 2)
	require.Equal(t, schema.HeaderRuleInsert, sg.HeaderRules[1].Op)
}

func TestApplySubgraphConfig_UnknownSubgraphNameErrors(t *testing.T) {
	doc, err := language.ParseSchema("s.graphql", testSupergraphSDL)
	require.NoError(t, err)
	sch, err := schema.Build(doc)
	require.NoError(t, err)

	err = applySubgraphConfig(sch, map[string]SubgraphConfig{"nonexistent": {URL: "http://x"}})
	require.Error(t, err)
}

func TestRetriesAndCacheTTLs_FallsBackToDeploymentDefault(t *testing.T) {
	doc, err := language.ParseSchema("s.graphql", testSupergraphSDL)
	require.NoError(t, err)
	sch, err := schema.Build(doc)
	require.NoError(t, err)

	deploymentRetry := &RetryConfig{MinPerSecond: 2, RetryPercent: 0.1}
	retries, ttls := retriesAndCacheTTLs(sch, map[string]SubgraphConfig{
		"products": {EntityCacheTTL: 0},
	}, deploymentRetry)

	id := schema.SubgraphID("PRODUCTS")
	require.Equal(t, 2.0, retries[id].MinPerSecond)
	require.Empty(t, ttls)
}

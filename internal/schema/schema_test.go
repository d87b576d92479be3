package schema

import (
	"testing"

	language "github.com/nexusgraph/federation-gateway/internal/language"
	"github.com/stretchr/testify/require"
)

const testSupergraph = `
enum join__Graph {
  PRODUCTS @join__graph(name: "products", url: "http://products.internal")
  SHIPPING @join__graph(name: "shipping", url: "http://shipping.internal")
}

type Query {
  topProducts: [Product!]! @join__field(graph: PRODUCTS)
}

type Product @join__type(graph: PRODUCTS, key: "id") @join__type(graph: SHIPPING, key: "id") {
  id: ID! @join__field(graph: PRODUCTS) @join__field(graph: SHIPPING)
  name: String! @join__field(graph: PRODUCTS)
  weight: Float! @join__field(graph: PRODUCTS)
  shippingEstimate: Float! @join__field(graph: SHIPPING, requires: "weight")
}
`

func mustBuild(t *testing.T, sdl string) *Schema {
	t.Helper()
	doc, err := language.ParseSchema("supergraph.graphql", sdl)
	require.NoError(t, err)
	s, err := Build(doc)
	require.NoError(t, err)
	return s
}

func TestBuild_RootFieldResolver(t *testing.T) {
	s := mustBuild(t, testSupergraph)
	q := s.GetQueryType()
	require.NotNil(t, q)
	f := q.FieldByName("topProducts")
	require.NotNil(t, f)
	require.Len(t, f.Resolvers, 1)
	require.Equal(t, ResolverKindGraphqlRootField, f.Resolvers[0].Kind)
	require.Equal(t, SubgraphID("PRODUCTS"), f.Resolvers[0].GraphqlRootField.EndpointID)
}

func TestBuild_EntityKeysAndRequires(t *testing.T) {
	s := mustBuild(t, testSupergraph)
	product := s.TypeByName("Product")
	require.NotNil(t, product)
	require.True(t, product.IsEntity())
	require.Len(t, product.Keys, 2)

	shipping := product.FieldByName("shippingEstimate")
	require.NotNil(t, shipping)
	require.Len(t, shipping.Resolvers, 1)
	require.Equal(t, ResolverKindGraphqlFederationEntity, shipping.Resolvers[0].Kind)
	require.True(t, shipping.Requires[SubgraphID("SHIPPING")].Contains("weight"))
}

func TestBuild_FieldExistence(t *testing.T) {
	s := mustBuild(t, testSupergraph)
	product := s.TypeByName("Product")
	name := product.FieldByName("name")
	require.True(t, name.ExistsIn("PRODUCTS"))
	require.False(t, name.ExistsIn("SHIPPING"))
}

func TestBuild_RejectsUnknownSubgraph(t *testing.T) {
	sdl := `
enum join__Graph {
  A @join__graph(name: "a", url: "http://a")
}
type Query {
  hello: String! @join__field(graph: A)
}
type Widget @join__type(graph: GHOST, key: "id") {
  id: ID! @join__field(graph: GHOST)
}
`
	doc, err := language.ParseSchema("supergraph.graphql", sdl)
	require.NoError(t, err)
	_, err = Build(doc)
	require.Error(t, err)
}

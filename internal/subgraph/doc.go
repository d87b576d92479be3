// Package subgraph implements the GraphQL-over-HTTP Subgraph Resolver
// (§4.5): it renders a plan into a subgraph request, sends it through a
// capability.Transport with header projection and entity-response caching,
// and ingests the result back into an executor.SubgraphResult.
//
// Resolver is the executor.Runner the Plan-DAG scheduler drives; everything
// else in this package exists to satisfy that one call.
package subgraph

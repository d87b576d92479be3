package planner

import (
	"sort"

	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// candidateGroup is one resolver choice and the subset of the work item's
// fields it would cover, aggregated per §4.3 step 2 ("Group by resolver_id,
// aggregating the output fields it can produce").
type candidateGroup struct {
	key      string
	resolver *schema.ResolverDefinition
	fields   []*operation.FieldShape
}

// groupCandidates collects, for every field, every resolver able to
// produce it, and groups fields by the resolver's batching identity:
// GraphqlRootField and GraphqlFederationEntity resolvers batch every
// sibling field the same subgraph/key combination can serve in one
// request; extension-backed resolvers are inherently per-field and are
// never batched with siblings.
func groupCandidates(fields []*operation.FieldShape) map[string]*candidateGroup {
	groups := map[string]*candidateGroup{}
	for _, f := range fields {
		for _, r := range f.SchemaField.Resolvers {
			key := groupKey(r, f)
			g, ok := groups[key]
			if !ok {
				g = &candidateGroup{key: key, resolver: r}
				groups[key] = g
			}
			g.fields = append(g.fields, f)
		}
	}
	return groups
}

func groupKey(r *schema.ResolverDefinition, f *operation.FieldShape) string {
	switch r.Kind {
	case schema.ResolverKindGraphqlRootField:
		return "root:" + string(r.GraphqlRootField.EndpointID)
	case schema.ResolverKindGraphqlFederationEntity:
		return "entity:" + string(r.GraphqlFederationEntity.EndpointID) + ":" + r.GraphqlFederationEntity.KeyFields.String()
	default:
		return string(r.ID) + ":" + f.SchemaName
	}
}

// selectBestGroup implements §4.3 step 2's selection policy: the candidate
// covering the most currently-unplanned fields wins; ties break toward
// fewer `@requires` dependencies, then toward the lexically smaller
// resolver-group key.
func selectBestGroup(groups map[string]*candidateGroup) *candidateGroup {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best *candidateGroup
	for _, k := range keys {
		g := groups[k]
		if best == nil || isBetter(g, best) {
			best = g
		}
	}
	return best
}

func isBetter(a, b *candidateGroup) bool {
	if len(a.fields) != len(b.fields) {
		return len(a.fields) > len(b.fields)
	}
	ra, rb := requiresCount(a), requiresCount(b)
	if ra != rb {
		return ra < rb
	}
	return a.key < b.key
}

func requiresCount(g *candidateGroup) int {
	subgraph := g.resolver.Subgraph()
	n := 0
	for _, f := range g.fields {
		if len(f.SchemaField.Requires[subgraph]) > 0 {
			n++
		}
	}
	return n
}

package schema

// ResolverKind tags which variant of ResolverDefinition is populated. Go
// has no native sum type, so this uses one exported field per variant
// plus a Kind discriminator, the same pattern a tagged union takes in
// hand-rolled Go.
type ResolverKind string

const (
	ResolverKindGraphqlRootField               ResolverKind = "GRAPHQL_ROOT_FIELD"
	ResolverKindGraphqlFederationEntity        ResolverKind = "GRAPHQL_FEDERATION_ENTITY"
	ResolverKindFieldResolverExtension         ResolverKind = "FIELD_RESOLVER_EXTENSION"
	ResolverKindExtension                      ResolverKind = "EXTENSION"
	ResolverKindSelectionSetResolverExtension  ResolverKind = "SELECTION_SET_RESOLVER_EXTENSION"
)

// ResolverID uniquely identifies a resolver definition within the schema.
type ResolverID string

// ResolverDefinition is the sum type of §3.1 "Resolver Definition".
// Exactly one of the variant pointers is non-nil, selected by Kind.
type ResolverDefinition struct {
	ID   ResolverID
	Kind ResolverKind

	GraphqlRootField              *GraphqlRootFieldResolver
	GraphqlFederationEntity       *GraphqlFederationEntityResolver
	FieldResolverExtension        *FieldResolverExtensionResolver
	Extension                     *ExtensionResolver
	SelectionSetResolverExtension *SelectionSetResolverExtensionResolver
}

// Subgraph returns the subgraph this resolver definition resolves against,
// for every variant that is subgraph-scoped.
func (r *ResolverDefinition) Subgraph() SubgraphID {
	switch r.Kind {
	case ResolverKindGraphqlRootField:
		return r.GraphqlRootField.EndpointID
	case ResolverKindGraphqlFederationEntity:
		return r.GraphqlFederationEntity.EndpointID
	case ResolverKindExtension:
		return r.Extension.SubgraphID
	case ResolverKindSelectionSetResolverExtension:
		return r.SelectionSetResolverExtension.SubgraphID
	default:
		return ""
	}
}

// GraphqlRootField is a root-level entry point into a subgraph: a field on
// Query/Mutation/Subscription that the subgraph resolves directly.
type GraphqlRootFieldResolver struct {
	EndpointID SubgraphID
}

// GraphqlFederationEntity resolves an entity field via the subgraph's
// `_entities(representations:)` root field, keyed by KeyFields.
type GraphqlFederationEntityResolver struct {
	EndpointID SubgraphID
	KeyFields  FieldSet
}

// FieldResolverExtension delegates a single field's value to an extension.
type FieldResolverExtensionResolver struct {
	DirectiveID string
}

// Extension resolves a field the way a full subgraph would, but the
// backing implementation is an extension rather than network GraphQL.
type ExtensionResolver struct {
	DirectiveID string
	SubgraphID  SubgraphID
	ExtensionID string
}

// SelectionSetResolverExtension hands an entire selection subtree under a
// subgraph boundary to an extension in one call.
type SelectionSetResolverExtensionResolver struct {
	SubgraphID  SubgraphID
	ExtensionID string
}

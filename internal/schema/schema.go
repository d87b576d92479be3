package schema

import "time"

// SubgraphID identifies one upstream subgraph by its composed name.
type SubgraphID string

// Subgraph holds the composition-time metadata about one upstream service.
// The URL/transport wiring itself is a deployment concern (§6.5 config):
// Build records identity and URL from the supergraph, and leaves
// WebsocketURL and HeaderRules for cmd/gateway to fill from config.
type Subgraph struct {
	ID           SubgraphID
	Name         string
	URL          string
	WebsocketURL string

	// HeaderRules are the forward/insert/remove/rename rules the Subgraph
	// Resolver applies when building a request to this subgraph (§4.5.1).
	// They have no SDL form; they come from deployment config.
	HeaderRules []HeaderRule
}

// HeaderRuleOp is the action one HeaderRule performs.
type HeaderRuleOp string

const (
	// HeaderRuleForward copies an incoming client header through unchanged,
	// matched by Name (or by NamePattern when Name is empty).
	HeaderRuleForward HeaderRuleOp = "FORWARD"
	// HeaderRuleInsert sets a fixed header value regardless of what the
	// client sent.
	HeaderRuleInsert HeaderRuleOp = "INSERT"
	// HeaderRuleRemove strips a header from what would otherwise be
	// forwarded.
	HeaderRuleRemove HeaderRuleOp = "REMOVE"
	// HeaderRuleRename forwards an incoming header's value under a
	// different outgoing name.
	HeaderRuleRename HeaderRuleOp = "RENAME"
)

// HeaderRule is one composed header-projection instruction (§4.5.1
// "Transport contract: ... headers derived from subgraph header rules").
// Rules apply in order; a later rule can undo an earlier one.
type HeaderRule struct {
	Op          HeaderRuleOp
	Name        string // header name for Forward/Insert/Remove/Rename(from)
	RenameTo    string // destination name for Rename
	InsertValue string // fixed value for Insert
}

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	// Subgraphs is the composed set of upstream services this supergraph
	// was built from, keyed by SubgraphID.
	Subgraphs map[SubgraphID]*Subgraph
	// Version fingerprints this immutable schema build, folded into the
	// Operation Preparer's cache fingerprint (§4.2 step 4).
	Version string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// TypeByName is a nil-safe lookup into Types.
func (s *Schema) TypeByName(name string) *Type {
	if s == nil {
		return nil
	}
	return s.Types[name]
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool

	// Keys makes this Object/Interface an entity (§3.1). Empty for
	// non-entity types.
	Keys []*Key
	// CacheControl is the schema-declared @cache(maxAge:) for this type,
	// used by the partial response cache (§4.7) when no field-level
	// directive overrides it.
	CacheControl *CacheControl
}

// IsEntity reports whether t carries at least one key, i.e. it is resolvable
// across subgraphs by representation (§3.1 Entity).
func (t *Type) IsEntity() bool { return t != nil && len(t.Keys) > 0 }

// FieldByName looks up a field by its schema name, returning nil if absent.
func (t *Type) FieldByName(name string) *Field {
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue // formerly ArgumentDefinitionMap
	Async             bool
	IsDeprecated      bool
	DeprecationReason string

	// ExistsInSubgraphs is the set of subgraph IDs where this field can be
	// resolved (§3.1 Field).
	ExistsInSubgraphs map[SubgraphID]struct{}
	// Resolvers is the set of resolver definitions that can produce this
	// field. Empty only for synthesized fields (introspection, __typename).
	Resolvers []*ResolverDefinition
	// Requires is the FieldSet this field consumes from sibling fields
	// before it can be resolved (@requires), keyed by the subgraph that
	// declared the @requires directive.
	Requires map[SubgraphID]FieldSet
	// Provides is the FieldSet a field guarantees its resolver already
	// populated on the returned object (@provides), keyed by subgraph.
	Provides map[SubgraphID]FieldSet
	// Overrides names the subgraph this field's ownership was overridden
	// from, if any (@override).
	Overrides *SubgraphID
	// External lists subgraphs where this field is declared but not
	// resolvable (@external) — a reference-only field used by requires/keys.
	External map[SubgraphID]struct{}
	// Shareable marks a root/object field that multiple subgraphs may
	// resolve identically (@shareable); the executor may then emit a
	// shared-root plan per owning subgraph (§4.3 "Shared roots").
	Shareable bool
	// Inaccessible marks a field hidden from the public schema but still
	// usable internally (e.g. as a key constituent).
	Inaccessible bool
	Auth         *AuthDirective
	CacheControl *CacheControl
}

// ExistsIn reports whether the field can be resolved in the given subgraph.
func (f *Field) ExistsIn(id SubgraphID) bool {
	if f == nil {
		return false
	}
	_, ok := f.ExistsInSubgraphs[id]
	return ok
}

// CacheControl mirrors a schema @cache(maxAge: ...) directive; only maxAge
// is kept, and a scope argument is not read.
type CacheControl struct {
	MaxAge time.Duration
}

// AuthDirective captures the union of @authenticated / @requiresScopes /
// @authorized. The Operation Preparer's modifier pass (§4.2 step 6)
// evaluates Authenticated and RequiredScopes; Authorized is recorded but
// not evaluated.
type AuthDirective struct {
	Authenticated bool
	RequiredScopes [][]string // OR-of-ANDs, matching @requiresScopes(scopes: [[...]])
	Authorized     *AuthorizedDirective
}

// AuthorizedDirective models @authorized(fields: ..., node: ..., args: ...,
// extension: ...) as parsed from the schema; nothing in the request path
// evaluates it.
type AuthorizedDirective struct {
	ExtensionID string
	Fields      FieldSet
	Node        FieldSet
	Arguments   []string
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue // formerly ArgumentDefinitionMap
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

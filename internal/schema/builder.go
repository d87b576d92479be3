package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	language "github.com/nexusgraph/federation-gateway/internal/language"
	"github.com/vektah/gqlparser/v2/ast"
)

// Build consumes a pre-composed supergraph SDL document (§1 Out-of-scope:
// "SDL parsing of source subgraph schemas; the core consumes a
// pre-composed supergraph model") and produces an immutable *Schema.
//
// The expected shape follows the Apollo Federation "join spec" convention
// the rest of the industry settled on: an `enum join__Graph` enumerates
// subgraphs via `@join__graph(name:, url:)`, object/interface types carry
// repeatable `@join__type(graph:, key:, resolvable:)`, and fields carry
// repeatable `@join__field(graph:, requires:, provides:, external:,
// override:)`. Entity keys, field attribution, requires/provides/override
// are all read from these. Cross-cutting directives (@shareable,
// @inaccessible, @authenticated, @requiresScopes, @authorized, @cache) are
// read as plain, non-graph-scoped directives since they apply identically
// across every subgraph that contributes the field.
func Build(doc *language.SchemaDocument) (*Schema, error) {
	b := &builder{
		doc:           doc,
		schema:        &Schema{Types: map[string]*Type{}, Directives: map[string]*Directive{}, Subgraphs: map[SubgraphID]*Subgraph{}},
		entityResolvers: map[[2]string]*ResolverDefinition{},
	}
	if err := b.run(); err != nil {
		return nil, err
	}
	if len(b.errors) > 0 {
		return nil, &BuildError{Errors: b.errors}
	}
	b.schema.Version = fingerprintSchema(b.schema)
	return b.schema, nil
}

// fingerprintSchema derives Schema.Version from the schema's canonical SDL
// rendering, so two builds that are semantically identical (same types,
// fields, directives) fingerprint identically regardless of supergraph
// document formatting or join-directive ordering.
func fingerprintSchema(s *Schema) string {
	sum := sha256.Sum256([]byte(Render(s)))
	return hex.EncodeToString(sum[:])
}

type builder struct {
	doc    *language.SchemaDocument
	schema *Schema
	errors []*ValidationError

	// entityResolvers dedupes GraphqlFederationEntity resolvers by
	// (typeName, subgraph) so every field of the same entity reuses one
	// resolver definition instead of minting a new one per field.
	entityResolvers map[[2]string]*ResolverDefinition
}

func (b *builder) fail(pos *ast.Position, format string, args ...any) {
	e := &ValidationError{Message: fmt.Sprintf(format, args...)}
	if pos != nil {
		e.Line, e.Column = pos.Line, pos.Column
	}
	b.errors = append(b.errors, e)
}

func (b *builder) run() error {
	b.seedBuiltins()
	b.buildSubgraphs()

	b.schema.QueryType, b.schema.MutationType, b.schema.SubscriptionType = b.rootTypeNames()

	// Pass 1: register every named type shell so field type references
	// (including forward references) resolve.
	for _, def := range b.doc.Definitions {
		b.registerShell(def)
	}

	// Pass 2: populate fields/keys/resolvers now that every type exists.
	for _, def := range b.doc.Definitions {
		b.populate(def)
	}

	for _, dir := range b.doc.Directives {
		if isJoinDirective(dir.Name) {
			continue
		}
		b.schema.Directives[dir.Name] = buildDirectiveDef(dir)
	}

	b.validateInvariants()
	return nil
}

// rootTypeNames resolves the query/mutation/subscription root type names
// from an explicit `schema { ... }` block, falling back to the
// conventional Query/Mutation/Subscription type names.
func (b *builder) rootTypeNames() (query, mutation, subscription string) {
	for _, sd := range b.doc.Schema {
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case ast.Query:
				query = op.Type
			case ast.Mutation:
				mutation = op.Type
			case ast.Subscription:
				subscription = op.Type
			}
		}
	}
	if query == "" {
		query = "Query"
	}
	if mutation == "" {
		if b.hasType("Mutation") {
			mutation = "Mutation"
		}
	}
	if subscription == "" {
		if b.hasType("Subscription") {
			subscription = "Subscription"
		}
	}
	return
}

func (b *builder) hasType(name string) bool {
	for _, def := range b.doc.Definitions {
		if def.Name == name {
			return true
		}
	}
	return false
}

func (b *builder) buildSubgraphs() {
	for _, def := range b.doc.Definitions {
		if def.Kind != ast.Enum || def.Name != "join__Graph" {
			continue
		}
		for _, v := range def.EnumValues {
			d := v.Directives.ForName("join__graph")
			if d == nil {
				continue
			}
			id := SubgraphID(v.Name)
			sg := &Subgraph{ID: id, Name: stringArg(d, "name", string(id))}
			sg.URL = stringArg(d, "url", "")
			b.schema.Subgraphs[id] = sg
		}
	}
}

func (b *builder) seedBuiltins() {
	for _, t := range []*Type{stringType, intType, floatType, booleanType, idType} {
		b.schema.Types[t.Name] = t
	}
	b.schema.Directives[includeDirective.Name] = includeDirective
	b.schema.Directives[skipDirective.Name] = skipDirective
}

func (b *builder) registerShell(def *ast.Definition) {
	if isJoinSpecType(def.Name) {
		return
	}
	switch def.Kind {
	case ast.Object:
		b.schema.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindObject, Description: def.Description}
	case ast.Interface:
		b.schema.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindInterface, Description: def.Description}
	case ast.Union:
		b.schema.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindUnion, Description: def.Description}
	case ast.Enum:
		b.schema.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindEnum, Description: def.Description}
	case ast.InputObject:
		b.schema.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindInputObject, Description: def.Description}
	case ast.Scalar:
		if _, exists := b.schema.Types[def.Name]; !exists {
			b.schema.Types[def.Name] = &Type{Name: def.Name, Kind: TypeKindScalar, Description: def.Description}
		}
	}
}

func (b *builder) populate(def *ast.Definition) {
	if isJoinSpecType(def.Name) {
		return
	}
	t := b.schema.Types[def.Name]
	if t == nil {
		return
	}
	switch def.Kind {
	case ast.Object, ast.Interface:
		b.populateObjectLike(t, def)
	case ast.Union:
		for _, m := range def.Types {
			t.PossibleTypes = append(t.PossibleTypes, m)
		}
		sort.Strings(t.PossibleTypes)
	case ast.Enum:
		for _, v := range def.EnumValues {
			t.EnumValues = append(t.EnumValues, &EnumValue{Name: v.Name, Description: v.Description})
		}
	case ast.InputObject:
		for _, v := range def.Fields {
			t.InputFields = append(t.InputFields, &InputValue{
				Name: v.Name, Description: v.Description, Type: buildASTTypeRef(v.Type), DefaultValue: nil,
			})
		}
		t.OneOf = def.Directives.ForName("oneOf") != nil
	}
}

func (b *builder) populateObjectLike(t *Type, def *ast.Definition) {
	for _, iface := range def.Interfaces {
		t.Interfaces = append(t.Interfaces, iface)
	}
	sort.Strings(t.Interfaces)

	// Keys: one @join__type(graph:, key:, resolvable:) per subgraph the
	// type participates in; multiple occurrences are allowed (composite
	// keys, or the same subgraph contributing more than one key).
	subgraphMembership := map[SubgraphID]struct{}{}
	for _, d := range def.Directives {
		if d.Name != "join__type" {
			continue
		}
		graph := SubgraphID(enumArg(d, "graph"))
		if graph == "" {
			continue
		}
		subgraphMembership[graph] = struct{}{}
		keyStr := stringArg(d, "key", "")
		if keyStr == "" {
			continue
		}
		fs, err := language.ParseFieldSet(keyStr)
		if err != nil {
			b.fail(d.Position, "type %s: invalid @join__type key %q: %v", t.Name, keyStr, err)
			continue
		}
		t.Keys = append(t.Keys, &Key{
			Subgraph:   graph,
			Fields:     fieldSetFromAST(fs),
			Resolvable: boolArg(d, "resolvable", true),
		})
	}
	if cc := def.Directives.ForName("cache"); cc != nil {
		t.CacheControl = buildCacheControl(cc)
	}

	for _, fdef := range def.Fields {
		t.Fields = append(t.Fields, b.buildFieldDef(t, fdef, subgraphMembership))
	}
}

func (b *builder) buildFieldDef(parent *Type, fdef *ast.FieldDefinition, parentSubgraphs map[SubgraphID]struct{}) *Field {
	f := &Field{
		Name:              fdef.Name,
		Description:       fdef.Description,
		Type:              buildASTTypeRef(fdef.Type),
		ExistsInSubgraphs: map[SubgraphID]struct{}{},
		Requires:          map[SubgraphID]FieldSet{},
		Provides:          map[SubgraphID]FieldSet{},
		External:          map[SubgraphID]struct{}{},
	}
	for _, a := range fdef.Arguments {
		f.Arguments = append(f.Arguments, &InputValue{Name: a.Name, Description: a.Description, Type: buildASTTypeRef(a.Type)})
	}

	joinFields := directivesNamed(fdef.Directives, "join__field")
	if len(joinFields) == 0 {
		for sg := range parentSubgraphs {
			f.ExistsInSubgraphs[sg] = struct{}{}
		}
	}
	for _, d := range joinFields {
		graph := SubgraphID(enumArg(d, "graph"))
		if graph == "" {
			continue
		}
		if boolArg(d, "external", false) {
			f.External[graph] = struct{}{}
			continue
		}
		f.ExistsInSubgraphs[graph] = struct{}{}
		if req := stringArg(d, "requires", ""); req != "" {
			if fs, err := language.ParseFieldSet(req); err == nil {
				f.Requires[graph] = fieldSetFromAST(fs)
			} else {
				b.fail(d.Position, "%s.%s: invalid @requires %q: %v", parent.Name, f.Name, req, err)
			}
		}
		if prov := stringArg(d, "provides", ""); prov != "" {
			if fs, err := language.ParseFieldSet(prov); err == nil {
				f.Provides[graph] = fieldSetFromAST(fs)
			} else {
				b.fail(d.Position, "%s.%s: invalid @provides %q: %v", parent.Name, f.Name, prov, err)
			}
		}
		if from := stringArg(d, "override", ""); from != "" {
			sg := SubgraphID(from)
			f.Overrides = &sg
		}
	}

	f.Shareable = fdef.Directives.ForName("shareable") != nil
	f.Inaccessible = fdef.Directives.ForName("inaccessible") != nil
	if cc := fdef.Directives.ForName("cache"); cc != nil {
		f.CacheControl = buildCacheControl(cc)
	}
	f.Auth = buildAuthDirective(fdef.Directives)

	isRoot := parent.Name == b.schema.QueryType || parent.Name == b.schema.MutationType || parent.Name == b.schema.SubscriptionType
	for sg := range f.ExistsInSubgraphs {
		if isRoot {
			f.Resolvers = append(f.Resolvers, &ResolverDefinition{
				ID: ResolverID(fmt.Sprintf("root:%s:%s.%s", sg, parent.Name, f.Name)), Kind: ResolverKindGraphqlRootField,
				GraphqlRootField: &GraphqlRootFieldResolver{EndpointID: sg},
			})
			continue
		}
		if key := entityKeyFor(parent, sg); key != nil && key.Resolvable {
			f.Resolvers = append(f.Resolvers, b.entityResolverFor(parent.Name, sg, key.Fields))
		}
	}
	if ext := fdef.Directives.ForName("resolverExtension"); ext != nil {
		f.Resolvers = append(f.Resolvers, &ResolverDefinition{
			ID: ResolverID("ext:" + parent.Name + "." + f.Name), Kind: ResolverKindFieldResolverExtension,
			FieldResolverExtension: &FieldResolverExtensionResolver{DirectiveID: stringArg(ext, "directive", "")},
		})
	}
	return f
}

func (b *builder) entityResolverFor(typeName string, sg SubgraphID, key FieldSet) *ResolverDefinition {
	k := [2]string{typeName, string(sg)}
	if r, ok := b.entityResolvers[k]; ok {
		return r
	}
	r := &ResolverDefinition{
		ID: ResolverID("entity:" + typeName + ":" + string(sg)), Kind: ResolverKindGraphqlFederationEntity,
		GraphqlFederationEntity: &GraphqlFederationEntityResolver{EndpointID: sg, KeyFields: key},
	}
	b.entityResolvers[k] = r
	return r
}

func entityKeyFor(t *Type, sg SubgraphID) *Key {
	for _, k := range t.Keys {
		if k.Subgraph == sg {
			return k
		}
	}
	return nil
}

func (b *builder) validateInvariants() {
	for _, t := range b.schema.Types {
		if t.Kind != TypeKindObject && t.Kind != TypeKindInterface {
			continue
		}
		for _, f := range t.Fields {
			if len(f.Resolvers) == 0 && !isSynthesizedField(f.Name) {
				b.fail(nil, "field %s.%s has no resolvers and is not synthesized", t.Name, f.Name)
			}
			for _, r := range f.Resolvers {
				sg := r.Subgraph()
				if sg == "" {
					continue
				}
				if _, ok := b.schema.Subgraphs[sg]; !ok {
					b.fail(nil, "field %s.%s: resolver references unknown subgraph %q", t.Name, f.Name, sg)
				}
			}
		}
		for _, k := range t.Keys {
			for _, name := range k.Fields.Flatten() {
				top := strings.SplitN(name, ".", 2)[0]
				if fd := t.FieldByName(top); fd == nil || !fd.ExistsIn(k.Subgraph) {
					b.fail(nil, "type %s: key field %q not present in subgraph %q", t.Name, top, k.Subgraph)
				}
			}
		}
	}
}

func isSynthesizedField(name string) bool {
	return name == "__typename" || strings.HasPrefix(name, "__")
}

func isJoinSpecType(name string) bool {
	return strings.HasPrefix(name, "join__") || strings.HasPrefix(name, "core__") || strings.HasPrefix(name, "link__")
}

func isJoinDirective(name string) bool {
	switch name {
	case "join__type", "join__field", "join__graph", "join__owner", "join__implements", "link":
		return true
	}
	return false
}

func buildASTTypeRef(t *ast.Type) *TypeRef {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return &TypeRef{Kind: TypeRefKindNonNull, OfType: buildASTTypeRef(&inner)}
	}
	if t.Elem != nil {
		return &TypeRef{Kind: TypeRefKindList, OfType: buildASTTypeRef(t.Elem)}
	}
	return &TypeRef{Kind: TypeRefKindNamed, Named: t.NamedType}
}

func buildDirectiveDef(dir *ast.DirectiveDefinition) *Directive {
	locations := make([]string, 0, len(dir.Locations))
	for _, l := range dir.Locations {
		locations = append(locations, string(l))
	}
	d := &Directive{Name: dir.Name, Description: dir.Description, Locations: locations, IsRepeatable: dir.IsRepeatable}
	for _, a := range dir.Arguments {
		d.Arguments = append(d.Arguments, &InputValue{Name: a.Name, Description: a.Description, Type: buildASTTypeRef(a.Type)})
	}
	return d
}

func buildCacheControl(d *ast.Directive) *CacheControl {
	return &CacheControl{MaxAge: time.Duration(secondsArg(d, "maxAge", 0)) * time.Second}
}

func buildAuthDirective(dirs ast.DirectiveList) *AuthDirective {
	auth := dirs.ForName("authenticated") != nil
	var scopes [][]string
	if rs := dirs.ForName("requiresScopes"); rs != nil {
		scopes = scopesArg(rs, "scopes")
	}
	var authorized *AuthorizedDirective
	if az := dirs.ForName("authorized"); az != nil {
		authorized = &AuthorizedDirective{ExtensionID: stringArg(az, "extension", "")}
		if fstr := stringArg(az, "fields", ""); fstr != "" {
			if fs, err := language.ParseFieldSet(fstr); err == nil {
				authorized.Fields = fieldSetFromAST(fs)
			}
		}
		if nstr := stringArg(az, "node", ""); nstr != "" {
			if fs, err := language.ParseFieldSet(nstr); err == nil {
				authorized.Node = fieldSetFromAST(fs)
			}
		}
	}
	if !auth && scopes == nil && authorized == nil {
		return nil
	}
	return &AuthDirective{Authenticated: auth, RequiredScopes: scopes, Authorized: authorized}
}

func fieldSetFromAST(ss ast.SelectionSet) FieldSet {
	fs := make(FieldSet, 0, len(ss))
	for _, sel := range ss {
		f, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		fs = append(fs, FieldSetItem{Name: f.Name, Selections: fieldSetFromAST(f.SelectionSet)})
	}
	return fs
}

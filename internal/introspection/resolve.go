package introspection

import (
	"fmt"
	"sort"

	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Resolve computes the full response data for fields — every root-level
// __schema/__type occurrence Split separated out — directly from sch's Go
// struct graph (§4.1): no subgraph round trip, no Runner, no Plan DAG node.
// The returned map is keyed by response name and is ready to merge via
// response.Builder.MergeRoot alongside plan.PlannedFieldsFor(fields, shapes)
// — see Plan, which does both.
func Resolve(sch *schema.Schema, fields []*operation.FieldShape, shapes []*operation.ConcreteShape, variables map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f.SchemaName {
		case "__schema":
			out[f.ResponseKey.ResponseName] = resolveSelection(sch, f, sch, shapes, variables)
		case "__type":
			args := evalArgs(f, variables)
			name, _ := args["name"].(string)
			t := sch.Types[name]
			if t == nil {
				out[f.ResponseKey.ResponseName] = nil
				continue
			}
			out[f.ResponseKey.ResponseName] = resolveSelection(sch, f, t, shapes, variables)
		}
	}
	return out
}

// resolveSelection builds the response object for one object-typed
// occurrence of fs, whose runtime value is source (a *schema.Schema,
// *schema.Type, *schema.TypeRef, *schema.Field, *schema.InputValue,
// *schema.EnumValue or *schema.Directive) — one per introspection meta-type,
// all of them GraphQL OBJECT kind, so fs.PossibleShapes always carries
// exactly one entry (shapeBuilder.buildPossibleShapes's TypeKindObject
// case).
func resolveSelection(sch *schema.Schema, fs *operation.FieldShape, source any, shapes []*operation.ConcreteShape, variables map[string]any) map[string]any {
	shapeID, ok := soleShape(fs.PossibleShapes)
	if !ok {
		return nil
	}
	shape := shapes[shapeID]
	out := make(map[string]any, len(shape.Fields))
	for _, nfs := range shape.Fields {
		args := evalArgs(nfs, variables)
		v, ok := resolveLeaf(sch, source, nfs.SchemaName, args)
		if !ok {
			continue
		}
		out[nfs.ResponseKey.ResponseName] = resolveValue(sch, nfs, v, shapes, variables)
	}
	if shape.TypenameKey != nil {
		out[shape.TypenameKey.ResponseName] = typeNameOf(source)
	}
	return out
}

// resolveValue shapes one leaf resolver's raw Go return value into the
// JSON-like tree response.Builder's shape-guided seeding expects (§9):
// typed nil pointers become untyped nil, typed slices become []any, and
// everything else (an object-typed result, or a plain scalar) passes
// through — recursing into resolveSelection only for fs occurrences that
// actually carry a nested selection.
func resolveValue(sch *schema.Schema, fs *operation.FieldShape, value any, shapes []*operation.ConcreteShape, variables map[string]any) any {
	value = normalizePointer(value)
	if value == nil {
		return nil
	}
	if items, ok := asSlice(value); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = resolveValue(sch, fs, item, shapes, variables)
		}
		return out
	}
	if len(fs.PossibleShapes) == 0 {
		return value
	}
	return resolveSelection(sch, fs, value, shapes, variables)
}

// normalizePointer converts the handful of possibly-nil pointer types these
// resolvers return into a plain, interface-nil-safe value: a typed nil
// *string or *schema.Type/*schema.TypeRef otherwise reaches the generic
// `value == nil` check below still non-nil at the interface level.
func normalizePointer(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return nil
		}
		return *p
	case *schema.Type:
		if p == nil {
			return nil
		}
		return p
	case *schema.TypeRef:
		if p == nil {
			return nil
		}
		return p
	}
	return v
}

// asSlice widens one of this package's known resolver slice-return types
// into []any, so resolveValue can recurse uniformly regardless of element
// type.
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []*schema.Type:
		return wrap(len(s), func(i int) any { return s[i] }), true
	case []*schema.Field:
		return wrap(len(s), func(i int) any { return s[i] }), true
	case []*schema.InputValue:
		return wrap(len(s), func(i int) any { return s[i] }), true
	case []*schema.EnumValue:
		return wrap(len(s), func(i int) any { return s[i] }), true
	case []*schema.Directive:
		return wrap(len(s), func(i int) any { return s[i] }), true
	case []string:
		return wrap(len(s), func(i int) any { return s[i] }), true
	}
	return nil, false
}

func wrap(n int, at func(int) any) []any {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = at(i)
	}
	return out
}

func soleShape(shapes map[string]operation.ShapeID) (operation.ShapeID, bool) {
	for _, id := range shapes {
		return id, true
	}
	return 0, false
}

func typeNameOf(source any) string {
	switch source.(type) {
	case *schema.Schema:
		return "__Schema"
	case *schema.Type:
		return "__Type"
	case *schema.TypeRef:
		return "__Type"
	case *schema.Field:
		return "__Field"
	case *schema.InputValue:
		return "__InputValue"
	case *schema.EnumValue:
		return "__EnumValue"
	case *schema.Directive:
		return "__Directive"
	}
	return ""
}

// evalArgs evaluates fs's own AST arguments against variables, the same way
// EvaluateModifiers resolves a directive's `if:` argument — but through
// ast.Value.Value(vars), since includeDeprecated/name may be passed as a
// variable reference rather than a literal.
func evalArgs(fs *operation.FieldShape, variables map[string]any) map[string]any {
	if fs.ASTField == nil || len(fs.ASTField.Arguments) == 0 {
		return nil
	}
	out := make(map[string]any, len(fs.ASTField.Arguments))
	for _, arg := range fs.ASTField.Arguments {
		v, err := arg.Value.Value(variables)
		if err != nil {
			continue
		}
		out[arg.Name] = v
	}
	return out
}

func resolveLeaf(sch *schema.Schema, source any, field string, args map[string]any) (any, bool) {
	switch src := source.(type) {
	case *schema.Schema:
		return resolveSchemaField(src, field)
	case *schema.Type:
		return resolveTypeField(sch, src, field, args)
	case *schema.TypeRef:
		return resolveTypeRefField(sch, src, field, args)
	case *schema.Field:
		return resolveFieldField(src, field, args)
	case *schema.InputValue:
		return resolveInputValueField(src, field)
	case *schema.EnumValue:
		return resolveEnumValueField(src, field)
	case *schema.Directive:
		return resolveDirectiveField(src, field, args)
	}
	return nil, false
}

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return resolveSchemaTypes(sch), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return sch.GetMutationType(), true
	case "subscriptionType":
		return sch.GetSubscriptionType(), true
	case "directives":
		return resolveSchemaDirectives(sch), true
	case "description":
		return sch.Description, true
	}
	return nil, false
}

func resolveTypeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return t.Description, true
	case "specifiedByURL":
		return t.SpecifiedByURL, true
	case "fields":
		return resolveTypeFields(t, args), true
	case "interfaces":
		return resolveTypeInterfaces(sch, t), true
	case "possibleTypes":
		return resolveTypePossibleTypes(sch, t), true
	case "enumValues":
		return resolveTypeEnumValues(t, args), true
	case "inputFields":
		return resolveTypeInputFields(t, args), true
	case "isOneOf":
		return t.OneOf, true
	case "ofType":
		// Named types (as opposed to the LIST/NON_NULL wrapper nodes
		// represented by *schema.TypeRef) never have an ofType.
		return nil, true
	}
	return nil, false
}

func resolveTypeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "name":
		if schema.IsNonNull(tr) || schema.IsList(tr) {
			return nil, true
		}
		return tr.Named, true
	case "ofType":
		if tr.Kind == schema.TypeRefKindNonNull || tr.Kind == schema.TypeRefKindList {
			return tr.OfType, true
		}
		return nil, true
	default:
		if name := schema.GetNamedType(tr); name != "" {
			if def := sch.Types[name]; def != nil {
				return resolveTypeField(sch, def, field, args)
			}
		}
		return nil, true
	}
}

func resolveFieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return f.Description, true
	case "args":
		return resolveFieldArgs(f, args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return resolveFieldDeprecationReason(f), true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "type":
		return a.Type, true
	case "defaultValue":
		return resolveInputValueDefaultValue(a), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return resolveInputValueDeprecationReason(a), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return ev.Description, true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return resolveEnumValueDeprecationReason(ev), true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return d.Description, true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return resolveDirectiveLocations(d), true
	case "args":
		return resolveDirectiveArgs(d, args), true
	}
	return nil, false
}

func resolveSchemaTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveSchemaDirectives(sch *schema.Schema) []*schema.Directive {
	out := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeFields(t *schema.Type, args map[string]any) []*schema.Field {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.Field{}
	for _, f := range t.Fields {
		if !includeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeInterfaces(sch *schema.Schema, t *schema.Type) []*schema.Type {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	out := make([]*schema.Type, 0, len(t.Interfaces))
	for _, name := range t.Interfaces {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypePossibleTypes(sch *schema.Schema, t *schema.Type) []*schema.Type {
	if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
		return nil
	}
	out := []*schema.Type{}
	for _, name := range t.PossibleTypes {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeEnumValues(t *schema.Type, args map[string]any) []*schema.EnumValue {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.EnumValue{}
	for _, ev := range t.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeInputFields(t *schema.Type, args map[string]any) []*schema.InputValue {
	if t.Kind != schema.TypeKindInputObject {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, iv := range t.InputFields {
		if !includeDeprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveFieldArgs(f *schema.Field, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, a := range f.Arguments {
		if !includeDeprecated && a.IsDeprecated {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveFieldDeprecationReason(f *schema.Field) *string {
	if f.IsDeprecated {
		return &f.DeprecationReason
	}
	return nil
}

func resolveInputValueDefaultValue(a *schema.InputValue) *string {
	if a.DefaultValue == nil {
		return nil
	}
	value := fmt.Sprintf("%v", a.DefaultValue)
	return &value
}

func resolveInputValueDeprecationReason(a *schema.InputValue) *string {
	if a.IsDeprecated {
		return &a.DeprecationReason
	}
	return nil
}

func resolveEnumValueDeprecationReason(ev *schema.EnumValue) *string {
	if ev.IsDeprecated {
		return &ev.DeprecationReason
	}
	return nil
}

func resolveDirectiveLocations(d *schema.Directive) []string {
	locs := make([]string, len(d.Locations))
	copy(locs, d.Locations)
	sort.Strings(locs)
	return locs
}

func resolveDirectiveArgs(d *schema.Directive, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, a := range d.Arguments {
		if !includeDeprecated && a.IsDeprecated {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func boolArg(args map[string]any, name string, def bool) bool {
	if args == nil {
		return def
	}
	if v, ok := args[name]; ok {
		if b, ok2 := v.(bool); ok2 {
			return b
		}
	}
	return def
}

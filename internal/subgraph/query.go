package subgraph

import (
	"strconv"
	"strings"

	language "github.com/nexusgraph/federation-gateway/internal/language"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
)

// renderedRequest is the GraphQL document text plus the subset of the
// client's variables it actually references, ready to become a subgraph
// request body (§4.5.1 "query" / "variables").
type renderedRequest struct {
	Query     string
	Variables map[string]any
}

// renderRoot builds the query document for a root-level plan: its own
// selection set lifted straight under the operation's root fields.
func renderRoot(p *plan.ExecutionPlan, opKeyword string, clientVars map[string]any) renderedRequest {
	var b strings.Builder
	used := map[string]any{}
	b.WriteString(opKeyword)
	b.WriteString(" {\n")
	renderFields(&b, p.Selection, 1, clientVars, used)
	b.WriteString("}\n")
	return renderedRequest{Query: b.String(), Variables: used}
}

// renderEntity builds the `_entities(representations: $representations)`
// query document for an entity-fetch plan (§4.5.1).
func renderEntity(p *plan.ExecutionPlan, clientVars map[string]any) renderedRequest {
	var b strings.Builder
	used := map[string]any{}
	b.WriteString("query($representations: [_Any!]!) {\n")
	b.WriteString("  _entities(representations: $representations) {\n")
	b.WriteString("    ... on ")
	b.WriteString(p.TypeName)
	b.WriteString(" {\n")
	renderFields(&b, p.Selection, 3, clientVars, used)
	b.WriteString("    }\n  }\n}\n")
	return renderedRequest{Query: b.String(), Variables: used}
}

func renderFields(b *strings.Builder, fields []*plan.PlannedField, depth int, clientVars map[string]any, used map[string]any) {
	indent := strings.Repeat("  ", depth)
	for _, pf := range fields {
		f := pf.Field
		b.WriteString(indent)
		if f.ResponseKey.ResponseName != f.SchemaName {
			b.WriteString(f.ResponseKey.ResponseName)
			b.WriteString(": ")
		}
		b.WriteString(f.SchemaName)
		renderArguments(b, f.ASTField, clientVars, used)

		switch len(pf.Nested) {
		case 0:
			b.WriteString("\n")
		case 1:
			for typeName, nested := range pf.Nested {
				b.WriteString(" {\n")
				if key, ok := pf.NestedTypenameKey[typeName]; ok && key != nil {
					writeTypenameKey(b, depth+1, *key)
				}
				renderFields(b, nested, depth+1, clientVars, used)
				b.WriteString(indent)
				b.WriteString("}\n")
			}
		default:
			// More than one possible concrete type: the bare, unaliased
			// __typename below is load-bearing for ingestion, not just for
			// a client that asked for it — resolvePlannedShape (§4.6.1)
			// reads it from the raw subgraph object to pick which
			// ConcreteShape to seed against.
			b.WriteString(" {\n")
			b.WriteString(indent)
			b.WriteString("  __typename\n")
			for typeName, nested := range pf.Nested {
				b.WriteString(indent)
				b.WriteString("  ... on ")
				b.WriteString(typeName)
				b.WriteString(" {\n")
				if key, ok := pf.NestedTypenameKey[typeName]; ok && key != nil {
					writeTypenameKey(b, depth+2, *key)
				}
				renderFields(b, nested, depth+2, clientVars, used)
				b.WriteString(indent)
				b.WriteString("  }\n")
			}
			b.WriteString(indent)
			b.WriteString("}\n")
		}
	}
}

// writeTypenameKey emits an aliased __typename selection under an inline
// fragment, matching the response key the shape tree recorded for it
// (NestedTypenameKey) so the Response Builder's synthesized value (it never
// needs the subgraph's own __typename — see plan.ExecutionPlan.TypeName's
// doc comment) lines up with what ingestion expects at that position.
func writeTypenameKey(b *strings.Builder, depth int, key operation.ResponseKey) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	if key.ResponseName != "__typename" {
		b.WriteString(key.ResponseName)
		b.WriteString(": ")
	}
	b.WriteString("__typename\n")
}

func renderArguments(b *strings.Builder, field *language.Field, clientVars map[string]any, used map[string]any) {
	if field == nil || len(field.Arguments) == 0 {
		return
	}
	b.WriteString("(")
	for i, arg := range field.Arguments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		b.WriteString(": ")
		b.WriteString(renderValue(arg.Value, clientVars, used))
	}
	b.WriteString(")")
}

// renderValue renders one AST argument value as GraphQL literal text,
// resolving Variable-kind values against clientVars and recording the ones
// actually referenced into used so only they are forwarded in the
// subgraph request's own `variables` object.
func renderValue(v *language.Value, clientVars map[string]any, used map[string]any) string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case language.Variable:
		if val, ok := clientVars[v.Raw]; ok {
			used[v.Raw] = val
		}
		return "$" + v.Raw
	case language.StringValue, language.BlockValue:
		return strconv.Quote(v.Raw)
	case language.NullValue:
		return "null"
	case language.ListValue:
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			parts = append(parts, renderValue(c.Value, clientVars, used))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case language.ObjectValue:
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			parts = append(parts, c.Name+": "+renderValue(c.Value, clientVars, used))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		// IntValue, FloatValue, BooleanValue, EnumValue: source text is
		// already valid GraphQL syntax as-is.
		return v.Raw
	}
}

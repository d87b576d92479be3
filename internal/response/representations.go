package response

import (
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// ExtractRepresentations builds one `_entities(representations:)` entry per
// parent object, keyed by the subgraph field names named in keys (§4.5.1,
// §3.1 @key). Lookups match on ResponseField.SchemaName rather than the
// (possibly aliased) response key, since an entity key always names the
// underlying schema field regardless of what alias the operation used for
// it elsewhere in the response. __typename is always included, matching
// the shape the Apollo federation _entities convention expects.
func (b *Builder) ExtractRepresentations(parents []ObjectRef, typeName string, keys schema.FieldSet) []map[string]any {
	out := make([]map[string]any, len(parents))
	for i, ref := range parents {
		obj := b.store.object(ref)
		rep := b.store.extractFieldSet(obj.fields, keys)
		rep["__typename"] = typeName
		out[i] = rep
	}
	return out
}

// extractFieldSet walks fs against fields, matching each item by
// SchemaName. A leaf item's value is converted to a plain Go value via
// finalizeValue; an item with nested Selections descends into the matched
// field's object (a composite/nested key, e.g. `@key(fields: "org { id }")`).
func (s *Store) extractFieldSet(fields []ResponseField, fs schema.FieldSet) map[string]any {
	out := make(map[string]any, len(fs))
	for _, item := range fs {
		f := findBySchemaName(fields, item.Name)
		if f == nil {
			continue
		}
		if len(item.Selections) == 0 {
			v, _ := s.finalizeValue(f.Value)
			out[item.Name] = v
			continue
		}
		if f.Value.Kind != KindObject {
			out[item.Name] = nil
			continue
		}
		nested := s.object(f.Value.Object)
		out[item.Name] = s.extractFieldSet(nested.fields, item.Selections)
	}
	return out
}

func findBySchemaName(fields []ResponseField, name string) *ResponseField {
	for i := range fields {
		if fields[i].SchemaName == name {
			return &fields[i]
		}
	}
	return nil
}

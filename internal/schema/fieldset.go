package schema

import "strings"

// FieldSet is a nested selection of field names, as used by @key, @requires
// and @provides (§3.1). It mirrors the grammar of a GraphQL selection set
// but only ever names fields — no fragments, arguments or directives.
type FieldSet []FieldSetItem

// FieldSetItem is one selected field within a FieldSet, with an optional
// nested selection for object-typed fields.
type FieldSetItem struct {
	Name       string
	Selections FieldSet
}

// Contains reports whether name appears at the top level of fs.
func (fs FieldSet) Contains(name string) bool {
	for _, it := range fs {
		if it.Name == name {
			return true
		}
	}
	return false
}

// Get returns the item named name, or nil.
func (fs FieldSet) Get(name string) *FieldSetItem {
	for i := range fs {
		if fs[i].Name == name {
			return &fs[i]
		}
	}
	return nil
}

// Flatten returns every field path (dot-joined) reachable from fs, used to
// compute the set of columns a representation or a requires-fetch needs.
func (fs FieldSet) Flatten() []string {
	var out []string
	var walk func(prefix string, items FieldSet)
	walk = func(prefix string, items FieldSet) {
		for _, it := range items {
			path := it.Name
			if prefix != "" {
				path = prefix + "." + it.Name
			}
			if len(it.Selections) == 0 {
				out = append(out, path)
				continue
			}
			walk(path, it.Selections)
		}
	}
	walk("", fs)
	return out
}

// String renders fs back into `@key(fields:)` selection syntax, used when
// building the `_entities` query against a subgraph (§4.5.1) and for
// diagnostics.
func (fs FieldSet) String() string {
	var b strings.Builder
	writeFieldSet(&b, fs)
	return b.String()
}

func writeFieldSet(b *strings.Builder, fs FieldSet) {
	b.WriteString("{ ")
	for i, it := range fs {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(it.Name)
		if len(it.Selections) > 0 {
			b.WriteString(" ")
			writeFieldSet(b, it.Selections)
		}
	}
	b.WriteString(" }")
}

// Key is one (subgraph, FieldSet, resolvable) entity key (§3.1).
type Key struct {
	Subgraph   SubgraphID
	Fields     FieldSet
	Resolvable bool
}

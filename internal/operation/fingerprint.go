package operation

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	language "github.com/nexusgraph/federation-gateway/internal/language"
)

// ComputeFingerprint implements §4.2 step 4: a stable hash over the
// normalized operation plus the schema version it was bound against. Two
// requests with equal fingerprints may share the same PreparedOperation
// regardless of differing variable values, since the fingerprint never
// depends on variables — only on the shape of the query.
func ComputeFingerprint(doc *PreparedDocument, op *language.OperationDefinition, schemaVersion string) Fingerprint {
	var b strings.Builder
	b.WriteString(schemaVersion)
	b.WriteByte('\n')
	b.WriteString(string(op.Operation))
	b.WriteByte('\n')
	writeCanonicalSelectionSet(&b, doc.Query, op.SelectionSet, map[string]bool{})

	sum := sha256.Sum256([]byte(b.String()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// writeCanonicalSelectionSet renders a selection set into a stable textual
// form: fragment spreads are inlined and argument lists are sorted by name,
// so two documents that are semantically identical but textually reordered
// fingerprint identically.
func writeCanonicalSelectionSet(b *strings.Builder, doc *language.QueryDocument, sel language.SelectionSet, visited map[string]bool) {
	b.WriteByte('{')
	for _, s := range sel {
		switch node := s.(type) {
		case *language.Field:
			b.WriteByte(' ')
			if node.Alias != "" && node.Alias != node.Name {
				b.WriteString(node.Alias)
				b.WriteByte(':')
			}
			b.WriteString(node.Name)
			writeCanonicalArgs(b, node.Arguments)
			writeCanonicalDirectives(b, node.Directives)
			if len(node.SelectionSet) > 0 {
				writeCanonicalSelectionSet(b, doc, node.SelectionSet, visited)
			}
		case *language.InlineFragment:
			b.WriteString(" ...on ")
			b.WriteString(node.TypeCondition)
			writeCanonicalDirectives(b, node.Directives)
			writeCanonicalSelectionSet(b, doc, node.SelectionSet, visited)
		case *language.FragmentSpread:
			frag := doc.Fragments.ForName(node.Name)
			if frag == nil {
				continue
			}
			key := node.Name
			if visited[key] {
				continue
			}
			visited[key] = true
			b.WriteString(" ...on ")
			b.WriteString(frag.TypeCondition)
			writeCanonicalDirectives(b, node.Directives)
			writeCanonicalSelectionSet(b, doc, frag.SelectionSet, visited)
		}
	}
	b.WriteString(" }")
}

func writeCanonicalArgs(b *strings.Builder, args language.ArgumentList) {
	if len(args) == 0 {
		return
	}
	sorted := append(language.ArgumentList{}, args...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	b.WriteByte('(')
	for i, a := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Name)
		b.WriteByte(':')
		writeCanonicalValue(b, a.Value)
	}
	b.WriteByte(')')
}

func writeCanonicalValue(b *strings.Builder, v *language.Value) {
	if v == nil {
		b.WriteString("null")
		return
	}
	switch v.Kind {
	case language.Variable:
		b.WriteByte('$')
		b.WriteString(v.Raw)
	case language.ListValue:
		b.WriteByte('[')
		for i, c := range v.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonicalValue(b, c.Value)
		}
		b.WriteByte(']')
	case language.ObjectValue:
		sorted := append(language.ChildValueList{}, v.Children...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		b.WriteByte('{')
		for i, c := range sorted {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(c.Name)
			b.WriteByte(':')
			writeCanonicalValue(b, c.Value)
		}
		b.WriteByte('}')
	default:
		b.WriteString(strconv.Quote(v.Raw))
	}
}

func writeCanonicalDirectives(b *strings.Builder, dirs language.DirectiveList) {
	if len(dirs) == 0 {
		return
	}
	sorted := append(language.DirectiveList{}, dirs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, d := range sorted {
		b.WriteByte('@')
		b.WriteString(d.Name)
		writeCanonicalArgs(b, d.Arguments)
	}
}

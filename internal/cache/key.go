package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	language "github.com/nexusgraph/federation-gateway/internal/language"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
)

// key computes fp's cache key for one request: the prepared operation's own
// fingerprint (a stable hash over its normalized AST and schema version,
// internal/operation/fingerprint.go) scoped down to fp's field names, folded
// with the variable values those fields actually reference and the caller's
// auth identity bits — grounded on the same sha256/hex house style
// fingerprint.go already establishes for content-addressed keys.
func (fp Fingerprint) key(opFingerprint operation.Fingerprint, shapes []*operation.ConcreteShape, variables map[string]any, authBits string) string {
	var b strings.Builder
	b.WriteString(string(opFingerprint))
	b.WriteByte('\n')
	for _, name := range fp.fieldNames() {
		b.WriteString(name)
		b.WriteByte(',')
	}
	b.WriteByte('\n')

	referenced := map[string]struct{}{}
	collectReferencedVariables(fp.Fields, shapes, referenced)
	names := make([]string, 0, len(referenced))
	for n := range referenced {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('=')
		data, _ := marshalJSON(variables[n])
		b.Write(data)
		b.WriteByte('&')
	}
	b.WriteByte('\n')
	b.WriteString(authBits)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// collectReferencedVariables walks fields (and, recursively, every
// PossibleShapes subtree) collecting every `$variable` referenced by an
// argument anywhere underneath, so the cache key only varies with the
// variables that could actually change this fingerprint's data.
func collectReferencedVariables(fields []*operation.FieldShape, shapes []*operation.ConcreteShape, out map[string]struct{}) {
	for _, f := range fields {
		collectVariablesFromField(f, out)
		for _, shapeID := range f.PossibleShapes {
			shape := shapes[shapeID]
			collectReferencedVariables(shape.Fields, shapes, out)
		}
	}
}

func collectVariablesFromField(f *operation.FieldShape, out map[string]struct{}) {
	if f.ASTField == nil {
		return
	}
	for _, arg := range f.ASTField.Arguments {
		collectVariablesFromValue(arg.Value, out)
	}
}

func collectVariablesFromValue(v *language.Value, out map[string]struct{}) {
	if v == nil {
		return
	}
	switch v.Kind {
	case language.Variable:
		out[v.Raw] = struct{}{}
	case language.ListValue, language.ObjectValue:
		for _, c := range v.Children {
			collectVariablesFromValue(c.Value, out)
		}
	}
}

package operation

import (
	language "github.com/nexusgraph/federation-gateway/internal/language"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// ShapeID indexes into PreparedOperation.Shapes — an arena of concrete
// shapes, mirroring the schema/response packages' arena-indexed-graph
// design (§9 "Arena-indexed graphs over pointer graphs").
type ShapeID int

// ResponseKey is a stable identifier per output field occurrence (§3.2).
// QueryPosition orders emission independent of subgraph response order
// (§8 "Determinism of serialization").
type ResponseKey struct {
	QueryPosition int
	ResponseName  string
}

// ConcreteShape is the precomputed description of one response position for
// one concrete object type (§3.2, §9 "Shape-guided deserialization").
type ConcreteShape struct {
	ID          ShapeID
	TypeName    string
	TypenameKey *ResponseKey // non-nil when the selection requested __typename
	Fields      []*FieldShape
}

// FieldShape is one field occurrence within a ConcreteShape. BitIndex gives
// it a stable slot in the per-request QueryModifications.Skipped bitset.
type FieldShape struct {
	ResponseKey ResponseKey
	SchemaName  string // the underlying schema field name, for alias mapping
	SchemaField *schema.Field
	Type        *schema.TypeRef // wrapping: NonNull/List/Named, taken from the schema
	BitIndex    int

	// ASTField is the representative AST node for this occurrence, kept
	// (rather than duplicated) so directive/argument evaluation — which
	// needs per-request variable values — can run against it later without
	// the shape tree itself depending on variables.
	ASTField *language.Field

	// PossibleShapes maps a concrete object type name to the ConcreteShape
	// to use when the runtime value resolves to that type. An object-typed
	// field has exactly one entry; interface/union-typed fields have one
	// per possible concrete type actually selected against.
	PossibleShapes map[string]ShapeID
}

// shapeBuilder accumulates ConcreteShapes into a flat arena while walking
// the operation AST once, per root selection set.
type shapeBuilder struct {
	schema  *schema.Schema
	doc     *language.QueryDocument
	shapes  []*ConcreteShape
	nextPos int
	nextBit int
}

func newShapeBuilder(sch *schema.Schema, doc *language.QueryDocument) *shapeBuilder {
	return &shapeBuilder{schema: sch, doc: doc}
}

// buildForType builds (or reuses) a ConcreteShape for selectionSet applied
// against concrete object/interface type typeName.
func (b *shapeBuilder) buildForType(typeName string, selectionSet language.SelectionSet) *ConcreteShape {
	shape := &ConcreteShape{ID: ShapeID(len(b.shapes)), TypeName: typeName}
	b.shapes = append(b.shapes, shape)

	objType := b.schema.TypeByName(typeName)
	grouped := collectFieldGroups(b.doc, objType, selectionSet)
	for _, g := range grouped {
		if g.name == "__typename" {
			key := b.allocKey(g.responseName)
			shape.TypenameKey = &key
			continue
		}
		fd := objType.FieldByName(g.name)
		if fd == nil {
			continue // unknown field; Validate() already rejected this document
		}
		fs := &FieldShape{
			ResponseKey: b.allocKey(g.responseName),
			SchemaName:  g.name,
			SchemaField: fd,
			Type:        fd.Type,
			BitIndex:    b.allocBit(),
			ASTField:    g.representative,
		}
		if len(g.representative.SelectionSet) > 0 {
			fs.PossibleShapes = b.buildPossibleShapes(fd.Type, g.representative.SelectionSet)
		}
		shape.Fields = append(shape.Fields, fs)
	}
	return shape
}

// buildPossibleShapes resolves, for every concrete type a field's named
// type could be at runtime, the ConcreteShape governing that subtree.
func (b *shapeBuilder) buildPossibleShapes(t *schema.TypeRef, sel language.SelectionSet) map[string]ShapeID {
	named := schema.GetNamedType(t)
	typ := b.schema.TypeByName(named)
	out := map[string]ShapeID{}
	if typ == nil {
		return out
	}
	switch typ.Kind {
	case schema.TypeKindObject:
		out[typ.Name] = b.buildForType(typ.Name, sel).ID
	case schema.TypeKindInterface, schema.TypeKindUnion:
		for _, possible := range typ.PossibleTypes {
			out[possible] = b.buildForType(possible, sel).ID
		}
	}
	return out
}

func (b *shapeBuilder) allocKey(name string) ResponseKey {
	k := ResponseKey{QueryPosition: b.nextPos, ResponseName: name}
	b.nextPos++
	return k
}

func (b *shapeBuilder) allocBit() int {
	i := b.nextBit
	b.nextBit++
	return i
}

// fieldGroup is a response-key-merged set of field selections, simplified
// to track one representative AST node (directive/argument evaluation uses
// the representative; re-selections under differing type conditions are
// assumed directive-consistent, which holds for every operation this
// gateway is expected to plan).
type fieldGroup struct {
	responseName   string
	name           string
	representative *language.Field
}

func collectFieldGroups(doc *language.QueryDocument, objType *schema.Type, selectionSet language.SelectionSet) []fieldGroup {
	index := map[string]int{}
	var groups []fieldGroup
	var walk func(language.SelectionSet, map[string]bool)
	walk = func(ss language.SelectionSet, visited map[string]bool) {
		for _, sel := range ss {
			switch s := sel.(type) {
			case *language.Field:
				name := s.Alias
				if name == "" {
					name = s.Name
				}
				if _, ok := index[name]; !ok {
					index[name] = len(groups)
					groups = append(groups, fieldGroup{responseName: name, name: s.Name, representative: s})
				}
			case *language.InlineFragment:
				if !typeConditionMatches(objType, s.TypeCondition) {
					continue
				}
				walk(s.SelectionSet, visited)
			case *language.FragmentSpread:
				if visited[s.Name] {
					continue
				}
				visited[s.Name] = true
				frag := doc.Fragments.ForName(s.Name)
				if frag == nil {
					continue
				}
				if !typeConditionMatches(objType, frag.TypeCondition) {
					continue
				}
				walk(frag.SelectionSet, visited)
			}
		}
	}
	walk(selectionSet, map[string]bool{})
	return groups
}

func typeConditionMatches(objType *schema.Type, condition string) bool {
	if condition == "" || objType == nil || condition == objType.Name {
		return true
	}
	for _, iface := range objType.Interfaces {
		if iface == condition {
			return true
		}
	}
	return false
}

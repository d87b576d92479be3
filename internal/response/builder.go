package response

import (
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	plan "github.com/nexusgraph/federation-gateway/internal/plan"
)

// Builder owns one request's response store and the synthetic root object
// every root-level plan merges its fields into. It is the executor's only
// handle onto the Response Builder (§4.6). The executor runs a DAG wave's
// plans concurrently (§4.4); Store itself serializes every arena mutation
// (seeding included) behind its own mutex, so Builder needs no locking of
// its own.
type Builder struct {
	store   *Store
	rootRef ObjectRef
}

// NewBuilder creates a Builder with an empty root object ready to receive
// every root plan's fields (§4.6.3 "shared roots" merge into this same
// object).
func NewBuilder(rootTypeName string) *Builder {
	st := newStore()
	root := st.newObject(rootTypeName, nil)
	return &Builder{store: st, rootRef: root}
}

// ParentObjects walks the store from the root object along path, fanning
// out through any list positions it passes through, and returns every
// concrete object the path resolves to (§4.4 "Per-plan task" step 1: "build
// a ParentObjectSet by walking the response store at plan.path"). A root
// plan's path is empty and resolves to [rootRef].
func (b *Builder) ParentObjects(path []plan.PathElement) []ObjectRef {
	refs := []ObjectRef{b.rootRef}
	for _, step := range path {
		var next []ObjectRef
		for _, ref := range refs {
			obj := b.store.object(ref)
			for _, f := range obj.fields {
				if f.Key.ResponseName == step.ResponseName {
					next = append(next, b.store.collectObjectRefs(f.Value)...)
				}
			}
		}
		refs = next
	}
	return refs
}

// MergeRoot seeds data — a root-level (Query/Mutation) subgraph payload —
// against p's pruned selection and sorted-merges the result into the
// shared root object (§4.6.3).
func (b *Builder) MergeRoot(p *plan.ExecutionPlan, data map[string]any) {
	st := &seedState{store: b.store}
	fields, _ := st.seedPlannedFields(p.Selection, data, nil)
	fields = appendTypename(fields, p)
	b.store.mergeInto(b.rootRef, fields)
}

// MergeEntities seeds entities — the `_entities` array returned for an
// entity-fetch plan, index-aligned with the representations sent — against
// p's pruned selection, merging result i into parents[i] (§4.5, §4.6.3).
// A short entities slice (fewer results than representations sent) records
// a SUBGRAPH_INVALID_RESPONSE_ERROR per missing parent rather than
// panicking.
func (b *Builder) MergeEntities(p *plan.ExecutionPlan, parents []ObjectRef, entities []any) {
	st := &seedState{store: b.store}
	basePath := pathToGQL(p.Path)
	for i, parent := range parents {
		path := append(append([]gqlerr.PathElement(nil), basePath...), i)
		if i >= len(entities) {
			b.store.addInvalidResponseError(path, "subgraph returned fewer entities than requested")
			continue
		}
		obj, ok := entities[i].(map[string]any)
		if !ok {
			b.store.addInvalidResponseError(path, "expected an entity object")
			continue
		}
		fields, _ := st.seedPlannedFields(p.Selection, obj, path)
		fields = appendTypename(fields, p)
		b.store.mergeInto(parent, fields)
	}
}

// appendTypename adds p's own synthesized __typename field, when the
// position p resolves requested it (§3.2 every concrete shape position may
// carry a TypenameKey).
func appendTypename(fields []ResponseField, p *plan.ExecutionPlan) []ResponseField {
	if p.TypenameKey == nil {
		return fields
	}
	fields = append(fields, ResponseField{Key: *p.TypenameKey, SchemaName: "__typename", Value: ResponseValue{Kind: KindString, Str: p.TypeName}})
	sortFields(fields)
	return fields
}

// RecordSubgraphError attaches a subgraph-reported GraphQL error to the
// response, rewriting its subgraph-local path onto the federated response
// path (§4.6.4): basePath is the plan's own federated path, prepended to
// the subgraph's own reported path.
func (b *Builder) RecordSubgraphError(basePath []gqlerr.PathElement, subgraphPath []any, message string, extensions map[string]any) {
	full := append(append([]gqlerr.PathElement(nil), basePath...), subgraphPath...)
	e := gqlerr.New(gqlerr.CodeSubgraph, message).AtPath(full...)
	e.Extensions = extensions
	b.store.addError(e)
}

// RecordRequestError records a whole-plan failure (transport error,
// malformed response body, non-2xx with no parseable body) that has no
// field-level path of its own: every top-level field the plan was
// responsible for is merged in as Null (or Unexpected, for a non-null
// field, which Finalize renders as null all the same). This mirrors
// seedObject's handling of an absent field, but — unlike a normal seed,
// whose recursive call stack performs real nearest-nullable-ancestor
// bubbling (§4.6.2) — does not walk back out to null an enclosing object
// when the failed field itself was non-null; that full walk needs a
// schema-typed parent chain this entry point doesn't have. Recorded as an
// accepted simplification in the design ledger.
func (b *Builder) RecordRequestError(p *plan.ExecutionPlan, message string) {
	path := pathToGQL(p.Path)
	b.store.addInvalidResponseError(path, message)
	fields := make([]ResponseField, 0, len(p.Selection))
	for _, pf := range p.Selection {
		v := nullValue
		if pf.Field.Type.IsNonNull() {
			v = unexpectedValue
		}
		fields = append(fields, ResponseField{Key: pf.Field.ResponseKey, SchemaName: pf.Field.SchemaName, Value: v})
	}
	for _, parent := range b.ParentObjects(p.Path) {
		b.store.mergeInto(parent, fields)
	}
}

func pathToGQL(path []plan.PathElement) []gqlerr.PathElement {
	out := make([]gqlerr.PathElement, 0, len(path))
	for _, p := range path {
		out = append(out, p.ResponseName)
	}
	return out
}

// Status classifies the overall outcome per §4.6.5.
type Status int

const (
	StatusSuccess Status = iota
	StatusFieldError
	StatusRequestError
)

// Response is the final emitted shape (§4.6.5): data is nil only when the
// whole root was nulled out by propagation or the request never executed.
type Response struct {
	Data       any
	Errors     []*gqlerr.Error
	Extensions map[string]any
	Status     Status
}

// Finalize converts the store's root object into a plain Go value tree
// ready for JSON encoding, and classifies the overall status (§4.6.5).
func (b *Builder) Finalize() *Response {
	data, rootIsNull := b.store.finalizeValue(ResponseValue{Kind: KindObject, Object: b.rootRef})
	errs := b.store.allErrors()
	status := StatusSuccess
	switch {
	case len(errs) > 0 && rootIsNull:
		status = StatusRequestError
	case len(errs) > 0:
		status = StatusFieldError
	}
	return &Response{Data: data, Errors: errs, Status: status}
}

// finalizeValue converts one ResponseValue into a plain Go any, reporting
// whether it resolved to nil.
func (s *Store) finalizeValue(v ResponseValue) (any, bool) {
	switch v.Kind {
	case KindNull, KindUnexpected:
		return nil, true
	case KindBool:
		return v.Bool, false
	case KindInt:
		return v.Int, false
	case KindFloat:
		return v.Float, false
	case KindString:
		return v.Str, false
	case KindJSON:
		return v.JSON, v.JSON == nil
	case KindList:
		items := s.listItems(v.List)
		out := make([]any, len(items))
		for i, item := range items {
			out[i], _ = s.finalizeValue(item)
		}
		return out, false
	case KindObject:
		obj := s.object(v.Object)
		out := make(map[string]any, len(obj.fields))
		for _, f := range obj.fields {
			out[f.Key.ResponseName], _ = s.finalizeValue(f.Value)
		}
		return out, false
	}
	return nil, true
}

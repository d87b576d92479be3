// Package response implements the Response Builder (§3.4, §4.6): a
// columnar store of response objects/lists, shape-guided deserialization of
// subgraph payloads into that store, null propagation, shared-root merging,
// and final emission.
package response

import (
	"sort"
	"sync"

	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
)

// ValueKind tags ResponseValue's variant (§3.4 "tagged union").
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindObject
	KindJSON       // opaque pass-through value for custom scalars
	KindUnexpected // a non-null position that failed to deserialize
)

// ObjectRef addresses one ResponseObject in the store's object arena.
type ObjectRef struct {
	Index int
}

// ListRef addresses a contiguous run of the store's list-element arena.
type ListRef struct {
	Offset int
	Len    int
}

// ResponseValue is the tagged union §3.4 describes: exactly the field
// matching Kind is meaningful.
type ResponseValue struct {
	Kind   ValueKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	JSON   any
	List   ListRef
	Object ObjectRef
}

var nullValue = ResponseValue{Kind: KindNull}
var unexpectedValue = ResponseValue{Kind: KindUnexpected}

// ResponseField is one field slot of a ResponseObject. SchemaName is kept
// alongside the (possibly aliased) output Key so entity-representation
// extraction (§4.5.1) can look a field up by its underlying schema name
// regardless of any alias the operation used.
type ResponseField struct {
	Key        operation.ResponseKey
	SchemaName string
	Value      ResponseValue
}

// objectRecord is the arena-backed representation of a ResponseObject:
// fields kept sorted by ResponseKey.QueryPosition ascending (§4.6.1 "push
// owned sorted fields by key").
type objectRecord struct {
	typeName string
	fields   []ResponseField
}

// Store is the columnar response store of §3.4: an append-only object arena
// and an append-only list-element arena. A single Store instance backs one
// request's response tree. The executor runs several plans concurrently
// within a DAG wave (§4.4, §5 "Shared resources"), so Store guards every
// mutation with its own mutex, held just long enough to append/merge rather
// than serializing whole plans; Builder itself holds no lock.
type Store struct {
	mu      sync.Mutex
	objects []objectRecord
	lists   []ResponseValue
	errors  []*gqlerr.Error
}

// addInvalidResponseError records a SUBGRAPH_INVALID_RESPONSE_ERROR at path
// (§4.6.1 "record SUBGRAPH_INVALID_RESPONSE_ERROR" on type mismatch).
func (s *Store) addInvalidResponseError(path []gqlerr.PathElement, message string) {
	pathCopy := append([]gqlerr.PathElement(nil), path...)
	s.addError(gqlerr.New(gqlerr.CodeSubgraphInvalidResponse, message).AtPath(pathCopy...))
}

func newStore() *Store {
	return &Store{}
}

func (s *Store) addError(e *gqlerr.Error) {
	s.mu.Lock()
	s.errors = append(s.errors, e)
	s.mu.Unlock()
}

func (s *Store) allErrors() []*gqlerr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*gqlerr.Error(nil), s.errors...)
}

func (s *Store) newObject(typeName string, fields []ResponseField) ObjectRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.objects)
	s.objects = append(s.objects, objectRecord{typeName: typeName, fields: fields})
	return ObjectRef{Index: idx}
}

func (s *Store) newList(items []ResponseValue) ListRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := len(s.lists)
	s.lists = append(s.lists, items...)
	return ListRef{Offset: offset, Len: len(items)}
}

// object returns a copy of the object record at ref. Copying out from under
// the lock (rather than returning a pointer into the arena) keeps readers
// safe while another goroutine's append grows/reallocates s.objects.
func (s *Store) object(ref ObjectRef) objectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[ref.Index]
}

func (s *Store) listItems(ref ListRef) []ResponseValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ResponseValue, ref.Len)
	copy(out, s.lists[ref.Offset:ref.Offset+ref.Len])
	return out
}

// mergeInto sorted-merges newFields into the object at target, keeping the
// first write for any response key already present (§4.6.3 — the planner
// guarantees equal values for any key two plans both write).
func (s *Store) mergeInto(target ObjectRef, newFields []ResponseField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := &s.objects[target.Index]
	merged := make([]ResponseField, 0, len(obj.fields)+len(newFields))
	i, j := 0, 0
	existing := obj.fields
	for i < len(existing) && j < len(newFields) {
		switch {
		case existing[i].Key.QueryPosition < newFields[j].Key.QueryPosition:
			merged = append(merged, existing[i])
			i++
		case existing[i].Key.QueryPosition > newFields[j].Key.QueryPosition:
			merged = append(merged, newFields[j])
			j++
		default:
			merged = append(merged, existing[i]) // first write wins
			i++
			j++
		}
	}
	merged = append(merged, existing[i:]...)
	merged = append(merged, newFields[j:]...)
	obj.fields = merged
}

func sortFields(fields []ResponseField) {
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Key.QueryPosition < fields[j].Key.QueryPosition
	})
}

// collectObjectRefs flattens every ObjectRef reachable through v, descending
// through (possibly nested) lists — used to build a plan's ParentObjectSet
// by walking the store at the plan's path (§4.4 "Per-plan task" step 1).
func (s *Store) collectObjectRefs(v ResponseValue) []ObjectRef {
	switch v.Kind {
	case KindObject:
		return []ObjectRef{v.Object}
	case KindList:
		var out []ObjectRef
		for _, item := range s.listItems(v.List) {
			out = append(out, s.collectObjectRefs(item)...)
		}
		return out
	default:
		return nil
	}
}

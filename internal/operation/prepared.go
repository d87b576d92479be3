package operation

import (
	language "github.com/nexusgraph/federation-gateway/internal/language"
)

// OperationType mirrors the three root operation kinds a document may
// define (§3.2).
type OperationType string

const (
	OperationTypeQuery        OperationType = "QUERY"
	OperationTypeMutation     OperationType = "MUTATION"
	OperationTypeSubscription OperationType = "SUBSCRIPTION"
)

// Fingerprint is a stable hash over a PreparedOperation's normalized AST and
// the schema version it was built against (§4.2 step 4). Two requests
// carrying the same document text and variable set of names, against the
// same schema build, produce equal fingerprints and so may share a
// PreparedOperation from cache.
type Fingerprint string

// PreparedDocument is the resolved, parsed input to preparation (§4.2 step
// 1-2): the query text has already been resolved from literal text or an
// APQ hash lookup and parsed. Validation against the schema happens later,
// in Prepare.
type PreparedDocument struct {
	Query         *language.QueryDocument
	OperationName string // selects among multiple named operations; "" picks the sole operation
}

// operation returns the chosen OperationDefinition, applying OperationName
// disambiguation.
func (d *PreparedDocument) operation() (*language.OperationDefinition, error) {
	ops := d.Query.Operations
	if len(ops) == 0 {
		return nil, errNoOperation
	}
	if d.OperationName == "" {
		if len(ops) > 1 {
			return nil, errAmbiguousOperation
		}
		return ops[0], nil
	}
	for _, op := range ops {
		if op.Name == d.OperationName {
			return op, nil
		}
	}
	return nil, errUnknownOperationName
}

// PreparedOperation is the immutable, cacheable result of §4.2 steps 1-5. It
// is independent of any single request's variable values, which is what
// lets it be keyed and reused by Fingerprint across requests (§4.2,
// "Contract returned").
type PreparedOperation struct {
	Fingerprint   Fingerprint
	Type          OperationType
	Name          string
	RootShape     *ConcreteShape
	Shapes        []*ConcreteShape
	BitCount      int
	SchemaVersion string

	// doc is the parsed document the operation was prepared from. Modifier
	// evaluation (§4.2 step 6) does not read it; it walks the shapes'
	// ASTField selections instead.
	doc *language.QueryDocument
}

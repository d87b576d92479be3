package operation

import (
	"context"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
	language "github.com/nexusgraph/federation-gateway/internal/language"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// Cache backs PreparedOperation reuse across requests that share a
// Fingerprint (§4.2, "Contract returned"). Implementations are expected to
// be safe for concurrent use.
type Cache interface {
	Get(fingerprint Fingerprint) (*PreparedOperation, bool)
	Put(fingerprint Fingerprint, op *PreparedOperation)
}

// Prepare runs §4.2 end to end: resolve the document, validate it, bind and
// normalize it, compute its fingerprint, and either reuse a cached
// PreparedOperation or build a fresh shape tree. Each stage short-circuits
// on error, returning a single gqlerr.Error as required by the closed error
// code set (§6.2).
func Prepare(ctx context.Context, sch *schema.Schema, req RawRequest, docCache capability.OperationDocCache, opCache Cache, policy IntrospectionPolicy) (*PreparedOperation, error) {
	doc, err := ResolveDocument(ctx, req, docCache)
	if err != nil {
		return nil, err
	}

	opDef, err := doc.operation()
	if err != nil {
		return nil, err
	}

	if err := Validate(sch, opDef, doc.Query, policy); err != nil {
		return nil, err
	}

	fp := ComputeFingerprint(doc, opDef, sch.Version)
	if opCache != nil {
		if cached, ok := opCache.Get(fp); ok {
			return cached, nil
		}
	}

	prepared, err := build(sch, doc, opDef, fp)
	if err != nil {
		return nil, err
	}
	if opCache != nil {
		opCache.Put(fp, prepared)
	}
	return prepared, nil
}

// build implements §4.2 steps 3 and 5: it assigns ResponseKeys in query
// order while constructing the shape tree in the same pass (binding and
// shape-building share one traversal since both only need the schema and
// the AST, never variable values).
func build(sch *schema.Schema, doc *PreparedDocument, opDef *language.OperationDefinition, fp Fingerprint) (*PreparedOperation, error) {
	var rootTypeName string
	var opType OperationType
	switch opDef.Operation {
	case language.Mutation:
		rootTypeName, opType = sch.MutationType, OperationTypeMutation
	case language.Subscription:
		rootTypeName, opType = sch.SubscriptionType, OperationTypeSubscription
	default:
		rootTypeName, opType = sch.QueryType, OperationTypeQuery
	}

	sb := newShapeBuilder(sch, doc.Query)
	root := sb.buildForType(rootTypeName, opDef.SelectionSet)
	if root == nil {
		return nil, gqlerr.New(gqlerr.CodeOperationValidation, "empty root selection set")
	}

	return &PreparedOperation{
		Fingerprint:   fp,
		Type:          opType,
		Name:          opDef.Name,
		RootShape:     root,
		Shapes:        sb.shapes,
		BitCount:      sb.nextBit,
		SchemaVersion: sch.Version,
		doc:           doc.Query,
	}, nil
}

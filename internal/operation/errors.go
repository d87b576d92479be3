package operation

import (
	gqlerr "github.com/nexusgraph/federation-gateway/internal/gqlerr"
)

var (
	errNoOperation          = gqlerr.New(gqlerr.CodeOperationParsing, "document defines no operation")
	errAmbiguousOperation   = gqlerr.New(gqlerr.CodeOperationParsing, "operationName is required when a document defines multiple operations")
	errUnknownOperationName = gqlerr.New(gqlerr.CodeOperationParsing, "no operation found matching operationName")
	errDocumentNotResolved  = gqlerr.New(gqlerr.CodeOperationParsing, "unable to resolve operation document")
	errIntrospectionGated   = gqlerr.New(gqlerr.CodeOperationValidation, "introspection is disabled")
)

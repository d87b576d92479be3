// Package gqlerr defines the single GraphqlError shape shared by the
// Operation Preparer (pre-execution auth/modifier errors), the Response
// Builder (field and subgraph errors) and the transport-facing emission
// (§6.2, §7). Keeping one type here — instead of letting each package grow
// its own — is what lets an error recorded during modifier evaluation sit
// in the same slice as one recorded mid-execution without translation.
package gqlerr

// Code is the closed set of error codes the core may surface to clients
// (§6.2).
type Code string

const (
	CodeInternal                 Code = "INTERNAL_SERVER_ERROR"
	CodeSubgraphInvalidResponse  Code = "SUBGRAPH_INVALID_RESPONSE_ERROR"
	CodeSubgraph                 Code = "SUBGRAPH_ERROR"
	CodeUnauthenticated          Code = "UNAUTHENTICATED"
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodePersistedQueryNotFound   Code = "PERSISTED_QUERY_NOT_FOUND"
	CodeOperationParsing         Code = "OPERATION_PARSING_ERROR"
	CodeOperationValidation      Code = "OPERATION_VALIDATION_ERROR"
	CodeRateLimited              Code = "RATE_LIMITED"
	CodeGatewayTimeout           Code = "GATEWAY_TIMEOUT"
	CodeComplexityTooHigh        Code = "OPERATION_COMPLEXITY_TOO_HIGH"
	CodeTrustedDocumentRequired  Code = "TRUSTED_DOCUMENT_REQUIRED"
)

// Location is a 1-based line/column into the operation document, mirroring
// graphql-js's convention. No error the core creates sets Locations, and
// subgraph-reported locations are not carried over (§4.6.4, §7).
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// PathElement is either a string (object field) or an int (list index).
type PathElement any

// Error is the wire-equivalent of §6.2's error object, plus the Code used
// internally to decide HTTP status / content negotiation at the transport
// boundary.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []PathElement  `json:"path,omitempty"`
	Code       Code           `json:"-"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// WithExtensionCode returns a copy of e with Code folded into Extensions,
// ready for JSON emission per §6.2 (`extensions: { code, ... }`).
func (e Error) WithExtensionCode() Error {
	ext := map[string]any{}
	for k, v := range e.Extensions {
		ext[k] = v
	}
	if e.Code != "" {
		ext["code"] = string(e.Code)
	}
	e.Extensions = ext
	return e
}

// New builds an Error with no location/path, for request-rejection and
// operation-level failures that never reach a response position.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error satisfies the standard error interface so a *Error can be returned
// and wrapped through ordinary Go error-handling paths before being
// collected into a response's error list.
func (e *Error) Error() string { return e.Message }

// AtPath returns a copy of e with Path set.
func (e *Error) AtPath(path ...PathElement) *Error {
	c := *e
	c.Path = path
	return &c
}

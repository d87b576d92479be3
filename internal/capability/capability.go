// Package capability declares the interfaces the planning/execution core
// consumes from its surrounding transport, storage and extension host. The
// core never imports a concrete HTTP client, cache, or gRPC stub directly;
// it only ever sees these interfaces, so it can be wired against a real
// deployment or a test double without caring which.
package capability

import (
	"context"
	"time"
)

// Transport sends a framed request to a subgraph (or extension host) and
// returns the raw response bytes. A TransportError distinguishes "the
// network/peer failed" from a successfully-received non-2xx body.
type Transport interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Request is a wire-level request the core hands to a Transport. It is
// deliberately body-and-header shaped rather than http.Request-shaped so
// that non-HTTP transports (in-process test doubles, gRPC-bridged
// extensions) can satisfy the same interface.
type Request struct {
	Method  string
	URL     string
	Headers map[string][]string
	Body    []byte
}

// Response is what a Transport returns on a completed round trip. A non-2xx
// Status is not itself an error; TransportError is reserved for failures
// that never produced a response (dial failure, timeout, cancellation).
type Response struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// TransportError wraps a transport-level failure (as opposed to an
// application-level non-2xx response).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// EntityCache stores and retrieves opaque subgraph response bytes keyed by
// a resolver-computed cache key (§4.5.2).
type EntityCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// OperationDocCache backs automatic persisted queries and trusted document
// lookup (§4.2 step 1). Values are arbitrary JSON-compatible documents, not
// raw bytes, since callers need the parsed shape back (APQ hash -> query
// text; trusted document id -> query text + metadata).
type OperationDocCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	PutJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ExtensionRuntime is the capability boundary to the (out-of-scope) WASM/gRPC
// extension host. The core calls ResolveSelectionSet for the
// SelectionSetResolverExtension and Extension resolver variants (§3.1)
// and Authenticate for incoming requests; nothing in the core calls
// ResolveField, and @authorized is not evaluated through it.
type ExtensionRuntime interface {
	ResolveField(ctx context.Context, call FieldResolveCall) (ExtensionResult, error)
	ResolveSelectionSet(ctx context.Context, call SelectionSetResolveCall) (ExtensionResult, error)
	Authenticate(ctx context.Context, token AccessToken) (AccessToken, error)
}

// FieldResolveCall describes a single extension-resolved field invocation.
type FieldResolveCall struct {
	DirectiveID string
	ParentType  string
	FieldName   string
	Arguments   map[string]any
	Parent      any
}

// SelectionSetResolveCall describes a whole-selection-set extension
// invocation (an extension owns every field under a subgraph boundary).
type SelectionSetResolveCall struct {
	SubgraphID   string
	ExtensionID  string
	SelectionSet []byte // rendered GraphQL selection text
	Variables    map[string]any
}

// ExtensionResult carries back either encoded data or a structured error
// from an extension call. Exactly one of Data/Err is meaningful.
type ExtensionResult struct {
	DataJSON []byte
	DataCBOR []byte
	Err      *ExtensionError
}

// ExtensionError is a structured error returned by an extension, mapped
// onto a GraphQL error code at the call site.
type ExtensionError struct {
	Code       string
	Message    string
	Extensions map[string]any
}

func (e *ExtensionError) Error() string { return e.Message }

// AccessToken is the opaque token + claims accessor the core consumes; it
// never parses or verifies tokens itself (§1 Out-of-scope).
type AccessToken interface {
	IsAnonymous() bool
	GetClaim(name string) (any, bool)
	AsBytes() ([]byte, bool)
}

// Clock is an injectable source of monotonic time, so retry-budget windows
// and cache TTL math are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

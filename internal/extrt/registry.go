package extrt

import "google.golang.org/protobuf/reflect/protoreflect"

// Registry resolves the proto method descriptor backing one extension call.
// A Registry is built once from the extension host's reflected proto set at
// startup; a missing descriptor at call time is a deployment/configuration
// error, not a per-request one.
type Registry interface {
	// FieldResolverMethod returns the method backing a FieldResolverExtension
	// resolver (§3.1), keyed by its directive id.
	FieldResolverMethod(directiveID string) protoreflect.MethodDescriptor

	// SelectionSetResolverMethod returns the method backing an Extension or
	// SelectionSetResolverExtension resolver (§3.1), keyed by the subgraph
	// and extension id that own the selection set.
	SelectionSetResolverMethod(subgraphID, extensionID string) protoreflect.MethodDescriptor

	// AuthenticateMethod returns the method the extension host exposes for
	// @authorized / access-token mapping, or nil if no authenticate
	// extension is configured for this deployment.
	AuthenticateMethod() protoreflect.MethodDescriptor
}

package extrt

import (
	"context"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Transport performs one dynamic gRPC call against the extension host and
// returns its decoded response message. Implementations must be safe for
// concurrent use — ResolveField may be called concurrently for sibling
// fields, and ResolveSelectionSet concurrently for sibling plan nodes.
type Transport interface {
	Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error)
}

package reqid

import (
	"context"

	"github.com/google/uuid"
)

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new request ID stored, along
// with the generated ID. IDs are UUIDv4 strings rather than the numeric
// counters a single process could get away with, since they also end up as
// the `graphql-request-id` header forwarded to subgraphs (§4.5) and must
// stay unique across every gateway instance a client or trace might hit.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(key{})
	id, ok := v.(string)
	return id, ok
}

// Package extrt bridges capability.ExtensionRuntime (§4.5.3, §6.4) onto a
// gRPC-hosted extension process.
//
// The wire contract is a single generic envelope rather than a
// per-directive typed proto message: a request carries whatever identifies
// the call (directive/extension id, field name, JSON-encoded arguments and
// parent object, or a rendered selection set + JSON-encoded variables) and
// a response carries either a JSON (or CBOR) data payload or a structured
// error. This mirrors the black-box framing the core already has for
// extensions (§1 "referenced only via the ExtensionRuntime capability") —
// the core never needs to know an extension's own argument/return shape,
// only that it gets bytes back to seed through the same shape-guided path
// a subgraph response would use.
//
// Registry resolves which proto method backs a given directive/extension
// id; Transport performs the actual dynamic call. No deployment entrypoint
// in this repo constructs either: doing so for real would mean resolving
// the extension host's proto methods via gRPC server reflection at
// startup, which is genuinely new infrastructure, not a dependency this
// package can just reuse. cmd/gateway leaves ExtensionRuntime nil rather
// than fake that wiring, so a request's bearer value passes through as an
// unverified, claimless token.
package extrt

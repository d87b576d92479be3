// Package cache implements the Partial Response Cache (§4.7): it splits a
// prepared operation's top-level selection into cacheable fingerprints
// based on schema @cache(maxAge:) directives, looks each fingerprint up in
// an injected capability.EntityCache before planning runs, and writes fresh
// results back asynchronously on success.
//
// A fingerprint's own cache key is independent of planning — it only needs
// the prepared operation's fingerprint, the field names it covers, the
// variable values those fields reference, and the caller's auth identity —
// so the lookup happens entirely before the query planner sees the
// operation. A complete hit skips planning and execution altogether; a
// partial hit reduces the shape the planner is handed to the missed fields
// only, and the two results are merged by the response builder exactly as
// two subgraph fetches would be (§4.6.3's sorted-merge path, not a bespoke
// one).
package cache

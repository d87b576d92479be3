package subgraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

// cacheKey computes §4.5.2's "(subgraph_id, sanitized query, variables,
// relevant forwarded headers, auth identity bits)" cache key. renderRoot/
// renderEntity emit $-variable references for variable arguments and inline
// literal arguments, so the query text is the same across variable values;
// the variable values are folded in below, so two calls that differ only in
// variable values get different keys.
func cacheKey(subgraphID schema.SubgraphID, query string, variables map[string]any, headers map[string][]string, authBits string) string {
	var b strings.Builder
	b.WriteString(string(subgraphID))
	b.WriteByte('\n')
	b.WriteString(query)
	b.WriteByte('\n')

	varNames := make([]string, 0, len(variables))
	for k := range variables {
		varNames = append(varNames, k)
	}
	sort.Strings(varNames)
	for _, k := range varNames {
		b.WriteString(k)
		b.WriteByte('=')
		data, _ := marshalJSON(variables[k])
		b.Write(data)
		b.WriteByte('&')
	}
	b.WriteByte('\n')

	headerNames := make([]string, 0, len(headers))
	for k := range headers {
		headerNames = append(headerNames, k)
	}
	sort.Strings(headerNames)
	for _, k := range headerNames {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(headers[k], ","))
		b.WriteByte('&')
	}
	b.WriteByte('\n')
	b.WriteString(authBits)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// cacheableTTL reports the TTL a response may be stored under, derived from
// its Cache-Control header (§4.5.2 "Cache-Control-derived TTL") or a
// configured default when the subgraph didn't send one. A non-cacheable
// response (no-store, or a TTL of zero with no default) returns false.
func cacheableTTL(header http.Header, defaultTTL time.Duration) (time.Duration, bool) {
	cc := header.Get("Cache-Control")
	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "no-store" || directive == "no-cache" || directive == "private" {
			return 0, false
		}
		if after, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second, true
			}
		}
	}
	if defaultTTL > 0 {
		return defaultTTL, true
	}
	return 0, false
}

// entityCacheLookup reads cache for key, returning the stored bytes
// on a hit. A nil EntityCache (caching disabled for this deployment)
// behaves as an unconditional miss.
func entityCacheLookup(ctx context.Context, cache capability.EntityCache, key string) ([]byte, bool) {
	if cache == nil {
		return nil, false
	}
	body, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return body, true
}

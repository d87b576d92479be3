package subgraph

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheKey_StableForIdenticalInputs(t *testing.T) {
	vars := map[string]any{"id": "p1"}
	headers := map[string][]string{"Authorization": {"Bearer x"}}
	a := cacheKey("products", "query { p }", vars, headers, "user-1")
	b := cacheKey("products", "query { p }", vars, headers, "user-1")
	require.Equal(t, a, b)
}

func TestCacheKey_VariesWithSubgraphQueryVariablesHeadersAndAuth(t *testing.T) {
	base := cacheKey("products", "query { p }", map[string]any{"id": "p1"}, map[string][]string{"H": {"a"}}, "auth-1")

	require.NotEqual(t, base, cacheKey("reviews", "query { p }", map[string]any{"id": "p1"}, map[string][]string{"H": {"a"}}, "auth-1"))
	require.NotEqual(t, base, cacheKey("products", "query { q }", map[string]any{"id": "p1"}, map[string][]string{"H": {"a"}}, "auth-1"))
	require.NotEqual(t, base, cacheKey("products", "query { p }", map[string]any{"id": "p2"}, map[string][]string{"H": {"a"}}, "auth-1"))
	require.NotEqual(t, base, cacheKey("products", "query { p }", map[string]any{"id": "p1"}, map[string][]string{"H": {"b"}}, "auth-1"))
	require.NotEqual(t, base, cacheKey("products", "query { p }", map[string]any{"id": "p1"}, map[string][]string{"H": {"a"}}, "auth-2"))
}

func TestCacheableTTL_NoStoreAndNoCacheAndPrivateDisableCaching(t *testing.T) {
	for _, directive := range []string{"no-store", "no-cache", "private"} {
		h := http.Header{}
		h.Set("Cache-Control", directive)
		_, ok := cacheableTTL(h, time.Minute)
		require.False(t, ok, directive)
	}
}

func TestCacheableTTL_MaxAgeWins(t *testing.T) {
	h := http.Header{}
	h.Set("Cache-Control", "public, max-age=30")
	ttl, ok := cacheableTTL(h, time.Minute)
	require.True(t, ok)
	require.Equal(t, 30*time.Second, ttl)
}

func TestCacheableTTL_FallsBackToDefaultWhenNoDirectiveGiven(t *testing.T) {
	ttl, ok := cacheableTTL(http.Header{}, 45*time.Second)
	require.True(t, ok)
	require.Equal(t, 45*time.Second, ttl)
}

func TestCacheableTTL_NoDirectiveAndNoDefaultIsNotCacheable(t *testing.T) {
	_, ok := cacheableTTL(http.Header{}, 0)
	require.False(t, ok)
}

func TestCacheableTTL_ZeroOrNegativeMaxAgeIsNotCacheable(t *testing.T) {
	h := http.Header{}
	h.Set("Cache-Control", "max-age=0")
	_, ok := cacheableTTL(h, 0)
	require.False(t, ok)
}

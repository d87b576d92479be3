package extrt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimsToken_AnonymousWhenNoClaimsAndNoRawBytes(t *testing.T) {
	tok := newClaimsToken(nil, nil)
	require.True(t, tok.IsAnonymous())
	_, ok := tok.AsBytes()
	require.False(t, ok)
}

func TestClaimsToken_NotAnonymousWithClaims(t *testing.T) {
	tok := newClaimsToken(map[string]any{"sub": "u1"}, nil)
	require.False(t, tok.IsAnonymous())
	v, ok := tok.GetClaim("sub")
	require.True(t, ok)
	require.Equal(t, "u1", v)

	_, ok = tok.GetClaim("missing")
	require.False(t, ok)
}

func TestClaimsToken_NotAnonymousWithRawBytesOnly(t *testing.T) {
	tok := newClaimsToken(nil, []byte("raw"))
	require.False(t, tok.IsAnonymous())
	raw, ok := tok.AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte("raw"), raw)
}

package extrt

import (
	capability "github.com/nexusgraph/federation-gateway/internal/capability"
)

// claimsToken is the first concrete capability.AccessToken: a claims map
// decoded from an Authenticate extension call's response, alongside the
// raw token bytes the caller originally presented (so a downstream
// subgraph call can still forward them via AsBytes, §4.5.1 auth-identity
// cache bits).
type claimsToken struct {
	claims map[string]any
	raw    []byte
}

func newClaimsToken(claims map[string]any, raw []byte) capability.AccessToken {
	return &claimsToken{claims: claims, raw: raw}
}

// NewRawToken wraps the bytes a transport extracted from an incoming
// request (e.g. an `Authorization: Bearer ...` header) as a
// capability.AccessToken carrying no claims yet — the token a caller
// passes into Runtime.Authenticate to exchange for a claims-bearing one.
// A nil/empty raw produces an anonymous token.
func NewRawToken(raw []byte) capability.AccessToken {
	return &claimsToken{raw: raw}
}

var _ capability.AccessToken = (*claimsToken)(nil)

func (t *claimsToken) IsAnonymous() bool {
	return len(t.claims) == 0 && len(t.raw) == 0
}

func (t *claimsToken) GetClaim(name string) (any, bool) {
	v, ok := t.claims[name]
	return v, ok
}

func (t *claimsToken) AsBytes() ([]byte, bool) {
	if t.raw == nil {
		return nil, false
	}
	return t.raw, true
}

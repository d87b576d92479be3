package cache

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func marshalJSON(v any) ([]byte, error) { return jsonAPI.Marshal(v) }

// envelope is what actually gets stored in the injected EntityCache: the
// fingerprint's field data plus its absolute expiry, so Lookup can compute a
// remaining TTL (§4.7 "Hit(bytes, remaining_ttl)") from a plain Get/Put pair
// that carries no TTL metadata of its own — capability.Clock stands in for
// wall-clock time so this stays deterministic under test.
type envelope struct {
	Data      map[string]any `json:"data"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func encodeEnvelope(data map[string]any, expiresAt time.Time) ([]byte, error) {
	return marshalJSON(envelope{Data: data, ExpiresAt: expiresAt})
}

func decodeEnvelope(raw []byte) (*envelope, error) {
	var e envelope
	if err := jsonAPI.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
	operation "github.com/nexusgraph/federation-gateway/internal/operation"
	schema "github.com/nexusgraph/federation-gateway/internal/schema"
)

type fakeEntityCache struct {
	store map[string][]byte
}

func (c *fakeEntityCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *fakeEntityCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = value
	return nil
}

var _ capability.EntityCache = (*fakeEntityCache)(nil)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func preparedWithOneField(f *operation.FieldShape) *operation.PreparedOperation {
	return &operation.PreparedOperation{
		Fingerprint: "opfp",
		RootShape:   &operation.ConcreteShape{TypeName: "Query", Fields: []*operation.FieldShape{f}},
		Shapes:      []*operation.ConcreteShape{{TypeName: "Query", Fields: []*operation.FieldShape{f}}},
	}
}

func TestPartialCache_Lookup_MissWhenCacheEmpty(t *testing.T) {
	f := fieldShape("hot", &schema.CacheControl{MaxAge: time.Minute}, "String", nil)
	prepared := preparedWithOneField(f)
	pc := New(&fakeEntityCache{}, &fakeClock{now: time.Unix(0, 0)})

	out := pc.Lookup(context.Background(), prepared, &schema.Schema{}, nil, "")
	require.Equal(t, StatusMiss, out.Status)
	require.Len(t, out.MissFields, 1)
	require.Len(t, out.PendingWriteBacks, 1)
	require.Empty(t, out.HitFields)
}

func TestPartialCache_Lookup_HitReturnsStoredData(t *testing.T) {
	f := fieldShape("hot", &schema.CacheControl{MaxAge: time.Minute}, "String", nil)
	prepared := preparedWithOneField(f)
	clock := &fakeClock{now: time.Unix(0, 0)}
	pc := New(&fakeEntityCache{}, clock)

	fingerprints, _ := Split(prepared, &schema.Schema{})
	key := fingerprints[0].key(prepared.Fingerprint, prepared.Shapes, nil, "")
	raw, err := encodeEnvelope(map[string]any{"hot": "cached-value"}, clock.now.Add(30*time.Second))
	require.NoError(t, err)
	pc.Cache.(*fakeEntityCache).store = map[string][]byte{key: raw}

	out := pc.Lookup(context.Background(), prepared, &schema.Schema{}, nil, "")
	require.Equal(t, StatusHit, out.Status)
	require.Equal(t, "cached-value", out.HitData["hot"])
	require.Equal(t, 30*time.Second, out.MaxAge)
	require.Empty(t, out.MissFields)
}

func TestPartialCache_Lookup_ExpiredEntryCountsAsMiss(t *testing.T) {
	f := fieldShape("hot", &schema.CacheControl{MaxAge: time.Minute}, "String", nil)
	prepared := preparedWithOneField(f)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	pc := New(&fakeEntityCache{}, clock)

	fingerprints, _ := Split(prepared, &schema.Schema{})
	key := fingerprints[0].key(prepared.Fingerprint, prepared.Shapes, nil, "")
	raw, _ := encodeEnvelope(map[string]any{"hot": "stale"}, clock.now.Add(-time.Second))
	pc.Cache.(*fakeEntityCache).store = map[string][]byte{key: raw}

	out := pc.Lookup(context.Background(), prepared, &schema.Schema{}, nil, "")
	require.Equal(t, StatusMiss, out.Status)
	require.Len(t, out.MissFields, 1)
}

func TestPartialCache_Lookup_PartialHitWhenOneFingerprintHitsAndAnotherMisses(t *testing.T) {
	hot := fieldShape("hot", &schema.CacheControl{MaxAge: time.Minute}, "String", nil)
	cold := fieldShape("cold", &schema.CacheControl{MaxAge: 2 * time.Minute}, "String", nil)
	prepared := &operation.PreparedOperation{
		Fingerprint: "opfp",
		RootShape:   &operation.ConcreteShape{TypeName: "Query", Fields: []*operation.FieldShape{hot, cold}},
		Shapes:      []*operation.ConcreteShape{{TypeName: "Query", Fields: []*operation.FieldShape{hot, cold}}},
	}
	clock := &fakeClock{now: time.Unix(0, 0)}
	pc := New(&fakeEntityCache{}, clock)

	fingerprints, _ := Split(prepared, &schema.Schema{})
	hotKey := fingerprints[0].key(prepared.Fingerprint, prepared.Shapes, nil, "")
	raw, _ := encodeEnvelope(map[string]any{"hot": "cached"}, clock.now.Add(10*time.Second))
	pc.Cache.(*fakeEntityCache).store = map[string][]byte{hotKey: raw}

	out := pc.Lookup(context.Background(), prepared, &schema.Schema{}, nil, "")
	require.Equal(t, StatusPartialHit, out.Status)
	require.Equal(t, "cached", out.HitData["hot"])
	require.Len(t, out.MissFields, 1)
	require.Equal(t, "cold", out.MissFields[0].ResponseKey.ResponseName)
	// max-age is the minimum across the hit's remaining ttl (10s) and the
	// miss fingerprint's configured cacheable max-age (2m).
	require.Equal(t, 10*time.Second, out.MaxAge)
}

func TestPartialCache_WriteBack_StoresExtractedFieldData(t *testing.T) {
	f := fieldShape("hot", &schema.CacheControl{MaxAge: time.Minute}, "String", nil)
	clock := &fakeClock{now: time.Unix(0, 0)}
	fc := &fakeEntityCache{}
	pc := New(fc, clock)

	pending := []PendingWriteBack{{key: "k1", MaxAge: time.Minute, Fields: []*operation.FieldShape{f}}}
	pc.WriteBack(context.Background(), pending, map[string]any{"hot": "fresh-value", "other": "ignored"})

	require.Eventually(t, func() bool {
		raw, ok := fc.store["k1"]
		if !ok {
			return false
		}
		env, err := decodeEnvelope(raw)
		return err == nil && env.Data["hot"] == "fresh-value" && len(env.Data) == 1
	}, time.Second, time.Millisecond)
}

func TestCombinedMaxAge_IgnoresNonPositiveAndTakesMinimum(t *testing.T) {
	got := CombinedMaxAge([]time.Duration{0, 30 * time.Second}, []time.Duration{-1, 10 * time.Second})
	require.Equal(t, 10*time.Second, got)
}

func TestCombinedMaxAge_ZeroWhenNothingPositive(t *testing.T) {
	require.Equal(t, time.Duration(0), CombinedMaxAge([]time.Duration{0}, nil))
}

package memcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestStore_GetPut_RoundTrip(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Put(context.Background(), "k", []byte("v"), time.Minute))
	v, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}

func TestStore_Get_MissingKeyIsNotFound(t *testing.T) {
	s := New(nil)
	_, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_Get_ExpiredEntryIsEvicted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	s := New(clock)
	require.NoError(t, s.Put(context.Background(), "k", []byte("v"), time.Second))

	clock.now = clock.now.Add(2 * time.Second)
	_, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_Put_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	s := New(clock)
	require.NoError(t, s.Put(context.Background(), "k", []byte("v"), 0))

	clock.now = clock.now.Add(365 * 24 * time.Hour)
	_, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStore_JSON_RoundTrip(t *testing.T) {
	s := New(nil)
	type doc struct {
		Query string `json:"query"`
	}
	require.NoError(t, s.PutJSON(context.Background(), "apq:abc", doc{Query: "{ x }"}, time.Minute))

	var out doc
	ok, err := s.GetJSON(context.Background(), "apq:abc", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "{ x }", out.Query)
}

func TestStore_Sweep_RemovesExpiredEntriesOnly(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	s := New(clock)
	require.NoError(t, s.Put(context.Background(), "expires", []byte("v"), time.Second))
	require.NoError(t, s.Put(context.Background(), "stays", []byte("v"), time.Hour))

	clock.now = clock.now.Add(2 * time.Second)
	s.Sweep()

	_, ok, _ := s.Get(context.Background(), "expires")
	require.False(t, ok)
	_, ok, _ = s.Get(context.Background(), "stays")
	require.True(t, ok)
}

// Package memcache is an in-process, TTL-expiring capability.EntityCache and
// capability.OperationDocCache, for deployments that don't wire an external
// cache store (§6.5 entity_caching.storage "opaque implementation choice" —
// this is the in-memory choice).
package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Store is a sharded-by-nothing, mutex-guarded map with lazy expiry: entries
// are only actually evicted when they're looked up or swept, not on a timer.
type Store struct {
	clock capability.Clock

	mu      sync.Mutex
	entries map[string]entry
}

func New(clock capability.Clock) *Store {
	if clock == nil {
		clock = capability.SystemClock{}
	}
	return &Store{clock: clock, entries: map[string]entry{}}
}

var (
	_ capability.EntityCache      = (*Store)(nil)
	_ capability.OperationDocCache = (*Store)(nil)
)

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && s.clock.Now().After(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = s.clock.Now().Add(ttl)
	}
	s.entries[key] = entry{value: append([]byte(nil), value...), expires: expires}
	return nil
}

func (s *Store) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(raw, out)
}

func (s *Store) PutJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, raw, ttl)
}

// Sweep evicts every expired entry. Deployments that keep a Store alive for
// a long time and never look up cold keys again can call this periodically
// to bound its size; tests and short-lived processes don't need to.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	for k, e := range s.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(s.entries, k)
		}
	}
}

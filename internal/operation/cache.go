package operation

import "sync"

// InMemoryCache is a concurrency-safe Cache backed by a plain map, the
// default when no distributed prepared-operation cache is configured.
type InMemoryCache struct {
	mu sync.RWMutex
	m  map[Fingerprint]*PreparedOperation
}

// NewInMemoryCache returns an empty InMemoryCache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{m: make(map[Fingerprint]*PreparedOperation)}
}

func (c *InMemoryCache) Get(fp Fingerprint) (*PreparedOperation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.m[fp]
	return op, ok
}

func (c *InMemoryCache) Put(fp Fingerprint, op *PreparedOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[fp] = op
}

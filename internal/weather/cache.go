package weather

import (
	"sync"
	"time"
)

// EntryState describes a cache key's freshness
type EntryState int

const (
	StateEmpty EntryState = iota
	StateFresh
	StateStale
)

func (s EntryState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "empty"
	}
}

// cacheEntry represents a cached value with the time it was stored
type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a concurrency-safe TTL cache with an injectable clock
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time
	hits    int
	misses  int
}

// NewCache creates a cache whose entries stay fresh for ttl
func NewCache[V any](ttl time.Duration, now func() time.Time) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached value if the entry is fresh
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[key]
	if found && c.fresh(entry) {
		c.hits++
		return entry.value, true
	}
	c.misses++
	var zero V
	return zero, false
}

// Set stores a value, replacing any previous entry for the key
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// State reports whether the key is empty, fresh or stale
func (c *Cache[V]) State(key string) EntryState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, found := c.entries[key]
	switch {
	case !found:
		return StateEmpty
	case c.fresh(entry):
		return StateFresh
	default:
		return StateStale
	}
}

// Stats returns cache hit and miss counts
func (c *Cache[V]) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *Cache[V]) fresh(entry cacheEntry[V]) bool {
	return c.now().Sub(entry.storedAt) < c.ttl
}

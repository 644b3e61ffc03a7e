package querykit

import (
	"sync"
	"time"
)

// timeNow is a seam for cache freshness tests
var timeNow = time.Now

// cacheEntry is one cached result with its fetch time
type cacheEntry[R any] struct {
	data      R
	fetchedAt time.Time
	stale     bool
}

// Cache stores fetched results keyed by descriptor. Entries past the TTL
// (or explicitly invalidated) are stale: still served, but due for
// revalidation. Data is never dropped on invalidation; stale data beats a
// blank view
type Cache[R any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry[R]
}

// NewCache builds a cache with the given stale TTL. A non-positive TTL
// means entries are stale as soon as they land
func NewCache[R any](ttl time.Duration) *Cache[R] {
	return &Cache[R]{ttl: ttl, entries: make(map[string]cacheEntry[R])}
}

// Get returns the entry for key: ok reports presence, fresh reports whether
// it can be served without revalidation
func (c *Cache[R]) Get(key string) (data R, ok, fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return data, false, false
	}
	fresh = !e.stale && c.ttl > 0 && timeNow().Sub(e.fetchedAt) < c.ttl
	return e.data, true, fresh
}

// Put stores a freshly fetched result under key
func (c *Cache[R]) Put(key string, data R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[R]{data: data, fetchedAt: timeNow()}
}

// MarkStale flags one entry for revalidation without dropping its data
func (c *Cache[R]) MarkStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
		c.entries[key] = e
	}
}

// MarkAllStale flags every entry for revalidation
func (c *Cache[R]) MarkAllStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		e.stale = true
		c.entries[k] = e
	}
}

// Len reports the number of cached entries
func (c *Cache[R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

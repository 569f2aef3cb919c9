// Package cache provides a size-bounded, concurrency-safe LRU cache.
//
// Every operation on one Cache is mutually exclusive with every other
// operation on it; nothing blocks longer than the map and list update.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"masonry-gallery/internal/metrics"
)

// Cache maps keys to values and evicts the least recently used entry
// once more than Capacity entries are held.
type Cache[K comparable, V any] struct {
	name     string
	capacity int
	entries  *lru.Cache[K, V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding at most capacity entries. The name labels
// metrics. A capacity below 1 is raised to 1.
func New[K comparable, V any](name string, capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	c := &Cache[K, V]{name: name, capacity: capacity}
	// lru only rejects non-positive sizes
	c.entries, _ = lru.NewWithEvict[K, V](capacity, c.onEvict)
	return c
}

func (c *Cache[K, V]) onEvict(K, V) {
	c.evictions.Add(1)
	metrics.CacheEviction(c.name)
}

// Get returns the value for key and promotes it to most recently used.
// The boolean is false when the key is absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.CacheLookup(c.name, ok)
	return v, ok
}

// Contains reports whether key is present without promoting it.
func (c *Cache[K, V]) Contains(key K) bool {
	return c.entries.Contains(key)
}

// Put inserts or overwrites key, marks it most recently used and evicts
// the oldest entries while the cache is over capacity.
func (c *Cache[K, V]) Put(key K, value V) {
	c.entries.Add(key, value)
}

// Remove deletes key. It reports whether the key was present.
func (c *Cache[K, V]) Remove(key K) bool {
	return c.entries.Remove(key)
}

// Purge drops every entry. Purged entries do not count as evictions.
func (c *Cache[K, V]) Purge() {
	before := c.evictions.Load()
	c.entries.Purge()
	c.evictions.Store(before)
}

// Keys returns the keys from oldest to newest.
func (c *Cache[K, V]) Keys() []K {
	return c.entries.Keys()
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Name returns the metrics label of the cache.
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

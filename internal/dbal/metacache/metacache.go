// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metacache is a TTL cache for entity metadata lookups. No request
path in the service calls into it: create and update do not consult it.

Expiration is passive: a cleanup goroutine is unnecessary since expired
entries are simply treated as absent on next Get and overwritten on the next
Put. Invalidate and InvalidateAll rewind an entry's expiry to the current
time rather than deleting it outright, so a concurrent reader never observes
a transient cache miss mid-invalidation — it just observes a stale-or-fresh
boundary at a single instant.
*/
package metacache

import (
	"sync"
	"time"
)

type entry struct {
	value  interface{}
	expiry time.Time
}

// Cache is a thread-safe, TTL-based key/value cache with hit/miss counters.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration

	hits   uint64
	misses uint64
}

// New builds a [Cache] with the given time-to-live applied to every entry.
func New(ttl time.Duration) *Cache {
	return &Cache{entries: make(map[string]entry), ttl: ttl}
}

// Get returns the cached value for key if present and not yet expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiry) {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Put stores value under key with a fresh TTL.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiry: time.Now().Add(c.ttl)}
}

// Invalidate rewinds key's expiry to now, so the next Get reports a miss
// without removing the entry outright — a concurrent Get racing this call
// either sees the old value (if it read the expiry first) or a miss, never
// a half-written entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.expiry = time.Now()
		c.entries[key] = e
	}
}

// InvalidateAll rewinds every entry's expiry to now.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		e.expiry = now
		c.entries[key] = e
	}
}

// Stats reports cumulative hit/miss counts since the cache was created.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Stats returns the cache's current hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses}
}

// Package cache provides a generic TTL cache used by latency-sensitive tool
// lookups to avoid redundant external calls.
package cache

import (
	"sync"
	"time"
)

// entry wraps a cached value with its insertion timestamp.
type entry[T any] struct {
	value  T
	stored time.Time
}

// Cache is a keyed store with a fixed TTL. Values are replaced wholesale on
// Set, never partially updated. Expired entries are evicted lazily on Get and
// eagerly by Prune, which Start runs on a schedule to bound memory when keys
// are queried rarely after insertion.
// Thread-safe with sync.RWMutex.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a new Cache with the given TTL.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
}

// Get returns the cached value for key if present and not older than the TTL.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if time.Since(e.stored) > c.ttl {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[key]; ok2 && time.Since(e2.stored) > c.ttl {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores a value with the current timestamp, overwriting any prior entry.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{value: value, stored: time.Now()}
}

// Clear drops all entries unconditionally and returns how many were removed.
func (c *Cache[T]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	c.items = make(map[string]entry[T])
	return n
}

// Prune sweeps all entries, removing those older than the TTL. Returns the
// number of entries removed.
func (c *Cache[T]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if time.Since(e.stored) > c.ttl {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Start runs Prune on the given interval until Stop is called.
func (c *Cache[T]) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Prune()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the prune loop started by Start. Safe to call more than once.
func (c *Cache[T]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Package cache provides the process-wide TTL key/value store used by the
// catalog aggregator. The store is constructed in main and injected, so
// tests can substitute their own instance.
package cache

import (
	"sync"
	"time"
)

// Store is the cache contract consumed by the aggregation services.
// Values are immutable once written: callers must not mutate what Get
// returns. Entries expire purely by TTL; there is no explicit invalidation.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Memory is an in-process Store backed by a mutex-guarded map. Expired
// entries are dropped lazily on read and swept periodically by a janitor.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	stop chan struct{}
	once sync.Once
}

// NewMemory creates a memory cache and starts its background sweeper.
func NewMemory() *Memory {
	c := &Memory{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go c.janitor(10 * time.Minute)
	return c
}

func (c *Memory) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *Memory) Set(key string, value any, ttl time.Duration) {
	if key == "" || ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Len reports the number of live entries, counting ones the janitor has not
// swept yet.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Memory) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

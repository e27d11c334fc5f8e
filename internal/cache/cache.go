// Package cache memoizes aggregation payloads per (region, limit) key with a
// bounded TTL.
package cache

import (
	"sync"
	"time"
)

// Key identifies one cached payload. Two limits for the same region are
// distinct entries.
type Key struct {
	RegionID string
	Limit    int
}

type entry struct {
	value    any
	cachedAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[Key]entry

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache whose entries expire ttl after they were written. A
// background sweep evicts expired entries every sweepInterval; expiry is also
// checked lazily on read, so a stale entry is never served either way.
func New(ttl, sweepInterval time.Duration) *Cache {
	c := NewWithClock(ttl, time.Now)
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// NewWithClock creates a cache without the background sweep, reading time from
// the given clock. Tests use this to step time explicitly.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		ttl:   ttl,
		now:   now,
		items: make(map[Key]entry),
		stop:  make(chan struct{}),
	}
}

func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if c.now().Sub(e.cachedAt) >= c.ttl {
		// Expired but not yet swept; the sweeper will remove it.
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{value: value, cachedAt: c.now()}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[Key]entry)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop terminates the background sweep, if any.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.items {
		if now.Sub(e.cachedAt) >= c.ttl {
			delete(c.items, key)
		}
	}
}

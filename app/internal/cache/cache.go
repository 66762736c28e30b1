package cache

import (
	"sync"
	"time"
)

// Cache is a small in-memory TTL cache for computed read models. The
// card payload recomputes four uptime windows plus a 90-day bar strip
// per target on every request, so the public endpoints serve from here
// and owner mutations invalidate.
type Cache struct {
	mu          sync.RWMutex
	items       map[string]entry
	ttl         time.Duration
	janitor     *time.Ticker
	stopJanitor chan struct{}
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		items:       make(map[string]entry),
		ttl:         ttl,
		janitor:     time.NewTicker(ttl),
		stopJanitor: make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *Cache) sweep() {
	for {
		select {
		case <-c.janitor.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.items {
				if now.After(e.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopJanitor:
			c.janitor.Stop()
			return
		}
	}
}

// Stop terminates the background sweeper.
func (c *Cache) Stop() {
	close(c.stopJanitor)
}

// Get returns the cached value for key, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Delete removes one key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear drops everything. Owner mutations call this so the public read
// side never serves a deleted or toggled target from cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry)
}

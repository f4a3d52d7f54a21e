package cache

import (
	"bytes"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memorySweepInterval is how often expired entries are evicted
const memorySweepInterval = 10 * time.Minute

// MemoryCache holds search payloads in process memory via go-cache.
// Values are copied on the way in and out so callers cannot alias cached bytes.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries live for ttl unless Set overrides it
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, memorySweepInterval)}
}

// Get returns a copy of the payload stored under key
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	raw, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	payload, ok := raw.([]byte)
	if !ok {
		return nil, false
	}
	return bytes.Clone(payload), true
}

// Set stores payload under key. A zero ttl uses the cache default; a negative
// ttl means the entry is already stale and removes it.
func (c *MemoryCache) Set(key string, payload []byte, ttl time.Duration) error {
	switch {
	case ttl < 0:
		c.items.Delete(key)
	case ttl == 0:
		c.items.SetDefault(key, bytes.Clone(payload))
	default:
		c.items.Set(key, bytes.Clone(payload), ttl)
	}
	return nil
}

// Delete drops key
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

// Clear drops every entry
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len returns the number of stored entries, expired ones included until swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

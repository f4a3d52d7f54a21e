package cache

import (
	"errors"
	"fmt"
	"time"
)

// LayeredCache fronts the disk cache with a memory cache. Reads fall through
// to disk and promote hits; writes go to both layers.
type LayeredCache struct {
	hot  *MemoryCache
	cold *DiskCache
}

// NewLayeredCache creates a memory layer with memoryTTL over a disk layer in dir with diskTTL
func NewLayeredCache(memoryTTL time.Duration, dir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		hot:  NewMemoryCache(memoryTTL),
		cold: NewDiskCache(dir, diskTTL),
	}
}

// Get serves from memory, then disk. Disk hits are promoted with the memory TTL.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if payload, found := c.hot.Get(key); found {
		return payload, true
	}

	payload, found := c.cold.Get(key)
	if !found {
		return nil, false
	}
	_ = c.hot.Set(key, payload, 0)
	return payload, true
}

// Set writes both layers. A failed disk write still leaves the entry in memory.
func (c *LayeredCache) Set(key string, payload []byte, ttl time.Duration) error {
	_ = c.hot.Set(key, payload, ttl)
	if err := c.cold.Set(key, payload, ttl); err != nil {
		return fmt.Errorf("disk layer: %w", err)
	}
	return nil
}

// Delete drops key from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.hot.Delete(key), c.cold.Delete(key))
}

// Clear drops every entry from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.hot.Clear(), c.cold.Clear())
}

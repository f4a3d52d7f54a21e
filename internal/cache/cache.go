package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from its parts.
// Parts are joined with a separator that cannot appear in normalized search input.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "claimcheck:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New builds the configured cache: memory only when dir is empty, memory + disk otherwise
func New(memoryTTL time.Duration, dir string, diskTTL time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(memoryTTL)
	}
	return NewLayeredCache(memoryTTL, dir, diskTTL)
}

// Package cache stores serialized provider search pages so repeated queries
// do not hit the remote APIs. Backends register themselves by name.
package cache

import "context"

// EvictCallback is called when an entry is evicted from the cache.
// Backends with server-side expiry (Redis) never call it.
type EvictCallback func(key string, value []byte)

// Cache is a byte-oriented key-value store with expiring entries.
type Cache interface {
	// Get retrieves a value by key. Returns the value and true if found, or nil and false if not.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given key. If the key already exists, it is overwritten.
	Set(ctx context.Context, key string, value []byte)

	// Contains checks whether a key exists without affecting LRU ordering.
	Contains(ctx context.Context, key string) bool

	// Len returns the number of entries currently in the cache.
	Len() int

	// Close releases any resources held by the cache (e.g., network connections).
	Close() error
}

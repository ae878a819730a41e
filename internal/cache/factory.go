package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options holds the configuration needed to create a cache instance.
type Options struct {
	// Size is the maximum number of entries for LRU caches.
	Size int

	// TTL is the time-to-live for cache entries.
	TTL time.Duration

	// OnEvict is called when an entry is evicted. Not all backends support this.
	OnEvict EvictCallback

	// Logger receives error reports from cache operations.
	Logger zerolog.Logger

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Group labels the cache metrics. When non-empty the cache is wrapped
	// with hit/miss/eviction instrumentation.
	Group string
}

// Backend is a constructor function that creates a Cache from options.
type Backend func(opts Options) (Cache, error)

var (
	mu       sync.RWMutex
	backends = make(map[string]Backend)
)

// Register registers a cache backend under the given name.
// It panics if the name is already registered or the backend is nil.
func Register(name string, b Backend) {
	mu.Lock()
	defer mu.Unlock()

	if b == nil {
		panic("cache: Register backend is nil")
	}
	if _, exists := backends[name]; exists {
		panic(fmt.Sprintf("cache: backend %q already registered", name))
	}
	backends[name] = b
}

// New creates a Cache using the named backend.
// When opts.Group is non-empty the cache is instrumented and a lazy entries
// collector reading Len() at scrape time is registered for the group.
func New(name string, opts Options) (Cache, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown backend %q (registered: %v)", name, RegisteredBackends())
	}

	if opts.Group == "" {
		return b(opts)
	}

	group := opts.Group
	original := opts.OnEvict
	opts.OnEvict = func(key string, value []byte) {
		provider, _ := KeyLabels(key)
		EvictionsTotal.WithLabelValues(group, provider).Inc()
		if original != nil {
			original(key, value)
		}
	}

	inner, err := b(opts)
	if err != nil {
		return nil, err
	}

	return newInstrumentedCache(inner, group), nil
}

// RegisteredBackends returns a sorted list of registered backend names.
func RegisteredBackends() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

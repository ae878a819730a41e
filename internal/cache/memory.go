package cache

import (
	"bytes"
	"context"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache keeps encoded search pages in a process-local expirable LRU.
// Values are copied in and out, so a caller decoding or reusing its buffer
// never changes what other callers read.
type memoryCache struct {
	pages *expirable.LRU[string, []byte]
}

// newMemoryCache ignores the context and the Redis options. A Size of 0 means unbounded.
func newMemoryCache(opts Options) (Cache, error) {
	var onEvict expirable.EvictCallback[string, []byte]
	if opts.OnEvict != nil {
		onEvict = expirable.EvictCallback[string, []byte](opts.OnEvict)
	}

	opts.Logger.Debug().Int("size", opts.Size).Dur("ttl", opts.TTL).Msg("Using in-memory search cache")
	return &memoryCache{
		pages: expirable.NewLRU[string, []byte](opts.Size, onEvict, opts.TTL),
	}, nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	page, ok := m.pages.Get(key)
	if !ok {
		return nil, false
	}
	return bytes.Clone(page), true
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) {
	m.pages.Add(key, bytes.Clone(value))
}

func (m *memoryCache) Contains(_ context.Context, key string) bool {
	return m.pages.Contains(key)
}

func (m *memoryCache) Len() int {
	return m.pages.Len()
}

func (m *memoryCache) Close() error {
	return nil
}

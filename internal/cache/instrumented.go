package cache

import "context"

// instrumentedCache counts lookups and stores per provider and exports the
// entry count of its group.
type instrumentedCache struct {
	inner Cache
	group string
}

func newInstrumentedCache(inner Cache, group string) *instrumentedCache {
	registerEntriesCollector(group, inner.Len)
	return &instrumentedCache{inner: inner, group: group}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, ok := c.inner.Get(ctx, key)
	provider, kind := KeyLabels(key)
	if ok {
		HitsTotal.WithLabelValues(c.group, provider, kind).Inc()
	} else {
		MissesTotal.WithLabelValues(c.group, provider, kind).Inc()
	}
	return val, ok
}

func (c *instrumentedCache) Set(ctx context.Context, key string, value []byte) {
	c.inner.Set(ctx, key, value)
	provider, kind := KeyLabels(key)
	SetsTotal.WithLabelValues(c.group, provider, kind).Inc()
}

func (c *instrumentedCache) Contains(ctx context.Context, key string) bool {
	return c.inner.Contains(ctx, key)
}

func (c *instrumentedCache) Len() int {
	return c.inner.Len()
}

// Close unregisters the entries collector and closes the underlying cache.
func (c *instrumentedCache) Close() error {
	unregisterEntriesCollector(c.group)
	return c.inner.Close()
}

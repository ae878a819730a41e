package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tornado-product/FusionMediaProvider/internal/cache"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// cachedProvider serves repeated searches and lookups from a cache.
// Only successful responses are stored.
type cachedProvider struct {
	inner Provider
	cache cache.Cache
}

// WithCache wraps p so search pages and media lookups are cached as JSON.
func WithCache(p Provider, c cache.Cache) Provider {
	if c == nil {
		return p
	}
	return &cachedProvider{inner: p, cache: c}
}

func (c *cachedProvider) Name() string {
	return c.inner.Name()
}

func (c *cachedProvider) SearchImages(ctx context.Context, query string, limit, page int) (*models.SearchResult, error) {
	key := c.searchKey(models.MediaTypeImage, query, limit, page)
	return cachedCall(ctx, c.cache, key, func() (*models.SearchResult, error) {
		return c.inner.SearchImages(ctx, query, limit, page)
	})
}

func (c *cachedProvider) SearchVideos(ctx context.Context, query string, limit, page int) (*models.SearchResult, error) {
	key := c.searchKey(models.MediaTypeVideo, query, limit, page)
	return cachedCall(ctx, c.cache, key, func() (*models.SearchResult, error) {
		return c.inner.SearchVideos(ctx, query, limit, page)
	})
}

func (c *cachedProvider) GetMedia(ctx context.Context, id string, mediaType models.MediaType) (*models.MediaItem, error) {
	key := fmt.Sprintf("%s|media|%s|%s", strings.ToLower(c.inner.Name()), mediaType, id)
	return cachedCall(ctx, c.cache, key, func() (*models.MediaItem, error) {
		return c.inner.GetMedia(ctx, id, mediaType)
	})
}

func (c *cachedProvider) searchKey(mediaType models.MediaType, query string, limit, page int) string {
	return fmt.Sprintf("%s|search|%s|%s|%d|%d",
		strings.ToLower(c.inner.Name()), mediaType, strings.ToLower(strings.TrimSpace(query)), limit, page)
}

// cachedCall returns the cached value for key or calls fetch and stores its result.
// Undecodable entries are treated as misses.
func cachedCall[T any](ctx context.Context, c cache.Cache, key string, fetch func() (*T, error)) (*T, error) {
	logger := config.GetLogger()

	if data, ok := c.Get(ctx, key); ok {
		var v T
		err := json.Unmarshal(data, &v)
		if err == nil {
			logger.Debug().Str("key", key).Msg("Search cache hit")
			return &v, nil
		}
		logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
	}

	v, err := fetch()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to encode value for cache")
		return v, nil
	}
	c.Set(ctx, key, data)
	return v, nil
}

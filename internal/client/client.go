// Package client is the caller-facing facade of the acquisition engine:
// aggregated search across providers and downloads with progress reporting.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/tornado-product/FusionMediaProvider/internal/cache"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/httpclient"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/providers"
	_ "github.com/tornado-product/FusionMediaProvider/internal/providers/pexels"
	_ "github.com/tornado-product/FusionMediaProvider/internal/providers/pixabay"
	"github.com/tornado-product/FusionMediaProvider/internal/services"
)

const (
	defaultMaxConcurrent    = 5
	defaultBreakerThreshold = 5
	defaultBreakerDelay     = 30 * time.Second
	searchCacheGroup        = "search"
)

// Client defines the caller-facing operations
type Client interface {
	// Providers returns the registered providers in registration order.
	Providers() []providers.Provider

	// Search queries every provider concurrently and merges their pages.
	// It only fails when there are no providers or every provider failed.
	Search(ctx context.Context, params models.SearchParams) (*models.AggregatedSearchResult, error)
	// SearchFromProvider queries a single provider by case-insensitive name.
	SearchFromProvider(ctx context.Context, name string, params models.SearchParams) (*models.SearchResult, error)

	// DownloadItem saves one asset to the output directory and returns its path.
	DownloadItem(ctx context.Context, item *models.MediaItem, progress models.ProgressCallback) (string, error)
	// DownloadItems saves assets under the concurrency limit. Results keep the input order.
	DownloadItems(ctx context.Context, items []models.MediaItem, progress models.ProgressCallback) []models.TransferResult
	// DownloadItemsWithBatchProgress is DownloadItems reporting an aggregate batch view.
	DownloadItemsWithBatchProgress(ctx context.Context, items []models.MediaItem, callback models.BatchProgressCallback) []models.TransferResult
	// DownloadByID asks each provider in order for id and downloads the first hit.
	DownloadByID(ctx context.Context, id string, mediaType models.MediaType, progress models.ProgressCallback) (string, error)
	// DownloadBatch downloads items and returns the paths of the successful ones.
	// callback receives one synthetic record per batch change.
	DownloadBatch(ctx context.Context, items []models.MediaItem, callback models.ProgressCallback) ([]string, error)

	// Close releases any resources held by the client (e.g., cache connections).
	Close() error
}

// Settings controls how downloads are resolved and written
type Settings struct {
	OutputDir        string
	ImageQuality     models.ImageQuality
	VideoQuality     models.VideoQuality
	UseOriginalNames bool
	MaxConcurrent    int
	// Resume continues partial files for single downloads. Batches always resume.
	Resume bool
}

// DefaultSettings returns the settings used when no option overrides them
func DefaultSettings() Settings {
	return Settings{
		OutputDir:     "./downloads",
		ImageQuality:  models.ImageLarge,
		VideoQuality:  models.VideoLarge,
		MaxConcurrent: defaultMaxConcurrent,
		Resume:        true,
	}
}

// Option configures a client created with New
type Option func(*client)

// WithSettings replaces the download settings
func WithSettings(s Settings) Option {
	return func(c *client) {
		c.settings = s
	}
}

// WithTransferEngine replaces the transfer engine
func WithTransferEngine(e services.TransferEngine) Option {
	return func(c *client) {
		c.engine = e
	}
}

// WithCircuitBreaker sets the consecutive failures that open a provider's breaker
// and how long it stays open
func WithCircuitBreaker(failureThreshold uint, delay time.Duration) Option {
	return func(c *client) {
		if failureThreshold > 0 {
			c.breakerThreshold = failureThreshold
		}
		if delay > 0 {
			c.breakerDelay = delay
		}
	}
}

// WithCloser registers a resource released by Close
func WithCloser(closer io.Closer) Option {
	return func(c *client) {
		c.closers = append(c.closers, closer)
	}
}

// registeredProvider pairs a provider with its circuit breaker
type registeredProvider struct {
	provider providers.Provider
	breaker  circuitbreaker.CircuitBreaker[*models.SearchResult]
}

// client implements the Client interface
type client struct {
	entries          []registeredProvider
	engine           services.TransferEngine
	settings         Settings
	breakerThreshold uint
	breakerDelay     time.Duration
	closers          []io.Closer
}

// New creates a client over an explicit provider list
func New(list []providers.Provider, opts ...Option) Client {
	c := &client{
		settings:         DefaultSettings(),
		breakerThreshold: defaultBreakerThreshold,
		breakerDelay:     defaultBreakerDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = services.NewTransferEngine(httpclient.NewTransferClient(&config.Config{}))
	}
	for _, p := range list {
		c.entries = append(c.entries, registeredProvider{
			provider: p,
			breaker:  newBreaker(p.Name(), c.breakerThreshold, c.breakerDelay),
		})
	}
	return c
}

// NewClient creates a client from configuration: every enabled provider with an
// API key, an optional search cache and a transfer engine honouring the proxy.
func NewClient(cfg *config.Config) (Client, error) {
	logger := config.GetLogger()

	list, err := providers.FromConfig(cfg, httpclient.NewAPIClient(cfg))
	if err != nil {
		return nil, err
	}

	settings, err := settingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithSettings(settings),
		WithCircuitBreaker(cfg.Search.BreakerFailureThreshold, config.ParseDuration("search.breaker_delay", cfg.Search.BreakerDelay, defaultBreakerDelay)),
		WithTransferEngine(services.NewTransferEngine(
			httpclient.NewTransferClient(cfg),
			services.WithUserAgent(cfg.UserAgent),
			services.WithProgressInterval(config.ParseDuration("download.progress_interval", cfg.Download.ProgressInterval, services.DefaultProgressInterval)),
		)),
	}

	searchCache, err := newSearchCache(cfg)
	if err != nil {
		return nil, err
	}
	if searchCache != nil {
		for i, p := range list {
			list[i] = providers.WithCache(p, searchCache)
		}
		opts = append(opts, WithCloser(searchCache))
	}

	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name())
	}
	logger.Info().Strs("providers", names).Str("output_dir", settings.OutputDir).Msg("Media client ready")

	return New(list, opts...), nil
}

func settingsFromConfig(cfg *config.Config) (Settings, error) {
	s := DefaultSettings()
	if cfg.Download.OutputDir != "" {
		s.OutputDir = cfg.Download.OutputDir
	}
	if cfg.Download.ImageQuality != "" {
		q, err := models.ParseImageQuality(cfg.Download.ImageQuality)
		if err != nil {
			return s, fmt.Errorf("download.image_quality: %w", err)
		}
		s.ImageQuality = q
	}
	if cfg.Download.VideoQuality != "" {
		q, err := models.ParseVideoQuality(cfg.Download.VideoQuality)
		if err != nil {
			return s, fmt.Errorf("download.video_quality: %w", err)
		}
		s.VideoQuality = q
	}
	if cfg.Download.MaxConcurrent > 0 {
		s.MaxConcurrent = cfg.Download.MaxConcurrent
	}
	s.UseOriginalNames = cfg.Download.UseOriginalNames
	s.Resume = cfg.Download.Resume
	return s, nil
}

// newSearchCache returns nil when caching is disabled
func newSearchCache(cfg *config.Config) (cache.Cache, error) {
	backend := cfg.Cache.Backend
	if backend == "" || backend == "none" {
		return nil, nil
	}

	size := cfg.Cache.Size
	if size <= 0 {
		size = 500
	}
	c, err := cache.New(backend, cache.Options{
		Size:          size,
		TTL:           config.ParseDuration("cache.ttl", cfg.Cache.TTL, time.Hour),
		Logger:        config.GetLogger(),
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         searchCacheGroup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s search cache: %w", backend, err)
	}
	return c, nil
}

func (c *client) Providers() []providers.Provider {
	out := make([]providers.Provider, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.provider)
	}
	return out
}

// Close releases any resources held by the client, such as cache connections.
func (c *client) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/metrics"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/providers"
)

// newBreaker opens after threshold consecutive provider failures. Cancellations
// by the caller are not counted.
func newBreaker(name string, threshold uint, delay time.Duration) circuitbreaker.CircuitBreaker[*models.SearchResult] {
	logger := config.GetLogger()
	return circuitbreaker.NewBuilder[*models.SearchResult]().
		HandleIf(func(_ *models.SearchResult, err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}).
		WithFailureThreshold(threshold).
		WithDelay(delay).
		OnOpen(func(circuitbreaker.StateChangedEvent) {
			logger.Warn().Str("provider", name).Dur("delay", delay).Msg("Circuit breaker opened")
		}).
		OnClose(func(circuitbreaker.StateChangedEvent) {
			logger.Info().Str("provider", name).Msg("Circuit breaker closed")
		}).
		Build()
}

// searchProvider runs one provider search through its circuit breaker and records metrics
func (c *client) searchProvider(ctx context.Context, entry registeredProvider, params models.SearchParams) (*models.SearchResult, error) {
	name := entry.provider.Name()
	start := time.Now()

	result, err := failsafe.With[*models.SearchResult](entry.breaker).
		WithContext(ctx).
		Get(func() (*models.SearchResult, error) {
			return providers.Search(ctx, entry.provider, params)
		})

	metrics.SearchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		metrics.SearchRequestsTotal.WithLabelValues(name, "rejected").Inc()
		metrics.CircuitBreakerRejectionsTotal.WithLabelValues(name).Inc()
		return nil, fmt.Errorf("%s: %w", name, err)
	case err != nil:
		metrics.SearchRequestsTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	case result == nil:
		metrics.SearchRequestsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("%s: empty search result", name)
	}
	metrics.SearchRequestsTotal.WithLabelValues(name, "success").Inc()
	return result, nil
}

// Search queries all providers concurrently and merges the successful pages.
// Totals and page counts are summed, items are concatenated in registration order.
func (c *client) Search(ctx context.Context, params models.SearchParams) (*models.AggregatedSearchResult, error) {
	if len(c.entries) == 0 {
		return nil, apperrors.ErrNoProviders
	}
	params = params.Normalize()

	logger := config.GetLogger()
	logger.Info().
		Str("query", params.Query).
		Str("media_type", params.MediaType.String()).
		Int("limit", params.Limit).
		Int("page", params.Page).
		Int("providers", len(c.entries)).
		Msg("Searching providers")

	results := make([]models.Result[*models.SearchResult], len(c.entries))
	var wg sync.WaitGroup
	wg.Add(len(c.entries))
	for i, entry := range c.entries {
		go func() {
			defer wg.Done()
			page, err := c.searchProvider(ctx, entry, params)
			results[i] = models.Result[*models.SearchResult]{Value: page, Err: err}
		}()
	}
	wg.Wait()

	var pages []models.SearchResult
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			logger.Warn().Err(r.Err).Str("provider", c.entries[i].provider.Name()).Msg("Provider search failed")
			errs = append(errs, r.Err)
			continue
		}
		pages = append(pages, *r.Value)
	}

	if len(pages) == 0 {
		return nil, &apperrors.ErrAllProvidersFailed{Errors: errs}
	}

	if len(c.entries) == 1 {
		return mirror(pages[0]), nil
	}
	return merge(pages, params), nil
}

// mirror wraps the only provider's page without any arithmetic
func mirror(page models.SearchResult) *models.AggregatedSearchResult {
	return &models.AggregatedSearchResult{
		Provider:        page.Provider,
		Total:           page.Total,
		TotalHits:       page.TotalHits,
		Page:            page.Page,
		PerPage:         page.PerPage,
		TotalPages:      page.TotalPages,
		Items:           page.Items,
		ProviderResults: []models.SearchResult{page},
	}
}

func merge(pages []models.SearchResult, params models.SearchParams) *models.AggregatedSearchResult {
	agg := &models.AggregatedSearchResult{
		Provider:        pages[0].Provider,
		Page:            params.Page,
		PerPage:         params.Limit,
		Items:           []models.MediaItem{},
		ProviderResults: pages,
	}
	for _, p := range pages {
		agg.Total += p.Total
		agg.TotalHits += p.TotalHits
		agg.TotalPages += p.TotalPages
		agg.Items = append(agg.Items, p.Items...)
	}
	return agg
}

// SearchFromProvider returns the named provider's page unmodified
func (c *client) SearchFromProvider(ctx context.Context, name string, params models.SearchParams) (*models.SearchResult, error) {
	for _, entry := range c.entries {
		if strings.EqualFold(entry.provider.Name(), name) {
			return c.searchProvider(ctx, entry, params.Normalize())
		}
	}
	return nil, &apperrors.ErrUnknownProvider{Name: name}
}

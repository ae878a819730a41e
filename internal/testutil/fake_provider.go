package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// FakeProvider is an in-memory media provider for tests.
// Search returns Result (with Provider and paging filled in) or Err.
type FakeProvider struct {
	Label  string
	Result models.SearchResult
	Err    error
	Delay  time.Duration // Applied before every call, honouring ctx

	mu    sync.Mutex
	items map[string]models.MediaItem

	SearchCalls atomic.Int32
	GetCalls    atomic.Int32
}

// NewFakeProvider returns a provider named label that knows the given items.
func NewFakeProvider(label string, items ...models.MediaItem) *FakeProvider {
	f := &FakeProvider{Label: label, items: make(map[string]models.MediaItem)}
	for _, item := range items {
		f.AddItem(item)
	}
	return f
}

// AddItem makes item available to GetMedia.
func (f *FakeProvider) AddItem(item models.MediaItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = make(map[string]models.MediaItem)
	}
	f.items[item.ID] = item
}

func (f *FakeProvider) Name() string {
	return f.Label
}

func (f *FakeProvider) wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeProvider) search(ctx context.Context, limit, page int) (*models.SearchResult, error) {
	f.SearchCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	result := f.Result
	result.Provider = f.Label
	if result.Page == 0 {
		result.Page = page
	}
	if result.PerPage == 0 {
		result.PerPage = limit
	}
	result.Items = append([]models.MediaItem(nil), f.Result.Items...)
	return &result, nil
}

func (f *FakeProvider) SearchImages(ctx context.Context, _ string, limit, page int) (*models.SearchResult, error) {
	return f.search(ctx, limit, page)
}

func (f *FakeProvider) SearchVideos(ctx context.Context, _ string, limit, page int) (*models.SearchResult, error) {
	return f.search(ctx, limit, page)
}

func (f *FakeProvider) GetMedia(ctx context.Context, id string, mediaType models.MediaType) (*models.MediaItem, error) {
	f.GetCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	item, ok := f.items[id]
	f.mu.Unlock()
	if !ok || item.MediaType != mediaType {
		return nil, apperrors.NewMediaNotFoundError(id)
	}
	return &item, nil
}

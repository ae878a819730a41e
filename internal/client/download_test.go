package client

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/providers"
	"github.com/tornado-product/FusionMediaProvider/internal/services"
	"github.com/tornado-product/FusionMediaProvider/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []models.DownloadProgress
}

func (r *recorder) observe(p models.DownloadProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func (r *recorder) snapshot() []models.DownloadProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DownloadProgress(nil), r.events...)
}

func testSettings(t *testing.T) Settings {
	s := DefaultSettings()
	s.OutputDir = filepath.Join(t.TempDir(), "out")
	s.MaxConcurrent = 2
	return s
}

func TestDownloadItem_Image(t *testing.T) {
	t.Parallel()
	body := testutil.Payload(100 * 1024)
	server := testutil.NewMediaServer(t, body)
	item := testutil.ImageItem("Pixabay", "1", server.URL)
	settings := testSettings(t)
	rec := &recorder{}

	path, err := New(nil, WithSettings(settings)).DownloadItem(context.Background(), &item, rec.observe)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(settings.OutputDir, services.GenerateFilename(&item, false)), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, data)

	events := rec.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, models.StateStarting, events[0].State)
	assert.Equal(t, models.StateCompleted, events[len(events)-1].State)
}

func TestDownloadItem_VideoQualityAndOriginalNames(t *testing.T) {
	t.Parallel()
	var states []string
	var mu sync.Mutex
	server := testutil.NewMediaServer(t, testutil.Payload(1024))
	item := testutil.VideoItem("Pexels", "77", server.URL)

	settings := testSettings(t)
	settings.VideoQuality = models.VideoSmall
	settings.UseOriginalNames = true
	engine := services.NewTransferEngine(server.Client())
	observe := func(p models.DownloadProgress) {
		mu.Lock()
		states = append(states, p.State.String())
		mu.Unlock()
	}

	path, err := New(nil, WithSettings(settings), WithTransferEngine(engine)).DownloadItem(context.Background(), &item, observe)
	require.NoError(t, err)
	assert.Equal(t, "pexels_77.mp4", filepath.Base(path))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "completed", states[len(states)-1])
}

func TestDownloadItem_NoVariant(t *testing.T) {
	t.Parallel()
	item := testutil.VideoItem("Pexels", "5", "http://unused")
	item.URLs.VideoFiles = nil
	rec := &recorder{}

	_, err := New(nil, WithSettings(testSettings(t))).DownloadItem(context.Background(), &item, rec.observe)
	assert.ErrorIs(t, err, &apperrors.ErrInvalidQuality{})

	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, models.StateStarting, events[0].State)
	assert.Equal(t, models.StateFailed, events[1].State)
	assert.NotEmpty(t, events[1].Error)
}

func TestDownloadItems_OrderAndIsolation(t *testing.T) {
	t.Parallel()
	body := testutil.Payload(4096)
	server := testutil.NewMediaServer(t, body, "/3/large.jpg")
	items := make([]models.MediaItem, 5)
	for i := range items {
		items[i] = testutil.ImageItem("Pixabay", string(rune('1'+i)), server.URL)
	}

	results := New(nil, WithSettings(testSettings(t))).DownloadItems(context.Background(), items, nil)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.Equal(t, items[i].ID, r.ItemID)
		assert.Equal(t, "Pixabay", r.Provider)
		if items[i].ID == "3" {
			var transferErr *apperrors.TransferError
			require.ErrorAs(t, r.Err, &transferErr)
			assert.Equal(t, apperrors.TransferHTTPStatus, transferErr.Kind)
			assert.Equal(t, 404, transferErr.StatusCode)
			assert.Empty(t, r.Path)
			continue
		}
		require.NoError(t, r.Err)
		assert.FileExists(t, r.Path)
	}
}

func TestDownloadItemsWithBatchProgress(t *testing.T) {
	t.Parallel()
	server := testutil.NewMediaServer(t, testutil.Payload(64*1024), "/2/large.jpg")
	items := []models.MediaItem{
		testutil.ImageItem("Pixabay", "1", server.URL),
		testutil.ImageItem("Pixabay", "2", server.URL),
		testutil.ImageItem("Pexels", "1", server.URL),
	}

	var mu sync.Mutex
	var last models.BatchDownloadProgress
	calls := 0
	ordered := true
	results := New(nil, WithSettings(testSettings(t))).DownloadItemsWithBatchProgress(context.Background(), items, func(b models.BatchDownloadProgress) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if b.Sequence <= last.Sequence {
			ordered = false
		}
		last = b
	})

	require.Len(t, results, 3)
	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, calls)
	assert.True(t, ordered, "snapshots must arrive in sequence order")
	assert.Equal(t, 3, last.TotalItems)
	assert.Equal(t, 2, last.CompletedItems)
	assert.Equal(t, 1, last.FailedItems)
	assert.Equal(t, 0, last.DownloadingItems)
	assert.InDelta(t, 66.666, last.OverallPercentage, 0.01)
	assert.NotEmpty(t, last.BatchID)
	assert.Len(t, last.ItemProgress, 3)
}

func TestDownloadByID(t *testing.T) {
	t.Parallel()
	server := testutil.NewMediaServer(t, testutil.Payload(2048))
	first := testutil.NewFakeProvider("Pixabay")
	second := testutil.NewFakeProvider("Pexels", testutil.ImageItem("Pexels", "321", server.URL))
	c := New([]providers.Provider{first, second}, WithSettings(testSettings(t)))

	path, err := c.DownloadByID(context.Background(), "321", models.MediaTypeImage, nil)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, int32(1), first.GetCalls.Load())

	_, err = c.DownloadByID(context.Background(), "999", models.MediaTypeImage, nil)
	var notFound *apperrors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "999", notFound.ID)

	_, err = New(nil).DownloadByID(context.Background(), "1", models.MediaTypeImage, nil)
	assert.ErrorIs(t, err, apperrors.ErrNoProviders)
}

func TestDownloadBatch(t *testing.T) {
	t.Parallel()
	server := testutil.NewMediaServer(t, testutil.Payload(8192), "/b/large.jpg")
	items := []models.MediaItem{
		testutil.ImageItem("Pixabay", "a", server.URL),
		testutil.ImageItem("Pixabay", "b", server.URL),
		testutil.ImageItem("Pixabay", "c", server.URL),
	}
	rec := &recorder{}

	paths, err := New(nil, WithSettings(testSettings(t))).DownloadBatch(context.Background(), items, rec.observe)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "_a.jpg")
	assert.Contains(t, paths[1], "_c.jpg")

	events := rec.snapshot()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, "batch", e.ItemID)
		assert.Equal(t, "Aggregate", e.Provider)
	}
	finished := 0
	for _, e := range events {
		if e.State == models.StateCompleted {
			finished++
			assert.Equal(t, "Batch download (2/3)", e.ItemTitle)
			assert.InDelta(t, 66.666, e.Percentage, 0.01)
		}
	}
	assert.Positive(t, finished)
}

func TestDownloadBatch_AllFailed(t *testing.T) {
	t.Parallel()
	server := testutil.NewMediaServer(t, nil, "/x/large.jpg")
	items := []models.MediaItem{testutil.ImageItem("Pixabay", "x", server.URL)}

	paths, err := New(nil, WithSettings(testSettings(t))).DownloadBatch(context.Background(), items, nil)
	assert.Error(t, err)
	assert.Empty(t, paths)
}

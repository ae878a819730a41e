package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/services"
)

const (
	batchItemID   = "batch"
	batchProvider = "Aggregate"
)

// DownloadItem resolves the configured quality for item and transfers it.
func (c *client) DownloadItem(ctx context.Context, item *models.MediaItem, progress models.ProgressCallback) (string, error) {
	return c.download(ctx, item, c.settings.Resume, progress)
}

func (c *client) download(ctx context.Context, item *models.MediaItem, resume bool, progress models.ProgressCallback) (string, error) {
	logger := config.GetLogger()

	url, err := services.ResolveURL(item, c.settings.ImageQuality, c.settings.VideoQuality)
	if err != nil {
		logger.Error().Err(err).Str("provider", item.Provider).Str("id", item.ID).Msg("No downloadable variant")
		if progress != nil {
			p := models.NewDownloadProgress(item)
			progress(p)
			p.State = models.StateFailed
			p.Error = err.Error()
			progress(p)
		}
		return "", err
	}

	dest := filepath.Join(c.settings.OutputDir, services.GenerateFilename(item, c.settings.UseOriginalNames))
	path, err := c.engine.Transfer(ctx, services.TransferRequest{
		URL:         url,
		Destination: dest,
		Resume:      resume,
		Item:        item,
	}, progress)
	if err != nil {
		logger.Error().Err(err).Str("provider", item.Provider).Str("id", item.ID).Str("url", url).Msg("Download failed")
		return "", err
	}

	logger.Info().Str("provider", item.Provider).Str("id", item.ID).Str("path", path).Msg("Downloaded media")
	return path, nil
}

// DownloadItems runs one transfer per item, at most MaxConcurrent at a time.
// Batch transfers always resume partial files.
func (c *client) DownloadItems(ctx context.Context, items []models.MediaItem, progress models.ProgressCallback) []models.TransferResult {
	tasks := make([]services.Task[string], len(items))
	for i := range items {
		item := &items[i]
		tasks[i] = func(ctx context.Context) (string, error) {
			return c.download(ctx, item, true, progress)
		}
	}

	results := services.RunBatch(ctx, c.settings.MaxConcurrent, tasks)

	out := make([]models.TransferResult, len(items))
	for i, r := range results {
		out[i] = models.TransferResult{
			ItemID:   items[i].ID,
			Provider: items[i].Provider,
			Path:     r.Value,
			Err:      r.Err,
		}
	}
	return out
}

// DownloadItemsWithBatchProgress is DownloadItems with every item update folded
// into one batch record passed to callback.
func (c *client) DownloadItemsWithBatchProgress(ctx context.Context, items []models.MediaItem, callback models.BatchProgressCallback) []models.TransferResult {
	tracker := services.NewBatchTracker(len(items), callback)
	results := c.DownloadItems(ctx, items, tracker.Observer(nil))

	snap := tracker.Snapshot()
	logger := config.GetLogger()
	logger.Info().
		Str("batch_id", snap.BatchID).
		Int("total", snap.TotalItems).
		Int("completed", snap.CompletedItems).
		Int("failed", snap.FailedItems).
		Msg("Batch download finished")
	return results
}

// DownloadByID asks each provider in registration order for id and downloads the first hit.
func (c *client) DownloadByID(ctx context.Context, id string, mediaType models.MediaType, progress models.ProgressCallback) (string, error) {
	logger := config.GetLogger()
	if len(c.entries) == 0 {
		return "", apperrors.ErrNoProviders
	}

	for _, entry := range c.entries {
		item, err := entry.provider.GetMedia(ctx, id, mediaType)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			logger.Debug().Err(err).Str("provider", entry.provider.Name()).Str("id", id).Msg("Media lookup failed, trying next provider")
			continue
		}
		return c.DownloadItem(ctx, item, progress)
	}
	return "", apperrors.NewMediaNotFoundError(id)
}

// DownloadBatch reports the batch through callback as one synthetic progress
// record and returns the paths of the saved items in input order.
func (c *client) DownloadBatch(ctx context.Context, items []models.MediaItem, callback models.ProgressCallback) ([]string, error) {
	var batchCallback models.BatchProgressCallback
	if callback != nil {
		batchCallback = func(b models.BatchDownloadProgress) {
			callback(batchRecord(b))
		}
	}

	results := c.DownloadItemsWithBatchProgress(ctx, items, batchCallback)

	paths := make([]string, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.OK() {
			paths = append(paths, r.Path)
			continue
		}
		errs = append(errs, r.Err)
	}
	if err := ctx.Err(); err != nil {
		return paths, err
	}
	if len(items) > 0 && len(paths) == 0 {
		return nil, fmt.Errorf("all %d downloads failed: %w", len(items), errors.Join(errs...))
	}
	return paths, nil
}

// batchRecord summarises a batch as a single DownloadProgress
func batchRecord(b models.BatchDownloadProgress) models.DownloadProgress {
	state := models.StateDownloading
	if b.CompletedItems+b.FailedItems >= b.TotalItems {
		state = models.StateCompleted
	}
	return models.DownloadProgress{
		ItemID:     batchItemID,
		ItemTitle:  fmt.Sprintf("Batch download (%d/%d)", b.CompletedItems, b.TotalItems),
		Provider:   batchProvider,
		State:      state,
		Percentage: b.OverallPercentage,
	}
}

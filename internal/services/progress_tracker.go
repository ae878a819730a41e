package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// BatchTracker folds per-item progress updates of one batch into a
// BatchDownloadProgress and forwards snapshots to a callback.
// It is safe for concurrent use.
type BatchTracker struct {
	mu       sync.Mutex
	progress models.BatchDownloadProgress
	index    map[string]int // item key -> position in progress.ItemProgress
	callback models.BatchProgressCallback

	// deliverMu serializes callbacks; delivered is the last Sequence handed out.
	deliverMu sync.Mutex
	delivered uint64
}

// NewBatchTracker creates a tracker for totalItems items. callback may be nil.
func NewBatchTracker(totalItems int, callback models.BatchProgressCallback) *BatchTracker {
	t := &BatchTracker{
		progress: models.BatchDownloadProgress{
			BatchID:      uuid.NewString(),
			TotalItems:   totalItems,
			ItemProgress: make([]models.DownloadProgress, 0, totalItems),
		},
		index:    make(map[string]int, totalItems),
		callback: callback,
	}

	logger := config.GetLogger()
	logger.Debug().
		Str("batchID", t.progress.BatchID).
		Int("totalItems", totalItems).
		Msg("Batch tracker created")

	return t
}

// BatchID returns the identifier of the batch
func (t *BatchTracker) BatchID() string {
	return t.progress.BatchID
}

// Update stores p as the latest record of its item and notifies the callback
// with a fresh snapshot. The callback runs after the record lock is released,
// one delivery at a time and in Sequence order: a snapshot older than one
// already delivered is dropped. The callback may call Snapshot but not Update.
func (t *BatchTracker) Update(p models.DownloadProgress) {
	t.mu.Lock()
	key := p.Key()
	if i, ok := t.index[key]; ok {
		t.progress.ItemProgress[i] = p.Clone()
	} else {
		t.index[key] = len(t.progress.ItemProgress)
		t.progress.ItemProgress = append(t.progress.ItemProgress, p.Clone())
	}
	t.progress.Recalculate()
	t.progress.Sequence++
	snapshot := t.progress.Clone()
	t.mu.Unlock()

	if t.callback == nil {
		return
	}
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	if snapshot.Sequence <= t.delivered {
		return
	}
	t.delivered = snapshot.Sequence
	t.callback(snapshot)
}

// Snapshot returns a deep copy of the current batch record
func (t *BatchTracker) Snapshot() models.BatchDownloadProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress.Clone()
}

// Observer adapts the tracker to a per-item ProgressCallback. itemCallback,
// when not nil, also receives every item update.
func (t *BatchTracker) Observer(itemCallback models.ProgressCallback) models.ProgressCallback {
	return func(p models.DownloadProgress) {
		t.Update(p)
		if itemCallback != nil {
			itemCallback(p)
		}
	}
}

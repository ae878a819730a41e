package services

import (
	"sync"
	"testing"

	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

func itemProgress(id string, state models.DownloadState, pct float64) models.DownloadProgress {
	return models.DownloadProgress{ItemID: id, Provider: "Pixabay", State: state, Percentage: pct}
}

func TestBatchTracker_OverallPercentage(t *testing.T) {
	t.Parallel()
	var snapshots []models.BatchDownloadProgress
	tracker := NewBatchTracker(4, func(b models.BatchDownloadProgress) {
		snapshots = append(snapshots, b)
	})

	for _, id := range []string{"1", "2", "3", "4"} {
		tracker.Update(itemProgress(id, models.StateDownloading, 0))
	}
	tracker.Update(itemProgress("1", models.StateCompleted, 100))

	if got := tracker.Snapshot().OverallPercentage; got != 25.0 {
		t.Fatalf("OverallPercentage = %v, want 25", got)
	}

	tracker.Update(itemProgress("2", models.StateDownloading, 50))
	snap := tracker.Snapshot()
	if snap.OverallPercentage != 37.5 {
		t.Errorf("OverallPercentage = %v, want 37.5", snap.OverallPercentage)
	}
	if snap.CompletedItems != 1 || snap.DownloadingItems != 3 || snap.FailedItems != 0 {
		t.Errorf("counters = completed %d, in flight %d, failed %d", snap.CompletedItems, snap.DownloadingItems, snap.FailedItems)
	}
	if len(snapshots) != 6 {
		t.Errorf("callback calls = %d, want 6", len(snapshots))
	}
	if snapshots[0].BatchID == "" || snapshots[0].BatchID != tracker.BatchID() {
		t.Errorf("snapshots must carry the batch id, got %q", snapshots[0].BatchID)
	}
}

func TestBatchTracker_LastWriteWins(t *testing.T) {
	t.Parallel()
	tracker := NewBatchTracker(2, nil)

	tracker.Update(itemProgress("1", models.StateDownloading, 80))
	tracker.Update(itemProgress("1", models.StateDownloading, 30))

	snap := tracker.Snapshot()
	if len(snap.ItemProgress) != 1 {
		t.Fatalf("ItemProgress len = %d, want 1", len(snap.ItemProgress))
	}
	if snap.ItemProgress[0].Percentage != 30 {
		t.Errorf("Percentage = %v, want the latest value 30", snap.ItemProgress[0].Percentage)
	}
}

func TestBatchTracker_SameIDDifferentProviders(t *testing.T) {
	t.Parallel()
	tracker := NewBatchTracker(2, nil)

	a := itemProgress("1", models.StateCompleted, 100)
	b := itemProgress("1", models.StateFailed, 0)
	b.Provider = "Pexels"
	tracker.Update(a)
	tracker.Update(b)

	snap := tracker.Snapshot()
	if len(snap.ItemProgress) != 2 || snap.CompletedItems != 1 || snap.FailedItems != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.OverallPercentage != 50 {
		t.Errorf("OverallPercentage = %v, want 50", snap.OverallPercentage)
	}
}

func TestBatchTracker_SnapshotIsolation(t *testing.T) {
	t.Parallel()
	var captured models.BatchDownloadProgress
	tracker := NewBatchTracker(1, func(b models.BatchDownloadProgress) { captured = b })

	total := int64(100)
	p := itemProgress("1", models.StateDownloading, 10)
	p.TotalBytes = &total
	tracker.Update(p)

	captured.ItemProgress[0].Percentage = 99
	*captured.ItemProgress[0].TotalBytes = 1
	snap := tracker.Snapshot()
	if snap.ItemProgress[0].Percentage != 10 || *snap.ItemProgress[0].TotalBytes != 100 {
		t.Error("mutating a snapshot must not change the tracker state")
	}
}

func TestBatchTracker_ConcurrentUpdates(t *testing.T) {
	t.Parallel()
	const items = 20
	var mu sync.Mutex
	var delivered []models.BatchDownloadProgress
	var tracker *BatchTracker
	tracker = NewBatchTracker(items, func(b models.BatchDownloadProgress) {
		// Re-entering the tracker from the callback must not deadlock.
		_ = tracker.Snapshot()
		mu.Lock()
		delivered = append(delivered, b)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < items; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := string(rune('a' + id))
			tracker.Update(itemProgress(key, models.StateStarting, 0))
			tracker.Update(itemProgress(key, models.StateDownloading, 50))
			tracker.Update(itemProgress(key, models.StateCompleted, 100))
		}(i)
	}
	wg.Wait()

	snap := tracker.Snapshot()
	if snap.CompletedItems != items || snap.OverallPercentage != 100 {
		t.Errorf("final snapshot = completed %d, overall %v", snap.CompletedItems, snap.OverallPercentage)
	}
	if snap.Sequence != items*3 {
		t.Errorf("final sequence = %d, want %d", snap.Sequence, items*3)
	}

	if len(delivered) == 0 || len(delivered) > items*3 {
		t.Fatalf("callback calls = %d, want 1..%d", len(delivered), items*3)
	}
	for i := 1; i < len(delivered); i++ {
		if delivered[i].Sequence <= delivered[i-1].Sequence {
			t.Fatalf("delivery %d has sequence %d after %d", i, delivered[i].Sequence, delivered[i-1].Sequence)
		}
		if delivered[i].CompletedItems < delivered[i-1].CompletedItems {
			t.Fatalf("completed items went back from %d to %d", delivered[i-1].CompletedItems, delivered[i].CompletedItems)
		}
	}
	if last := delivered[len(delivered)-1]; last.Sequence != items*3 || last.CompletedItems != items {
		t.Errorf("last delivery = sequence %d, completed %d", last.Sequence, last.CompletedItems)
	}
}

func TestBatchTracker_DropsStaleSnapshots(t *testing.T) {
	t.Parallel()
	var got []uint64
	tracker := NewBatchTracker(2, func(b models.BatchDownloadProgress) {
		got = append(got, b.Sequence)
	})

	tracker.Update(itemProgress("1", models.StateDownloading, 10))
	// Simulate a newer snapshot having already reached the caller.
	tracker.deliverMu.Lock()
	tracker.delivered = 5
	tracker.deliverMu.Unlock()
	tracker.Update(itemProgress("1", models.StateDownloading, 20))

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("delivered sequences = %v, want [1]", got)
	}
	if snap := tracker.Snapshot(); snap.Sequence != 2 || snap.ItemProgress[0].Percentage != 20 {
		t.Errorf("stale delivery must still update the record: %+v", snap)
	}
}

func TestBatchTracker_Observer(t *testing.T) {
	t.Parallel()
	var itemCalls int
	tracker := NewBatchTracker(1, nil)
	observe := tracker.Observer(func(models.DownloadProgress) { itemCalls++ })

	observe(itemProgress("1", models.StateStarting, 0))
	observe(itemProgress("1", models.StateFailed, 0))

	snap := tracker.Snapshot()
	if itemCalls != 2 || snap.FailedItems != 1 || snap.DownloadingItems != 0 {
		t.Errorf("itemCalls = %d, snapshot = %+v", itemCalls, snap)
	}
}

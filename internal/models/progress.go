package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// DownloadState is the lifecycle state of a single transfer
type DownloadState int

const (
	StateStarting DownloadState = iota
	StateDownloading
	StateWriting
	StateCompleted
	StateFailed
)

// String returns the string representation of the state
func (s DownloadState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateDownloading:
		return "downloading"
	case StateWriting:
		return "writing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler interface
func (s DownloadState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (s *DownloadState) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	for candidate := StateStarting; candidate <= StateFailed; candidate++ {
		if candidate.String() == str {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid download state: %q", str)
}

// IsTerminal reports whether no further transition can leave the state
func (s DownloadState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// IsInFlight reports whether the transfer has started but not finished
func (s DownloadState) IsInFlight() bool {
	return s == StateStarting || s == StateDownloading || s == StateWriting
}

// CanTransitionTo reports whether moving from s to next is legal.
// Downloading may repeat itself for streaming progress updates.
func (s DownloadState) CanTransitionTo(next DownloadState) bool {
	switch s {
	case StateStarting:
		return next == StateDownloading || next == StateFailed
	case StateDownloading:
		return next == StateDownloading || next == StateWriting || next == StateFailed
	case StateWriting:
		return next == StateCompleted
	default:
		return false
	}
}

// ProgressCallback receives a snapshot of one transfer's progress
type ProgressCallback func(DownloadProgress)

// BatchProgressCallback receives a snapshot of a whole batch
type BatchProgressCallback func(BatchDownloadProgress)

// DownloadProgress is the progress record of a single transfer
type DownloadProgress struct {
	ItemID          string        `json:"itemId"`
	ItemTitle       string        `json:"itemTitle"`
	Provider        string        `json:"provider"`
	State           DownloadState `json:"state"`
	Error           string        `json:"error,omitempty"` // Failure reason, set with StateFailed
	DownloadedBytes int64         `json:"downloadedBytes"`
	TotalBytes      *int64        `json:"totalBytes,omitempty"`
	SpeedBps        int64         `json:"speedBps"`
	Percentage      float64       `json:"percentage"`
	ElapsedSecs     float64       `json:"elapsedSecs"`
	ETASecs         *float64      `json:"etaSecs,omitempty"`
}

// NewDownloadProgress creates a Starting record for item
func NewDownloadProgress(item *MediaItem) DownloadProgress {
	return DownloadProgress{
		ItemID:    item.ID,
		ItemTitle: item.Title,
		Provider:  item.Provider,
		State:     StateStarting,
	}
}

// Key identifies the record as "provider/id"
func (p *DownloadProgress) Key() string {
	return p.Provider + "/" + p.ItemID
}

// CalculatePercentage updates Percentage from the byte counts. With an unknown
// or zero total the previous value is kept.
func (p *DownloadProgress) CalculatePercentage() {
	if p.TotalBytes == nil || *p.TotalBytes <= 0 {
		return
	}
	p.Percentage = float64(p.DownloadedBytes) / float64(*p.TotalBytes) * 100
}

// CalculateETA sets ETASecs from the remaining bytes and current speed, or
// clears it when the remaining time cannot be estimated.
func (p *DownloadProgress) CalculateETA() {
	if p.TotalBytes == nil || p.SpeedBps <= 0 || p.DownloadedBytes >= *p.TotalBytes {
		p.ETASecs = nil
		return
	}
	eta := float64(*p.TotalBytes-p.DownloadedBytes) / float64(p.SpeedBps)
	if math.IsInf(eta, 0) || math.IsNaN(eta) || eta < 0 {
		p.ETASecs = nil
		return
	}
	p.ETASecs = &eta
}

// Clone returns a deep copy safe to hand to observers
func (p DownloadProgress) Clone() DownloadProgress {
	c := p
	if p.TotalBytes != nil {
		total := *p.TotalBytes
		c.TotalBytes = &total
	}
	if p.ETASecs != nil {
		eta := *p.ETASecs
		c.ETASecs = &eta
	}
	return c
}

// FormatSpeed renders the speed as e.g. "1.5 MiB/s"
func (p *DownloadProgress) FormatSpeed() string {
	if p.SpeedBps <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(p.SpeedBps)) + "/s"
}

// FormatETA renders the remaining time as e.g. "45s", "2m 5s" or "1h 3m"
func (p *DownloadProgress) FormatETA() string {
	if p.ETASecs == nil {
		return "unknown"
	}
	secs := int(math.Round(*p.ETASecs))
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
	}
}

// BatchDownloadProgress aggregates the progress of a fixed-size batch
type BatchDownloadProgress struct {
	BatchID           string             `json:"batchId"`
	Sequence          uint64             `json:"sequence"` // Increments on every update
	TotalItems        int                `json:"totalItems"`
	CompletedItems    int                `json:"completedItems"`
	FailedItems       int                `json:"failedItems"`
	DownloadingItems  int                `json:"downloadingItems"` // Items in flight
	OverallPercentage float64            `json:"overallPercentage"`
	ItemProgress      []DownloadProgress `json:"itemProgress"` // Latest record per item, first-seen order
}

// Recalculate derives the counters and the overall percentage from ItemProgress.
// Completed items count as a full unit, in-flight items by their own
// percentage; failed and unseen items count as zero.
func (b *BatchDownloadProgress) Recalculate() {
	b.CompletedItems, b.FailedItems, b.DownloadingItems = 0, 0, 0
	var inFlightPct float64
	for i := range b.ItemProgress {
		switch st := b.ItemProgress[i].State; {
		case st == StateCompleted:
			b.CompletedItems++
		case st == StateFailed:
			b.FailedItems++
		case st.IsInFlight():
			b.DownloadingItems++
			inFlightPct += b.ItemProgress[i].Percentage
		}
	}

	if b.TotalItems <= 0 {
		b.OverallPercentage = 0
		return
	}
	total := float64(b.TotalItems)
	b.OverallPercentage = float64(b.CompletedItems)/total*100 + inFlightPct/total
}

// Clone returns a deep copy safe to hand to observers
func (b BatchDownloadProgress) Clone() BatchDownloadProgress {
	c := b
	c.ItemProgress = make([]DownloadProgress, len(b.ItemProgress))
	for i := range b.ItemProgress {
		c.ItemProgress[i] = b.ItemProgress[i].Clone()
	}
	return c
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// interactive reports whether progress bars can be drawn on stderr
func interactive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func barOptions(description string) []progressbar.Option {
	return []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100 * time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	}
}

// byteProgress draws one transfer as a byte bar. The bar starts as a spinner
// and switches to a bounded bar once the size is known.
func byteProgress(description string) models.ProgressCallback {
	opts := append(barOptions(description), progressbar.OptionShowBytes(true), progressbar.OptionSpinnerType(14))
	bar := progressbar.NewOptions64(-1, opts...)

	return func(p models.DownloadProgress) {
		if p.TotalBytes != nil && *p.TotalBytes > 0 && bar.GetMax64() != *p.TotalBytes {
			bar.ChangeMax64(*p.TotalBytes)
		}
		switch p.State {
		case models.StateCompleted:
			_ = bar.Finish()
		case models.StateFailed:
			_ = bar.Exit()
		default:
			_ = bar.Set64(p.DownloadedBytes)
		}
	}
}

// batchProgress draws a batch as a count of finished items
func batchProgress(total int) models.BatchProgressCallback {
	bar := progressbar.NewOptions(total, append(barOptions("Downloading"), progressbar.OptionShowCount())...)

	return func(b models.BatchDownloadProgress) {
		if b.FailedItems > 0 {
			bar.Describe(fmt.Sprintf("Downloading (%d failed)", b.FailedItems))
		}
		_ = bar.Set(b.CompletedItems + b.FailedItems)
	}
}

// logProgress reports the terminal states of transfers when no bar is drawn
func logProgress(p models.DownloadProgress) {
	logger := config.GetLogger()
	switch p.State {
	case models.StateCompleted:
		logger.Info().Str("item", p.ItemTitle).Str("provider", p.Provider).Str("percentage", fmt.Sprintf("%.0f%%", p.Percentage)).Msg("Download progress")
	case models.StateFailed:
		logger.Warn().Str("item", p.ItemTitle).Str("provider", p.Provider).Str("error", p.Error).Msg("Download failed")
	}
}

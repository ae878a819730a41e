package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/h2non/filetype"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/metrics"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

const (
	// DefaultProgressInterval is the minimum time between two streaming progress events
	DefaultProgressInterval = 100 * time.Millisecond
	// DefaultChunkSize is the read buffer size used while streaming
	DefaultChunkSize = 32 * 1024

	lockRetryDelay = 50 * time.Millisecond
	sniffLen       = 261 // enough for filetype.Match
)

// TransferRequest describes one binary transfer
type TransferRequest struct {
	URL         string
	Destination string
	Resume      bool              // Continue an existing partial file with a Range request
	Item        *models.MediaItem // Identity reported in progress events
}

// TransferEngine streams a remote file to disk while reporting progress
type TransferEngine interface {
	// Transfer downloads req.URL to req.Destination and returns the destination path.
	// observer, when not nil, receives a snapshot on every state change and at a
	// throttled rate while streaming.
	Transfer(ctx context.Context, req TransferRequest, observer models.ProgressCallback) (string, error)
}

// DefaultTransferEngine implements TransferEngine over net/http
type DefaultTransferEngine struct {
	httpClient       *http.Client
	userAgent        string
	progressInterval time.Duration
	chunkSize        int
}

// TransferOption configures a DefaultTransferEngine
type TransferOption func(*DefaultTransferEngine)

// WithProgressInterval sets the streaming progress throttle window
func WithProgressInterval(d time.Duration) TransferOption {
	return func(e *DefaultTransferEngine) {
		if d > 0 {
			e.progressInterval = d
		}
	}
}

// WithUserAgent sets the User-Agent header of transfer requests
func WithUserAgent(ua string) TransferOption {
	return func(e *DefaultTransferEngine) {
		e.userAgent = ua
	}
}

// WithChunkSize sets the read buffer size
func WithChunkSize(n int) TransferOption {
	return func(e *DefaultTransferEngine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// NewTransferEngine creates a transfer engine using httpClient.
// The client should not carry an overall timeout since video files can be large.
func NewTransferEngine(httpClient *http.Client, opts ...TransferOption) TransferEngine {
	e := &DefaultTransferEngine{
		httpClient:       httpClient,
		userAgent:        config.GetUserAgent(),
		progressInterval: DefaultProgressInterval,
		chunkSize:        DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// transfer holds the state of one running Transfer call
type transfer struct {
	engine   *DefaultTransferEngine
	req      TransferRequest
	observer models.ProgressCallback
	progress models.DownloadProgress
	start    time.Time
	lastEmit time.Time
	offset   int64 // bytes already on disk when the response body starts
	session  int64 // bytes received in this call
}

// Transfer implements TransferEngine
func (e *DefaultTransferEngine) Transfer(ctx context.Context, req TransferRequest, observer models.ProgressCallback) (string, error) {
	item := req.Item
	if item == nil {
		item = &models.MediaItem{ID: filepath.Base(req.Destination)}
	}
	t := &transfer{
		engine:   e,
		req:      req,
		observer: observer,
		progress: models.NewDownloadProgress(item),
		start:    time.Now(),
	}

	metrics.ActiveTransfers.Inc()
	defer metrics.ActiveTransfers.Dec()

	path, err := t.run(ctx)
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.DownloadsTotal.WithLabelValues("success").Inc()
	return path, nil
}

func (t *transfer) run(ctx context.Context) (string, error) {
	logger := config.GetLogger()
	dest := t.req.Destination

	t.emit()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", t.fail(apperrors.TransferIO, fmt.Errorf("create output directory: %w", err))
	}

	lock := flock.New(lockPath(dest))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("destination is locked")
		}
		return "", t.fail(apperrors.TransferIO, fmt.Errorf("lock %s: %w", dest, err))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn().Err(err).Str("path", dest).Msg("Failed to release destination lock")
		}
	}()

	if t.req.Resume {
		if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			t.offset = info.Size()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, t.req.URL, nil)
	if err != nil {
		return "", t.fail(apperrors.TransferNetwork, err)
	}
	if t.engine.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.engine.userAgent)
	}
	if t.offset > 0 {
		httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-", t.offset))
	}

	logger.Debug().
		Str("url", t.req.URL).
		Str("path", dest).
		Int64("offset", t.offset).
		Msg("Starting transfer")

	resp, err := t.engine.httpClient.Do(httpReq)
	if err != nil {
		return "", t.fail(apperrors.TransferNetwork, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	appendMode := false
	switch {
	case t.offset > 0 && resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		if size, ok := unsatisfiedRangeSize(resp); ok && size == t.offset {
			return t.finishExisting()
		}
		return "", t.failStatus(resp.StatusCode)
	case t.offset > 0 && resp.StatusCode == http.StatusPartialContent:
		appendMode = true
		metrics.ResumedTransfersTotal.Inc()
		logger.Info().Str("path", dest).Int64("offset", t.offset).Msg("Resuming partial download")
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if t.offset > 0 {
			logger.Info().Str("path", dest).Int("status", resp.StatusCode).Msg("Server ignored range request, restarting download")
		}
		t.offset = 0
	default:
		return "", t.failStatus(resp.StatusCode)
	}

	if resp.ContentLength >= 0 {
		total := resp.ContentLength + t.offset
		t.progress.TotalBytes = &total
	}
	t.progress.DownloadedBytes = t.offset
	t.progress.CalculatePercentage()
	t.setState(models.StateDownloading)

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return "", t.fail(apperrors.TransferIO, err)
	}

	if err := t.stream(ctx, resp.Body, file); err != nil {
		_ = file.Close()
		return "", err
	}

	t.setState(models.StateWriting)
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return "", t.writeError(err)
	}
	if err := file.Close(); err != nil {
		return "", t.writeError(err)
	}

	t.setState(models.StateCompleted)
	metrics.DownloadedBytesTotal.Add(float64(t.session))
	logger.Info().
		Str("path", dest).
		Int64("bytes", t.progress.DownloadedBytes).
		Float64("elapsed", t.progress.ElapsedSecs).
		Str("speed", t.progress.FormatSpeed()).
		Msg("Transfer completed")

	t.sniff()
	return dest, nil
}

// stream copies body to file chunk by chunk, emitting throttled progress
func (t *transfer) stream(ctx context.Context, body io.Reader, file *os.File) error {
	buf := make([]byte, t.engine.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return t.fail(apperrors.TransferNetwork, ctx.Err())
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return t.fail(apperrors.TransferIO, err)
			}
			t.session += int64(n)
			t.update()
			if time.Since(t.lastEmit) >= t.engine.progressInterval {
				t.emit()
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				t.update()
				return nil
			}
			return t.fail(apperrors.TransferNetwork, readErr)
		}
	}
}

// update recomputes counters, speed, percentage and ETA
func (t *transfer) update() {
	elapsed := time.Since(t.start).Seconds()
	t.progress.DownloadedBytes = t.offset + t.session
	t.progress.ElapsedSecs = elapsed
	if elapsed > 0 {
		t.progress.SpeedBps = int64(float64(t.session) / elapsed)
	}
	t.progress.CalculatePercentage()
	t.progress.CalculateETA()
}

// lockPath maps a destination to a lock file under the system temp directory,
// so the output directory only ever holds the downloaded assets.
func lockPath(dest string) string {
	if abs, err := filepath.Abs(dest); err == nil {
		dest = abs
	}
	sum := sha256.Sum256([]byte(dest))
	return filepath.Join(os.TempDir(), "fusion-"+hex.EncodeToString(sum[:8])+".lock")
}

// finishExisting completes a transfer whose file was already fully on disk
func (t *transfer) finishExisting() (string, error) {
	logger := config.GetLogger()
	logger.Info().Str("path", t.req.Destination).Int64("bytes", t.offset).Msg("File already complete")

	total := t.offset
	t.progress.TotalBytes = &total
	t.progress.DownloadedBytes = t.offset
	t.progress.ElapsedSecs = time.Since(t.start).Seconds()
	t.progress.CalculatePercentage()
	t.setState(models.StateDownloading)
	t.setState(models.StateWriting)
	t.setState(models.StateCompleted)
	return t.req.Destination, nil
}

func (t *transfer) setState(next models.DownloadState) {
	if !t.progress.State.CanTransitionTo(next) {
		logger := config.GetLogger()
		logger.Warn().
			Str("from", t.progress.State.String()).
			Str("to", next.String()).
			Str("item", t.progress.Key()).
			Msg("Ignoring illegal progress transition")
		return
	}
	t.progress.State = next
	t.emit()
}

func (t *transfer) emit() {
	t.lastEmit = time.Now()
	if t.observer != nil {
		t.observer(t.progress.Clone())
	}
}

// fail emits Failed and builds the TransferError returned to the caller
func (t *transfer) fail(kind apperrors.TransferErrorKind, err error) error {
	t.progress.Error = err.Error()
	t.setState(models.StateFailed)

	logger := config.GetLogger()
	logger.Error().
		Err(err).
		Str("url", t.req.URL).
		Str("kind", kind.String()).
		Str("item", t.progress.Key()).
		Msg("Transfer failed")

	return &apperrors.TransferError{Kind: kind, URL: t.req.URL, Err: err}
}

func (t *transfer) failStatus(code int) error {
	t.progress.Error = fmt.Sprintf("HTTP %d", code)
	t.setState(models.StateFailed)

	logger := config.GetLogger()
	logger.Error().
		Int("status", code).
		Str("url", t.req.URL).
		Str("item", t.progress.Key()).
		Msg("Transfer rejected by server")

	return apperrors.NewHTTPStatusError(t.req.URL, code)
}

// writeError reports a flush or close failure. Failed cannot follow Writing,
// so no progress event is sent.
func (t *transfer) writeError(err error) error {
	logger := config.GetLogger()
	logger.Error().Err(err).Str("path", t.req.Destination).Msg("Failed to finish writing file")
	return &apperrors.TransferError{Kind: apperrors.TransferIO, URL: t.req.URL, Err: err}
}

// sniff logs a warning when the saved bytes do not look like the expected media type
func (t *transfer) sniff() {
	if t.req.Item == nil {
		return
	}
	logger := config.GetLogger()

	f, err := os.Open(t.req.Destination)
	if err != nil {
		return
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, head)
	head = head[:n]

	kind, _ := filetype.Match(head)
	expectImage := t.req.Item.MediaType == models.MediaTypeImage
	if (expectImage && !filetype.IsImage(head)) || (!expectImage && !filetype.IsVideo(head)) {
		logger.Warn().
			Str("path", t.req.Destination).
			Str("expected", t.req.Item.MediaType.String()).
			Str("detected", kind.MIME.Value).
			Msg("Downloaded content does not match media type")
		return
	}
	logger.Debug().Str("path", t.req.Destination).Str("mime", kind.MIME.Value).Msg("Content type verified")
}

// unsatisfiedRangeSize parses "Content-Range: bytes */<size>" of a 416 response
func unsatisfiedRangeSize(resp *http.Response) (int64, bool) {
	var size int64
	if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes */%d", &size); err != nil {
		return 0, false
	}
	return size, true
}

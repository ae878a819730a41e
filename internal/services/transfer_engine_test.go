package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// progressRecorder collects every snapshot sent to an observer
type progressRecorder struct {
	mu     sync.Mutex
	events []models.DownloadProgress
}

func (r *progressRecorder) observe(p models.DownloadProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func (r *progressRecorder) states() []models.DownloadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make([]models.DownloadState, 0, len(r.events))
	for _, e := range r.events {
		if len(states) > 0 && states[len(states)-1] == e.State {
			continue
		}
		states = append(states, e.State)
	}
	return states
}

func (r *progressRecorder) last() models.DownloadProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *progressRecorder) first(state models.DownloadState) (models.DownloadProgress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.State == state {
			return e, true
		}
	}
	return models.DownloadProgress{}, false
}

// assertLegalTransitions checks that consecutive events follow the state machine
func (r *progressRecorder) assertLegalTransitions(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events)
	assert.Equal(t, models.StateStarting, r.events[0].State)
	for i := 1; i < len(r.events); i++ {
		prev, next := r.events[i-1].State, r.events[i].State
		assert.True(t, prev.CanTransitionTo(next), "illegal transition %s -> %s", prev, next)
	}
}

func testPayload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*7 + i/251)
	}
	return data
}

func testItem() *models.MediaItem {
	return &models.MediaItem{ID: "42", Title: "Sunset", Provider: "Pixabay", MediaType: models.MediaTypeImage}
}

func serveBytes(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "asset.bin", time.Time{}, bytes.NewReader(data))
	}
}

func TestTransfer_FullDownload(t *testing.T) {
	t.Parallel()
	data := testPayload(200 * 1024)
	server := httptest.NewServer(serveBytes(data))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "nested", "file.jpg")
	rec := &progressRecorder{}
	engine := NewTransferEngine(server.Client())

	path, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: dest, Item: testItem()}, rec.observe)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.Equal(t, []models.DownloadState{
		models.StateStarting, models.StateDownloading, models.StateWriting, models.StateCompleted,
	}, rec.states())
	rec.assertLegalTransitions(t)

	final := rec.last()
	assert.Equal(t, "42", final.ItemID)
	assert.Equal(t, "Pixabay", final.Provider)
	assert.Equal(t, int64(len(data)), final.DownloadedBytes)
	require.NotNil(t, final.TotalBytes)
	assert.Equal(t, int64(len(data)), *final.TotalBytes)
	assert.InDelta(t, 100.0, final.Percentage, 1e-9)
	assert.Nil(t, final.ETASecs)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"file.jpg"}, names, "output directory must only hold the asset")
}

func TestLockPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := lockPath(filepath.Join(dir, "a.jpg"))
	b := lockPath(filepath.Join(dir, "b.jpg"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, lockPath(filepath.Join(dir, ".", "a.jpg")))
	assert.Equal(t, filepath.Clean(os.TempDir()), filepath.Dir(a))
	assert.NotEqual(t, dir, filepath.Dir(a))
}

func TestTransfer_HTTPErrorStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rec := &progressRecorder{}
	engine := NewTransferEngine(server.Client())
	_, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: filepath.Join(t.TempDir(), "x.jpg"), Item: testItem()}, rec.observe)

	var te *apperrors.TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, apperrors.TransferHTTPStatus, te.Kind)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)

	assert.Equal(t, []models.DownloadState{models.StateStarting, models.StateFailed}, rec.states())
	assert.Equal(t, "HTTP 404", rec.last().Error)
}

func TestTransfer_ResumeAfterInterruption(t *testing.T) {
	t.Parallel()
	data := testPayload(300 * 1024)
	half := len(data) / 2

	var (
		mu          sync.Mutex
		calls       int
		rangeHeader string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		call := calls
		if call > 1 {
			rangeHeader = r.Header.Get("Range")
		}
		mu.Unlock()

		if call == 1 {
			w.Header().Set("Content-Length", fmt.Sprint(len(data)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data[:half])
			w.(http.Flusher).Flush()
			panic(http.ErrAbortHandler)
		}
		http.ServeContent(w, r, "asset.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "video.mp4")
	engine := NewTransferEngine(server.Client())
	req := TransferRequest{URL: server.URL, Destination: dest, Resume: true, Item: testItem()}

	first := &progressRecorder{}
	_, err := engine.Transfer(context.Background(), req, first.observe)
	require.Error(t, err, "interrupted transfer must fail")
	var te *apperrors.TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, apperrors.TransferNetwork, te.Kind)
	assert.Equal(t, models.StateFailed, first.last().State)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	partial := info.Size()
	require.Greater(t, partial, int64(0))
	require.Less(t, partial, int64(len(data)))

	second := &progressRecorder{}
	path, err := engine.Transfer(context.Background(), req, second.observe)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	mu.Lock()
	assert.Equal(t, fmt.Sprintf("bytes=%d-", partial), rangeHeader)
	mu.Unlock()

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got, "resumed file must be byte-identical to the source")

	downloading, ok := second.first(models.StateDownloading)
	require.True(t, ok)
	assert.Equal(t, partial, downloading.DownloadedBytes)
	require.NotNil(t, downloading.TotalBytes)
	assert.Equal(t, int64(len(data)), *downloading.TotalBytes)
	second.assertLegalTransitions(t)
}

func TestTransfer_ResumeIgnoredByServer(t *testing.T) {
	t.Parallel()
	data := testPayload(64 * 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		_, _ = w.Write(data)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	require.NoError(t, os.WriteFile(dest, []byte("stale partial content"), 0o644))

	engine := NewTransferEngine(server.Client())
	_, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: dest, Resume: true}, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got, "a 200 answer to a range request must restart from scratch")
}

func TestTransfer_AlreadyComplete(t *testing.T) {
	t.Parallel()
	data := testPayload(10 * 1024)
	server := httptest.NewServer(serveBytes(data))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "done.jpg")
	require.NoError(t, os.WriteFile(dest, data, 0o644))

	rec := &progressRecorder{}
	engine := NewTransferEngine(server.Client())
	path, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: dest, Resume: true, Item: testItem()}, rec.observe)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	assert.Equal(t, []models.DownloadState{
		models.StateStarting, models.StateDownloading, models.StateWriting, models.StateCompleted,
	}, rec.states())
	assert.InDelta(t, 100.0, rec.last().Percentage, 1e-9)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestTransfer_WithoutResumeTruncates(t *testing.T) {
	t.Parallel()
	data := testPayload(4096)
	var sawRange atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRange.Store(r.Header.Get("Range") != "")
		http.ServeContent(w, r, "asset.bin", time.Time{}, bytes.NewReader(data))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	require.NoError(t, os.WriteFile(dest, bytes.Repeat([]byte{0xff}, 9000), 0o644))

	engine := NewTransferEngine(server.Client())
	_, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: dest}, nil)
	require.NoError(t, err)
	assert.False(t, sawRange.Load())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestTransfer_UnknownLength(t *testing.T) {
	t.Parallel()
	data := testPayload(50 * 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		for off := 0; off < len(data); off += 10 * 1024 {
			_, _ = w.Write(data[off : off+10*1024])
			flusher.Flush()
		}
	}))
	defer server.Close()

	rec := &progressRecorder{}
	engine := NewTransferEngine(server.Client(), WithProgressInterval(time.Nanosecond))
	_, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: filepath.Join(t.TempDir(), "u.jpg")}, rec.observe)
	require.NoError(t, err)

	for _, e := range rec.events {
		assert.Nil(t, e.TotalBytes)
		assert.Nil(t, e.ETASecs)
		assert.Zero(t, e.Percentage)
	}
	assert.Equal(t, int64(len(data)), rec.last().DownloadedBytes)
}

func TestTransfer_ThrottlesStreamingEvents(t *testing.T) {
	t.Parallel()
	data := testPayload(512 * 1024)
	server := httptest.NewServer(serveBytes(data))
	defer server.Close()

	rec := &progressRecorder{}
	engine := NewTransferEngine(server.Client(), WithProgressInterval(time.Hour), WithChunkSize(1024))
	_, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: filepath.Join(t.TempDir(), "t.jpg")}, rec.observe)
	require.NoError(t, err)

	assert.Len(t, rec.events, 4, "only state changes are reported inside one throttle window")
}

func TestTransfer_CancelledContext(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(serveBytes(testPayload(1024)))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &progressRecorder{}
	engine := NewTransferEngine(server.Client())
	_, err := engine.Transfer(ctx, TransferRequest{URL: server.URL, Destination: filepath.Join(t.TempDir(), "c.jpg")}, rec.observe)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, models.StateFailed, rec.last().State)
}

func TestTransfer_SendsUserAgent(t *testing.T) {
	t.Parallel()
	uaCh := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uaCh <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	engine := NewTransferEngine(server.Client(), WithUserAgent("fusion-test/1.0"))
	_, err := engine.Transfer(context.Background(), TransferRequest{URL: server.URL, Destination: filepath.Join(t.TempDir(), "a.jpg")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fusion-test/1.0", <-uaCh)
}

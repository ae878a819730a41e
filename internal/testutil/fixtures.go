package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// IntPtr is a helper for creating *int values in tests
func IntPtr(v int) *int {
	return &v
}

// Int64Ptr is a helper for creating *int64 values in tests
func Int64Ptr(v int64) *int64 {
	return &v
}

// ImageItem returns an image item whose variant URLs all point below baseURL.
func ImageItem(provider, id, baseURL string) models.MediaItem {
	return models.MediaItem{
		ID:        id,
		MediaType: models.MediaTypeImage,
		Title:     "Test image " + id,
		Tags:      []string{"test"},
		Provider:  provider,
		URLs: models.MediaURLs{
			Thumbnail: fmt.Sprintf("%s/%s/thumb.jpg", baseURL, id),
			Medium:    fmt.Sprintf("%s/%s/medium.jpg", baseURL, id),
			Large:     fmt.Sprintf("%s/%s/large.jpg", baseURL, id),
		},
		Metadata: models.MediaMetadata{Width: 1920, Height: 1080},
	}
}

// VideoItem returns a video item with a 640 and a 1920 wide rendition below baseURL.
func VideoItem(provider, id, baseURL string) models.MediaItem {
	return models.MediaItem{
		ID:        id,
		MediaType: models.MediaTypeVideo,
		Title:     "Test video " + id,
		Tags:      []string{"test"},
		Provider:  provider,
		URLs: models.MediaURLs{
			Thumbnail: fmt.Sprintf("%s/%s/thumb.jpg", baseURL, id),
			VideoFiles: []models.VideoFile{
				{Quality: "small", URL: fmt.Sprintf("%s/%s/small.mp4", baseURL, id), Width: 640, Height: 360},
				{Quality: "large", URL: fmt.Sprintf("%s/%s/large.mp4", baseURL, id), Width: 1920, Height: 1080},
			},
		},
		Metadata: models.MediaMetadata{Width: 1920, Height: 1080, Duration: IntPtr(10)},
	}
}

// Payload returns n deterministic bytes, useful to compare downloaded files.
func Payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// NewMediaServer serves body for every path (with Range support via http.ServeContent)
// and 404 for paths listed in missing. The server is closed with the test.
func NewMediaServer(t *testing.T, body []byte, missing ...string) *httptest.Server {
	t.Helper()
	notFound := make(map[string]bool, len(missing))
	for _, p := range missing {
		notFound[p] = true
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if notFound[r.URL.Path] {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(body))
	}))
	t.Cleanup(server.Close)
	return server
}

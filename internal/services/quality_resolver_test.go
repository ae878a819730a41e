package services

import (
	"errors"
	"testing"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

func TestResolveImageURL(t *testing.T) {
	t.Parallel()
	thumbOnly := models.MediaURLs{Thumbnail: "thumb"}
	noOriginal := models.MediaURLs{Thumbnail: "thumb", Medium: "med", Large: "large"}
	mediumOnly := models.MediaURLs{Thumbnail: "thumb", Medium: "med"}
	largeOnly := models.MediaURLs{Thumbnail: "thumb", Large: "large"}
	full := models.MediaURLs{Thumbnail: "thumb", Medium: "med", Large: "large", Original: "orig"}

	tests := []struct {
		name    string
		urls    models.MediaURLs
		quality models.ImageQuality
		want    string
	}{
		{"thumbnail only asked medium", thumbOnly, models.ImageMedium, "thumb"},
		{"thumbnail only asked large", thumbOnly, models.ImageLarge, "thumb"},
		{"thumbnail only asked original", thumbOnly, models.ImageOriginal, "thumb"},
		{"original falls back to large", noOriginal, models.ImageOriginal, "large"},
		{"original falls back to medium", mediumOnly, models.ImageOriginal, "med"},
		{"large falls back to medium", mediumOnly, models.ImageLarge, "med"},
		{"medium falls back to large", largeOnly, models.ImageMedium, "large"},
		{"thumbnail ignores larger sizes", full, models.ImageThumbnail, "thumb"},
		{"exact original", full, models.ImageOriginal, "orig"},
		{"exact medium", full, models.ImageMedium, "med"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveImageURL(tt.urls, tt.quality)
			if err != nil {
				t.Fatalf("ResolveImageURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveImageURL_MissingThumbnail(t *testing.T) {
	t.Parallel()
	_, err := ResolveImageURL(models.MediaURLs{}, models.ImageMedium)
	if !errors.Is(err, &apperrors.ErrInvalidQuality{}) {
		t.Errorf("expected ErrInvalidQuality, got %v", err)
	}
}

func TestResolveVideoURL(t *testing.T) {
	t.Parallel()
	ladder := []models.VideoFile{
		{Quality: "360p", URL: "v360", Width: 640},
		{Quality: "720p", URL: "v720", Width: 1280},
		{Quality: "1080p", URL: "v1080", Width: 1920},
	}

	tests := []struct {
		name    string
		files   []models.VideoFile
		quality models.VideoQuality
		want    string
	}{
		{"smallest width above threshold", ladder, models.VideoSmall, "v720"},
		{"threshold met exactly", ladder, models.VideoTiny, "v360"},
		{"large picks 1080", ladder, models.VideoLarge, "v1080"},
		{
			"falls back to widest when nothing is wide enough",
			[]models.VideoFile{{Quality: "sd", URL: "a", Width: 640}, {Quality: "sd", URL: "b", Width: 960}},
			models.VideoLarge,
			"b",
		},
		{
			"exact label beats width rule",
			[]models.VideoFile{
				{Quality: "hd", URL: "hd", Width: 1280},
				{Quality: "medium", URL: "labelled", Width: 1920},
			},
			models.VideoMedium,
			"labelled",
		},
		{
			"label match is case sensitive",
			[]models.VideoFile{
				{Quality: "Medium", URL: "cased", Width: 1920},
				{Quality: "hd", URL: "hd", Width: 1280},
			},
			models.VideoMedium,
			"hd",
		},
		{"original without label takes narrowest", ladder, models.VideoOriginal, "v360"},
		{
			"ties keep list order",
			[]models.VideoFile{{Quality: "a", URL: "first", Width: 1280}, {Quality: "b", URL: "second", Width: 1280}},
			models.VideoSmall,
			"first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveVideoURL(tt.files, tt.quality)
			if err != nil {
				t.Fatalf("ResolveVideoURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveVideoURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveVideoURL_Empty(t *testing.T) {
	t.Parallel()
	_, err := ResolveVideoURL(nil, models.VideoMedium)
	if !errors.Is(err, &apperrors.ErrInvalidQuality{}) {
		t.Errorf("expected ErrInvalidQuality, got %v", err)
	}
}

func TestResolveURL_DispatchesOnMediaType(t *testing.T) {
	t.Parallel()
	video := &models.MediaItem{
		MediaType: models.MediaTypeVideo,
		URLs: models.MediaURLs{
			Thumbnail:  "poster.jpg",
			VideoFiles: []models.VideoFile{{Quality: "large", URL: "big.mp4", Width: 1920}},
		},
	}
	got, err := ResolveURL(video, models.ImageThumbnail, models.VideoLarge)
	if err != nil || got != "big.mp4" {
		t.Errorf("ResolveURL(video) = %q, %v", got, err)
	}

	image := &models.MediaItem{MediaType: models.MediaTypeImage, URLs: models.MediaURLs{Thumbnail: "t.jpg", Large: "l.jpg"}}
	got, err = ResolveURL(image, models.ImageOriginal, models.VideoLarge)
	if err != nil || got != "l.jpg" {
		t.Errorf("ResolveURL(image) = %q, %v", got, err)
	}

	for i := 0; i < 3; i++ {
		again, _ := ResolveURL(image, models.ImageOriginal, models.VideoLarge)
		if again != got {
			t.Fatalf("resolution is not deterministic: %q vs %q", again, got)
		}
	}
}

package models

import (
	"fmt"
	"strings"
)

// MediaType is the kind of asset a provider returns
type MediaType int

const (
	MediaTypeImage MediaType = iota
	MediaTypeVideo
)

// String returns the string representation of the media type
func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	default:
		return "image"
	}
}

// Extension returns the file extension used when saving assets of this type
func (m MediaType) Extension() string {
	if m == MediaTypeVideo {
		return "mp4"
	}
	return "jpg"
}

// ParseMediaType converts a media type string (case-insensitive) to MediaType
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "images", "photo", "photos":
		return MediaTypeImage, nil
	case "video", "videos":
		return MediaTypeVideo, nil
	default:
		return MediaTypeImage, fmt.Errorf("invalid media type: %q", s)
	}
}

// MarshalJSON implements json.Marshaler interface
func (m MediaType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (m *MediaType) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMediaType(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// VideoFile is one rendition of a video asset
type VideoFile struct {
	Quality   string `json:"quality"` // Provider label, e.g. "large", "hd", "sd"
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int64  `json:"size"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// MediaURLs holds the variant URLs of an asset. Thumbnail is always set;
// an empty string means the variant is not available.
type MediaURLs struct {
	Thumbnail  string      `json:"thumbnail"`
	Medium     string      `json:"medium,omitempty"`
	Large      string      `json:"large,omitempty"`
	Original   string      `json:"original,omitempty"`
	VideoFiles []VideoFile `json:"videoFiles,omitempty"`
}

// MediaMetadata holds numeric metadata reported by the provider
type MediaMetadata struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      *int64 `json:"size,omitempty"`
	Duration  *int   `json:"duration,omitempty"` // Seconds, videos only
	Views     int    `json:"views"`
	Downloads int    `json:"downloads"`
	Likes     int    `json:"likes"`
}

// MediaItem is a provider-agnostic image or video record
type MediaItem struct {
	ID          string        `json:"id"`
	MediaType   MediaType     `json:"mediaType"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Author      string        `json:"author"`
	AuthorURL   string        `json:"authorUrl"`
	SourceURL   string        `json:"sourceUrl"`
	Provider    string        `json:"provider"`
	URLs        MediaURLs     `json:"urls"`
	Metadata    MediaMetadata `json:"metadata"`
}

// Key identifies the item across providers as "provider/id"
func (m *MediaItem) Key() string {
	return m.Provider + "/" + m.ID
}

package models

import (
	"fmt"
	"strings"
)

// ImageQuality is the caller's preferred image size, ordered from smallest to largest
type ImageQuality int

const (
	ImageThumbnail ImageQuality = iota
	ImageMedium
	ImageLarge
	ImageOriginal
)

// String returns the string representation of the quality
func (q ImageQuality) String() string {
	switch q {
	case ImageThumbnail:
		return "thumbnail"
	case ImageMedium:
		return "medium"
	case ImageLarge:
		return "large"
	case ImageOriginal:
		return "original"
	default:
		return "unknown"
	}
}

// ParseImageQuality converts a quality string to ImageQuality
func ParseImageQuality(s string) (ImageQuality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thumbnail", "thumb":
		return ImageThumbnail, nil
	case "medium":
		return ImageMedium, nil
	case "large":
		return ImageLarge, nil
	case "original":
		return ImageOriginal, nil
	default:
		return ImageLarge, fmt.Errorf("invalid image quality: %q", s)
	}
}

// MarshalJSON implements json.Marshaler interface
func (q ImageQuality) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (q *ImageQuality) UnmarshalJSON(data []byte) error {
	parsed, err := ParseImageQuality(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// VideoQuality is the caller's preferred video resolution, ordered from smallest to largest
type VideoQuality int

const (
	VideoTiny     VideoQuality = iota // 360p
	VideoSmall                        // 540p
	VideoMedium                       // 720p
	VideoLarge                        // 1080p
	VideoOriginal
)

// String returns the canonical label of the quality; it is also the label
// matched exactly against provider video files.
func (q VideoQuality) String() string {
	switch q {
	case VideoTiny:
		return "tiny"
	case VideoSmall:
		return "small"
	case VideoMedium:
		return "medium"
	case VideoLarge:
		return "large"
	case VideoOriginal:
		return "original"
	default:
		return "unknown"
	}
}

// MinWidth returns the smallest acceptable width in pixels. Original has no threshold.
func (q VideoQuality) MinWidth() int {
	switch q {
	case VideoTiny:
		return 640
	case VideoSmall:
		return 960
	case VideoMedium:
		return 1280
	case VideoLarge:
		return 1920
	default:
		return 0
	}
}

// ParseVideoQuality converts a quality string to VideoQuality
func ParseVideoQuality(s string) (VideoQuality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiny", "360p":
		return VideoTiny, nil
	case "small", "540p":
		return VideoSmall, nil
	case "medium", "720p":
		return VideoMedium, nil
	case "large", "1080p":
		return VideoLarge, nil
	case "original":
		return VideoOriginal, nil
	default:
		return VideoLarge, fmt.Errorf("invalid video quality: %q", s)
	}
}

// MarshalJSON implements json.Marshaler interface
func (q VideoQuality) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (q *VideoQuality) UnmarshalJSON(data []byte) error {
	parsed, err := ParseVideoQuality(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

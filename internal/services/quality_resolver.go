package services

import (
	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// ResolveURL picks the transfer URL of item for its media type
func ResolveURL(item *models.MediaItem, imageQuality models.ImageQuality, videoQuality models.VideoQuality) (string, error) {
	if item.MediaType == models.MediaTypeVideo {
		return ResolveVideoURL(item.URLs.VideoFiles, videoQuality)
	}
	return ResolveImageURL(item.URLs, imageQuality)
}

// ResolveImageURL walks the fallback chain of the requested quality and returns
// the first URL present. Every chain ends at the thumbnail.
func ResolveImageURL(urls models.MediaURLs, quality models.ImageQuality) (string, error) {
	var chain []string
	switch quality {
	case models.ImageThumbnail:
		chain = []string{urls.Thumbnail}
	case models.ImageMedium:
		chain = []string{urls.Medium, urls.Large, urls.Thumbnail}
	case models.ImageLarge:
		chain = []string{urls.Large, urls.Medium, urls.Thumbnail}
	case models.ImageOriginal:
		chain = []string{urls.Original, urls.Large, urls.Medium, urls.Thumbnail}
	default:
		return "", &apperrors.ErrInvalidQuality{Reason: "unknown image quality " + quality.String()}
	}

	for _, u := range chain {
		if u != "" {
			return u, nil
		}
	}
	return "", &apperrors.ErrInvalidQuality{Reason: "image has no thumbnail URL"}
}

// ResolveVideoURL selects a video file for the requested quality:
//  1. the first file whose label equals the quality label,
//  2. else the narrowest file at least MinWidth wide,
//  3. else the widest file.
//
// Original has a threshold of 0, so without an "original" label it takes the
// narrowest file. Ties keep the earliest file in list order.
func ResolveVideoURL(files []models.VideoFile, quality models.VideoQuality) (string, error) {
	if len(files) == 0 {
		return "", &apperrors.ErrInvalidQuality{Reason: "no video files available"}
	}

	label := quality.String()
	for i := range files {
		if files[i].Quality == label {
			return files[i].URL, nil
		}
	}

	threshold := quality.MinWidth()
	best := -1
	for i := range files {
		if files[i].Width < threshold {
			continue
		}
		if best < 0 || files[i].Width < files[best].Width {
			best = i
		}
	}
	if best >= 0 {
		return files[best].URL, nil
	}

	widest := 0
	for i := 1; i < len(files); i++ {
		if files[i].Width > files[widest].Width {
			widest = i
		}
	}
	return files[widest].URL, nil
}

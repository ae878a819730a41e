// Package providers defines the media provider capability and the registry
// the concrete providers (pixabay, pexels) add themselves to.
package providers

import (
	"context"
	"strings"
	"unicode"

	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

// Provider is a remote stock-media catalogue.
type Provider interface {
	// Name returns the display label stamped on every item, e.g. "Pixabay".
	Name() string
	SearchImages(ctx context.Context, query string, limit, page int) (*models.SearchResult, error)
	SearchVideos(ctx context.Context, query string, limit, page int) (*models.SearchResult, error)
	GetMedia(ctx context.Context, id string, mediaType models.MediaType) (*models.MediaItem, error)
}

// Search dispatches params to SearchImages or SearchVideos after filling in defaults.
func Search(ctx context.Context, p Provider, params models.SearchParams) (*models.SearchResult, error) {
	params = params.Normalize()
	if params.MediaType == models.MediaTypeVideo {
		return p.SearchVideos(ctx, params.Query, params.Limit, params.Page)
	}
	return p.SearchImages(ctx, params.Query, params.Limit, params.Page)
}

// SplitKeywords splits a free-form query on the given separator runes and trims
// each keyword. Empty keywords are dropped. When splitOnSpace is true any
// Unicode whitespace also separates keywords.
func SplitKeywords(query, separators string, splitOnSpace bool) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return strings.ContainsRune(separators, r) || (splitOnSpace && unicode.IsSpace(r))
	})
	keywords := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

// SplitTags turns a comma separated tag list into trimmed, non-empty tags.
func SplitTags(tags string) []string {
	out := []string{}
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

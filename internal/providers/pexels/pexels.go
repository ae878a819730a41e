// Package pexels implements the Pexels photo and video provider.
package pexels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/providers"
)

const (
	// Name is the label stamped on every item from this provider.
	Name = "Pexels"

	DefaultBaseURL = "https://api.pexels.com/v1"

	// videoTitle is used for videos, which carry no caption.
	videoTitle = "Video"
	maxPerPage = 80
)

func init() {
	providers.Register("pexels", func(s config.ProviderSettings, httpClient *http.Client) (providers.Provider, error) {
		return New(s.APIKey, httpClient, s.BaseURL)
	})
}

type provider struct {
	httpClient *http.Client
	header     http.Header
	baseURL    string
}

// New creates a Pexels provider. An empty baseURL selects the public API.
func New(apiKey string, httpClient *http.Client, baseURL string) (providers.Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &apperrors.ErrAPIKeyEmpty{Provider: Name}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &provider{
		httpClient: httpClient,
		header:     http.Header{"Authorization": {apiKey}},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func (p *provider) Name() string {
	return Name
}

// processQuery turns , ; | separated keywords into a space separated phrase.
// Spaces inside a keyword are kept.
func processQuery(query string) string {
	return strings.Join(providers.SplitKeywords(query, ",;|", false), " ")
}

func searchParams(query string, limit, page int) string {
	return url.Values{
		"query":    {processQuery(query)},
		"per_page": {strconv.Itoa(min(limit, maxPerPage))},
		"page":     {strconv.Itoa(page)},
	}.Encode()
}

func (p *provider) SearchImages(ctx context.Context, query string, limit, page int) (*models.SearchResult, error) {
	logger := config.GetLogger()
	logger.Debug().Str("query", query).Int("limit", limit).Int("page", page).Msg("Searching Pexels photos")

	var resp photosPage
	if err := providers.GetJSON(ctx, p.httpClient, Name, p.baseURL+"/search?"+searchParams(query, limit, page), p.header, &resp); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.Photos))
	for i := range resp.Photos {
		items = append(items, mapPhoto(&resp.Photos[i]))
	}
	return newResult(resp.TotalResults, limit, page, items), nil
}

func (p *provider) SearchVideos(ctx context.Context, query string, limit, page int) (*models.SearchResult, error) {
	logger := config.GetLogger()
	logger.Debug().Str("query", query).Int("limit", limit).Int("page", page).Msg("Searching Pexels videos")

	var resp videosPage
	if err := providers.GetJSON(ctx, p.httpClient, Name, p.baseURL+"/videos/search?"+searchParams(query, limit, page), p.header, &resp); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.Videos))
	for i := range resp.Videos {
		items = append(items, mapVideo(&resp.Videos[i]))
	}
	return newResult(resp.TotalResults, limit, page, items), nil
}

// GetMedia fetches /photos/{id} or /videos/videos/{id}.
func (p *provider) GetMedia(ctx context.Context, id string, mediaType models.MediaType) (*models.MediaItem, error) {
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%s: invalid media id %q: %w", Name, id, err)
	}

	if mediaType == models.MediaTypeVideo {
		var v video
		if err := p.lookup(ctx, p.baseURL+"/videos/videos/"+id, id, &v); err != nil {
			return nil, err
		}
		item := mapVideo(&v)
		return &item, nil
	}

	var ph photo
	if err := p.lookup(ctx, p.baseURL+"/photos/"+id, id, &ph); err != nil {
		return nil, err
	}
	item := mapPhoto(&ph)
	return &item, nil
}

func (p *provider) lookup(ctx context.Context, rawURL, id string, out any) error {
	err := providers.GetJSON(ctx, p.httpClient, Name, rawURL, p.header, out)
	var reqErr *apperrors.ErrProviderRequest
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
		return apperrors.NewMediaNotFoundError(id)
	}
	return err
}

// newResult reports the page item count as TotalHits; Pexels has no separate hit cap.
func newResult(total, limit, page int, items []models.MediaItem) *models.SearchResult {
	return &models.SearchResult{
		Total:      total,
		TotalHits:  len(items),
		Page:       page,
		PerPage:    limit,
		TotalPages: models.CalculateTotalPages(total, limit),
		Items:      items,
		Provider:   Name,
	}
}

func mapPhoto(ph *photo) models.MediaItem {
	return models.MediaItem{
		ID:          strconv.FormatInt(ph.ID, 10),
		MediaType:   models.MediaTypeImage,
		Title:       ph.Alt,
		Description: ph.Alt,
		Tags:        []string{},
		Author:      ph.Photographer,
		AuthorURL:   ph.PhotographerURL,
		SourceURL:   ph.URL,
		Provider:    Name,
		URLs: models.MediaURLs{
			Thumbnail: ph.Src.Tiny,
			Medium:    ph.Src.Medium,
			Large:     ph.Src.Large,
			Original:  ph.Src.Original,
		},
		Metadata: models.MediaMetadata{
			Width:  ph.Width,
			Height: ph.Height,
		},
	}
}

func mapVideo(v *video) models.MediaItem {
	files := make([]models.VideoFile, 0, len(v.VideoFiles))
	hd := ""
	for _, f := range v.VideoFiles {
		files = append(files, models.VideoFile{
			Quality: f.Quality,
			URL:     f.Link,
			Width:   f.Width,
			Height:  f.Height,
		})
		if hd == "" && strings.Contains(strings.ToLower(f.Quality), "hd") {
			hd = f.Link
		}
	}

	var duration *int
	if v.Duration > 0 {
		d := v.Duration
		duration = &d
	}

	return models.MediaItem{
		ID:          strconv.FormatInt(v.ID, 10),
		MediaType:   models.MediaTypeVideo,
		Title:       videoTitle,
		Description: "",
		Tags:        []string{},
		Author:      v.User.Name,
		AuthorURL:   v.User.URL,
		SourceURL:   v.URL,
		Provider:    Name,
		URLs: models.MediaURLs{
			Thumbnail:  v.Image,
			Medium:     hd,
			Large:      hd,
			VideoFiles: files,
		},
		Metadata: models.MediaMetadata{
			Width:    v.Width,
			Height:   v.Height,
			Duration: duration,
		},
	}
}

// Package pixabay implements the Pixabay image and video provider.
package pixabay

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
	Name = "Pixabay"

	DefaultBaseURL = "https://pixabay.com/api"

	minPerPage = 3
	maxPerPage = 200
)

func init() {
	providers.Register("pixabay", func(s config.ProviderSettings, httpClient *http.Client) (providers.Provider, error) {
		return New(s.APIKey, httpClient, s.BaseURL)
	})
}

type provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// New creates a Pixabay provider. An empty baseURL selects the public API.
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
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func (p *provider) Name() string {
	return Name
}

// processQuery splits keywords on whitespace , ; | and rejoins them with single spaces,
// which the query encoder turns into the '+' separated form Pixabay documents.
func processQuery(query string) string {
	return strings.Join(providers.SplitKeywords(query, ",;|", true), " ")
}

func clampPerPage(limit int) int {
	return max(minPerPage, min(limit, maxPerPage))
}

func (p *provider) endpoint(mediaType models.MediaType, params url.Values) string {
	params.Set("key", p.apiKey)
	path := p.baseURL + "/"
	if mediaType == models.MediaTypeVideo {
		path = p.baseURL + "/videos/"
	}
	return path + "?" + params.Encode()
}

func searchParams(query string, limit, page int) url.Values {
	return url.Values{
		"q":        {processQuery(query)},
		"per_page": {strconv.Itoa(clampPerPage(limit))},
		"page":     {strconv.Itoa(page)},
	}
}

func (p *provider) SearchImages(ctx context.Context, query string, limit, page int) (*models.SearchResult, error) {
	logger := config.GetLogger()
	logger.Debug().Str("query", query).Int("limit", limit).Int("page", page).Msg("Searching Pixabay images")

	var resp imageResponse
	if err := providers.GetJSON(ctx, p.httpClient, Name, p.endpoint(models.MediaTypeImage, searchParams(query, limit, page)), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.Hits))
	for i := range resp.Hits {
		items = append(items, mapImage(&resp.Hits[i]))
	}
	return newResult(resp.Total, resp.TotalHits, limit, page, items), nil
}

func (p *provider) SearchVideos(ctx context.Context, query string, limit, page int) (*models.SearchResult, error) {
	logger := config.GetLogger()
	logger.Debug().Str("query", query).Int("limit", limit).Int("page", page).Msg("Searching Pixabay videos")

	var resp videoResponse
	if err := providers.GetJSON(ctx, p.httpClient, Name, p.endpoint(models.MediaTypeVideo, searchParams(query, limit, page)), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.Hits))
	for i := range resp.Hits {
		items = append(items, mapVideo(&resp.Hits[i]))
	}
	return newResult(resp.Total, resp.TotalHits, limit, page, items), nil
}

// GetMedia looks an asset up by its numeric id.
func (p *provider) GetMedia(ctx context.Context, id string, mediaType models.MediaType) (*models.MediaItem, error) {
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%s: invalid media id %q: %w", Name, id, err)
	}
	params := url.Values{"id": {id}}

	if mediaType == models.MediaTypeVideo {
		var resp videoResponse
		if err := p.lookup(ctx, mediaType, params, &resp); err != nil {
			return nil, err
		}
		if len(resp.Hits) == 0 {
			return nil, apperrors.NewMediaNotFoundError(id)
		}
		item := mapVideo(&resp.Hits[0])
		return &item, nil
	}

	var resp imageResponse
	if err := p.lookup(ctx, mediaType, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Hits) == 0 {
		return nil, apperrors.NewMediaNotFoundError(id)
	}
	item := mapImage(&resp.Hits[0])
	return &item, nil
}

// lookup maps the 400 Pixabay answers for an unknown id to ErrNotFound.
func (p *provider) lookup(ctx context.Context, mediaType models.MediaType, params url.Values, out any) error {
	err := providers.GetJSON(ctx, p.httpClient, Name, p.endpoint(mediaType, params), nil, out)
	var reqErr *apperrors.ErrProviderRequest
	if errors.As(err, &reqErr) && (reqErr.StatusCode == http.StatusBadRequest || reqErr.StatusCode == http.StatusNotFound) {
		return apperrors.NewMediaNotFoundError(params.Get("id"))
	}
	return err
}

func newResult(total, totalHits, limit, page int, items []models.MediaItem) *models.SearchResult {
	return &models.SearchResult{
		Total:      total,
		TotalHits:  totalHits,
		Page:       page,
		PerPage:    limit,
		TotalPages: models.CalculateTotalPages(total, limit),
		Items:      items,
		Provider:   Name,
	}
}

func authorURL(user string, userID int64) string {
	return fmt.Sprintf("https://pixabay.com/users/%s-%d/", user, userID)
}

func mapImage(img *image) models.MediaItem {
	size := img.ImageSize
	return models.MediaItem{
		ID:          strconv.FormatInt(img.ID, 10),
		MediaType:   models.MediaTypeImage,
		Title:       img.Tags,
		Description: img.Tags,
		Tags:        providers.SplitTags(img.Tags),
		Author:      img.User,
		AuthorURL:   authorURL(img.User, img.UserID),
		SourceURL:   img.PageURL,
		Provider:    Name,
		URLs: models.MediaURLs{
			Thumbnail: img.PreviewURL,
			Medium:    img.WebformatURL,
			Large:     img.LargeImageURL,
			Original:  img.ImageURL,
		},
		Metadata: models.MediaMetadata{
			Width:     img.ImageWidth,
			Height:    img.ImageHeight,
			Size:      &size,
			Views:     img.Views,
			Downloads: img.Downloads,
			Likes:     img.Likes,
		},
	}
}

func mapVideo(v *video) models.MediaItem {
	var files []models.VideoFile
	for _, rendition := range []struct {
		label string
		file  *videoFile
	}{
		{"large", v.Videos.Large},
		{"medium", v.Videos.Medium},
		{"small", v.Videos.Small},
		{"tiny", v.Videos.Tiny},
	} {
		// Pixabay sends empty objects for renditions it does not have.
		if rendition.file == nil || rendition.file.URL == "" {
			continue
		}
		files = append(files, models.VideoFile{
			Quality:   rendition.label,
			URL:       rendition.file.URL,
			Width:     rendition.file.Width,
			Height:    rendition.file.Height,
			Size:      rendition.file.Size,
			Thumbnail: rendition.file.Thumbnail,
		})
	}

	urls := models.MediaURLs{VideoFiles: files}
	if len(files) > 0 {
		urls.Thumbnail = files[0].Thumbnail
	}
	for _, f := range files {
		switch f.Quality {
		case "medium":
			urls.Medium = f.URL
		case "large":
			urls.Large = f.URL
		}
	}

	duration := v.Duration
	meta := models.MediaMetadata{
		Duration:  &duration,
		Views:     v.Views,
		Downloads: v.Downloads,
		Likes:     v.Likes,
	}
	if large := v.Videos.Large; large != nil && large.URL != "" {
		size := large.Size
		meta.Width, meta.Height, meta.Size = large.Width, large.Height, &size
	}

	return models.MediaItem{
		ID:          strconv.FormatInt(v.ID, 10),
		MediaType:   models.MediaTypeVideo,
		Title:       v.Tags,
		Description: v.Tags,
		Tags:        providers.SplitTags(v.Tags),
		Author:      v.User,
		AuthorURL:   authorURL(v.User, v.UserID),
		SourceURL:   v.PageURL,
		Provider:    Name,
		URLs:        urls,
		Metadata:    meta,
	}
}

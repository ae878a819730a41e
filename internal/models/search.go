package models

// DefaultSearchLimit is used when SearchParams.Limit is not set
const DefaultSearchLimit = 20

// SearchParams describes one search request
type SearchParams struct {
	Query     string
	Limit     int // Results per page
	Page      int // 1-based
	MediaType MediaType
}

// Normalize fills in the defaults for zero values
func (p SearchParams) Normalize() SearchParams {
	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// SearchResult is one provider's page of results
type SearchResult struct {
	Total      int         `json:"total"`     // Results available across all pages
	TotalHits  int         `json:"totalHits"` // Results accessible through the API, may be capped
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	TotalPages int         `json:"totalPages"`
	Items      []MediaItem `json:"items"`
	Provider   string      `json:"provider"`
}

// CalculateTotalPages returns ceil(total/perPage), or 0 when perPage is 0
func CalculateTotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// AggregatedSearchResult merges the pages of several providers.
// Totals and TotalPages are sums of the provider values.
type AggregatedSearchResult struct {
	Provider        string         `json:"provider"` // First successful provider
	Total           int            `json:"total"`
	TotalHits       int            `json:"totalHits"`
	Page            int            `json:"page"`
	PerPage         int            `json:"perPage"`
	TotalPages      int            `json:"totalPages"`
	Items           []MediaItem    `json:"items"`
	ProviderResults []SearchResult `json:"providerResults"`
}

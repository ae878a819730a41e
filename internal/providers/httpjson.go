package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
)

// maxErrorBody bounds how much of an error response ends up in the error message.
const maxErrorBody = 512

// GetJSON performs a GET request and decodes a 2xx JSON body into out.
// header may be nil. Non-2xx statuses are mapped by StatusError.
func GetJSON(ctx context.Context, httpClient *http.Client, provider, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", provider, err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return StatusError(provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", provider, err)
	}
	return nil
}

// StatusError maps a non-2xx provider status to an error:
// 429 wraps ErrRateLimited, 401/403 report an invalid key,
// anything else becomes an ErrProviderRequest carrying the body.
func StatusError(provider string, status int, body string) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, apperrors.ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return &apperrors.ErrProviderRequest{Provider: provider, StatusCode: status, Message: "invalid API key"}
	default:
		return &apperrors.ErrProviderRequest{Provider: provider, StatusCode: status, Message: body}
	}
}

package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoProviders is returned when an operation needs at least one registered provider.
var ErrNoProviders = errors.New("no media providers configured")

// ErrRateLimited is returned by providers when the remote API rejects a request with HTTP 429.
var ErrRateLimited = errors.New("provider rate limit exceeded")

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// NewMediaNotFoundError is returned when no provider knows the requested media ID.
func NewMediaNotFoundError(id string) *ErrNotFound {
	return &ErrNotFound{
		Resource: "media",
		ID:       id,
	}
}

// ErrAllProvidersFailed is returned by an aggregate search when every provider failed.
// Errors holds each provider's failure in registration order.
type ErrAllProvidersFailed struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrAllProvidersFailed) Error() string {
	if len(e.Errors) == 0 {
		return "all providers failed"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("all %d providers failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Is allows for error checking with errors.Is().
func (e *ErrAllProvidersFailed) Is(target error) bool {
	_, ok := target.(*ErrAllProvidersFailed)
	return ok
}

// Unwrap exposes the individual provider errors to errors.Is and errors.As.
func (e *ErrAllProvidersFailed) Unwrap() []error {
	return e.Errors
}

// ErrUnknownProvider is returned when a provider name does not match any known provider.
type ErrUnknownProvider struct {
	Name string
}

// Error implements the error interface.
func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Name)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnknownProvider) Is(target error) bool {
	_, ok := target.(*ErrUnknownProvider)
	return ok
}

// ErrProviderNotEnabled is returned when a known provider has been disabled in configuration.
type ErrProviderNotEnabled struct {
	Name string
}

// Error implements the error interface.
func (e *ErrProviderNotEnabled) Error() string {
	return fmt.Sprintf("provider %q is not enabled", e.Name)
}

// Is allows for error checking with errors.Is().
func (e *ErrProviderNotEnabled) Is(target error) bool {
	_, ok := target.(*ErrProviderNotEnabled)
	return ok
}

// ErrAPIKeyEmpty is returned when a provider is created without an API key.
type ErrAPIKeyEmpty struct {
	Provider string
}

// Error implements the error interface.
func (e *ErrAPIKeyEmpty) Error() string {
	return fmt.Sprintf("API key for provider %q is not set", e.Provider)
}

// Is allows for error checking with errors.Is().
func (e *ErrAPIKeyEmpty) Is(target error) bool {
	_, ok := target.(*ErrAPIKeyEmpty)
	return ok
}

// ErrInvalidQuality is returned when no variant of an asset can satisfy a quality request.
type ErrInvalidQuality struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrInvalidQuality) Error() string {
	return fmt.Sprintf("invalid quality: %s", e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrInvalidQuality) Is(target error) bool {
	_, ok := target.(*ErrInvalidQuality)
	return ok
}

// ErrProviderRequest is returned when a provider API answers with an unexpected status.
type ErrProviderRequest struct {
	Provider   string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *ErrProviderRequest) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s request failed with HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed with HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Is allows for error checking with errors.Is().
func (e *ErrProviderRequest) Is(target error) bool {
	_, ok := target.(*ErrProviderRequest)
	return ok
}

// TransferErrorKind classifies why a binary transfer failed.
type TransferErrorKind int

const (
	// TransferNetwork covers request issuance and body read failures.
	TransferNetwork TransferErrorKind = iota
	// TransferHTTPStatus covers non-success HTTP responses.
	TransferHTTPStatus
	// TransferIO covers local filesystem failures.
	TransferIO
)

// String returns the string representation of the kind
func (k TransferErrorKind) String() string {
	switch k {
	case TransferNetwork:
		return "network"
	case TransferHTTPStatus:
		return "http_status"
	case TransferIO:
		return "io"
	default:
		return "unknown"
	}
}

// TransferError is returned by the transfer engine for a single failed item.
type TransferError struct {
	Kind       TransferErrorKind
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	switch e.Kind {
	case TransferHTTPStatus:
		return fmt.Sprintf("transfer of %s failed: HTTP %d", e.URL, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("transfer of %s failed (%s): %v", e.URL, e.Kind, e.Err)
		}
		return fmt.Sprintf("transfer of %s failed (%s)", e.URL, e.Kind)
	}
}

// Is allows for error checking with errors.Is().
func (e *TransferError) Is(target error) bool {
	_, ok := target.(*TransferError)
	return ok
}

// Unwrap returns the underlying cause.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// NewHTTPStatusError creates a TransferError for a non-success response.
func NewHTTPStatusError(url string, statusCode int) *TransferError {
	return &TransferError{Kind: TransferHTTPStatus, URL: url, StatusCode: statusCode}
}

package notion

import (
	"errors"
	"fmt"
	"time"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// Notion-specific errors.
var (
	// ErrDatabaseNotFound indicates the database was not found or the
	// integration has not been granted access to it.
	ErrDatabaseNotFound = errors.New("notion: database not found")

	// ErrTokenMissing indicates no integration token is configured.
	ErrTokenMissing = errors.New("notion: integration token not configured")
)

// RateLimitError represents a rate limit exceeded error with retry time.
type RateLimitError struct {
	RetryAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("notion: rate limit exceeded, retry at %s", e.RetryAt.Format(time.RFC3339))
}

// Is maps the connector error onto the domain sentinel so callers behind
// the RemoteSource port can match it without importing this package.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// APIError represents a Notion API error response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return errors.Is(err, ErrDatabaseNotFound)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}

package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
// The remote document database uses long-lived integration tokens, so the
// provider is usually a thin wrapper around configuration.
type TokenProvider interface {
	// GetToken returns a valid access token.
	GetToken(ctx context.Context) (string, error)
}

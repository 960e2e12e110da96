package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com"

	// APIVersion is the Notion-Version header value.
	APIVersion = "2022-06-28"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for rate limited requests.
	MaxRetries = 3

	// PageSize is the listing page size (Notion's maximum).
	PageSize = 100
)

// Ensure Client implements the interface.
var _ driven.RemoteSource = (*Client)(nil)

// Client is a Notion API client implementing driven.RemoteSource.
type Client struct {
	baseURL       string
	http          *http.Client
	tokenProvider driven.TokenProvider
	rateLimiter   *RateLimiter
}

// NewClient creates a new Notion API client with a token provider.
func NewClient(tokenProvider driven.TokenProvider) *Client {
	return &Client{
		baseURL:       DefaultBaseURL,
		tokenProvider: tokenProvider,
		rateLimiter:   NewRateLimiter(),
	}
}

// NewClientWithToken creates a Notion client with a static integration token.
func NewClientWithToken(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		baseURL:     DefaultBaseURL,
		http:        tc,
		rateLimiter: NewRateLimiter(),
	}
}

// NewClientWithHTTPClient creates a Notion client with a custom http.Client
// and base URL. Useful for tests and proxies.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        httpClient,
		rateLimiter: NewRateLimiter(),
	}
}

// ensureClient initializes the HTTP client if not already done.
// This is called lazily so we can get the token when needed.
func (c *Client) ensureClient(ctx context.Context) error {
	if c.http != nil {
		return nil
	}
	if c.tokenProvider == nil {
		return ErrTokenMissing
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return ErrTokenMissing
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	c.http = tc

	return nil
}

// FetchDatabaseMetadata retrieves a database object.
func (c *Client) FetchDatabaseMetadata(ctx context.Context, databaseID string) (domain.RawRecord, error) {
	var record domain.RawRecord
	path := fmt.Sprintf("/v1/databases/%s", databaseID)
	if err := c.do(ctx, http.MethodGet, path, nil, &record); err != nil {
		return nil, fmt.Errorf("fetch database %s: %w", databaseID, err)
	}
	return record, nil
}

// ListRecords retrieves all records of a database, following pagination
// until the query is exhausted.
func (c *Client) ListRecords(ctx context.Context, databaseID string) ([]domain.RawRecord, error) {
	path := fmt.Sprintf("/v1/databases/%s/query", databaseID)

	var all []domain.RawRecord
	var cursor string
	for {
		body := map[string]any{"page_size": PageSize}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var page struct {
			Results    []domain.RawRecord `json:"results"`
			HasMore    bool               `json:"has_more"`
			NextCursor string             `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodPost, path, body, &page); err != nil {
			return nil, fmt.Errorf("query database %s: %w", databaseID, err)
		}

		all = append(all, page.Results...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return all, nil
}

// ListChildBlocks retrieves the child blocks of a record, following
// pagination and returning all blocks as one JSON array.
func (c *Client) ListChildBlocks(ctx context.Context, recordID string) (json.RawMessage, error) {
	var blocks []json.RawMessage
	var cursor string
	for {
		path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", recordID, PageSize)
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var page struct {
			Results    []json.RawMessage `json:"results"`
			HasMore    bool              `json:"has_more"`
			NextCursor string            `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("list blocks %s: %w", recordID, err)
		}

		blocks = append(blocks, page.Results...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if blocks == nil {
		blocks = []json.RawMessage{}
	}
	return json.Marshal(blocks)
}

// ValidateCredentials checks the configured token by retrieving the bot
// user behind it.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var me map[string]any
	if err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, &me); err != nil {
		return fmt.Errorf("validate credentials: %w", err)
	}
	return nil
}

// do performs one API request, retrying rate limited attempts.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.ensureClient(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Notion-Version", APIVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if rlErr := c.rateLimiter.CheckRateLimit(resp); rlErr != nil {
			if attempt < MaxRetries {
				continue
			}
			return rlErr
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return apiError(resp.StatusCode, respBody)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

// apiError builds an APIError from an error response body, which carries
// "code" and "message" fields when the API produced it.
func apiError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Code != "" {
			apiErr.Code = parsed.Code
		}
		if strings.TrimSpace(parsed.Message) != "" {
			apiErr.Message = parsed.Message
		}
	}
	return apiErr
}

package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTPClient(server.Client(), server.URL)
}

func TestFetchDatabaseMetadata(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/databases/db1", r.URL.Path)
		assert.Equal(t, APIVersion, r.Header.Get("Notion-Version"))
		_, _ = w.Write([]byte(`{"object":"database","id":"db1","title":[]}`))
	})

	record, err := client.FetchDatabaseMetadata(context.Background(), "db1")
	require.NoError(t, err)
	assert.True(t, record.IsDatabase())
	assert.Equal(t, "db1", record["id"])
}

func TestFetchDatabaseMetadata_NotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"object_not_found","message":"Could not find database"}`))
	})

	_, err := client.FetchDatabaseMetadata(context.Background(), "db1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Equal(t, "Could not find database", apiErr.Message)
}

func TestListRecords_Pagination(t *testing.T) {
	var calls int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db1/query", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, PageSize, body["page_size"])

		if calls == 1 {
			assert.NotContains(t, body, "start_cursor")
			_, _ = w.Write([]byte(`{"results":[{"object":"page","id":"p1"}],"has_more":true,"next_cursor":"cur-2"}`))
			return
		}
		assert.Equal(t, "cur-2", body["start_cursor"])
		_, _ = w.Write([]byte(`{"results":[{"object":"page","id":"p2"}],"has_more":false,"next_cursor":null}`))
	})

	records, err := client.ListRecords(context.Background(), "db1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0]["id"])
	assert.Equal(t, "p2", records[1]["id"])
}

func TestListChildBlocks_MergesPages(t *testing.T) {
	var calls int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/blocks/p1/children", r.URL.Path)
		if calls == 1 {
			_, _ = w.Write([]byte(`{"results":[{"type":"heading_1"}],"has_more":true,"next_cursor":"cur-2"}`))
			return
		}
		assert.Equal(t, "cur-2", r.URL.Query().Get("start_cursor"))
		_, _ = w.Write([]byte(`{"results":[{"type":"paragraph"}],"has_more":false,"next_cursor":null}`))
	})

	blocks, err := client.ListChildBlocks(context.Background(), "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"heading_1"},{"type":"paragraph"}]`, string(blocks))
}

func TestListChildBlocks_Empty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"has_more":false,"next_cursor":null}`))
	})

	blocks, err := client.ListChildBlocks(context.Background(), "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(blocks))
}

func TestDo_RetriesOnRateLimit(t *testing.T) {
	var calls int
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set(HeaderRetryAfter, "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"object":"database","id":"db1"}`))
	})

	record, err := client.FetchDatabaseMetadata(context.Background(), "db1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "db1", record["id"])
}

func TestDo_RateLimitExhausted(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRetryAfter, "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	// Generous bucket so the retries don't slow the test down.
	client.rateLimiter.bucket.SetLimit(1000)

	_, err := client.FetchDatabaseMetadata(context.Background(), "db1")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestEnsureClient_TokenMissing(t *testing.T) {
	client := NewClient(nil)
	_, err := client.FetchDatabaseMetadata(context.Background(), "db1")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestValidateCredentials(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/me", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":"user","id":"bot"}`))
	})

	require.NoError(t, client.ValidateCredentials(context.Background()))
}

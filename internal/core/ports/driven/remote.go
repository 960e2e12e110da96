package driven

import (
	"context"
	"encoding/json"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// RemoteSource fetches raw documents from the remote document-database API.
// Implementations return loosely-typed records; all shape interpretation
// happens in the core's normalisers.
type RemoteSource interface {
	// FetchDatabaseMetadata retrieves a database object (option catalogs,
	// last-edited time). Failure aborts that database's pass only.
	FetchDatabaseMetadata(ctx context.Context, databaseID string) (domain.RawRecord, error)

	// ListRecords retrieves all records of a database in one listing call.
	ListRecords(ctx context.Context, databaseID string) ([]domain.RawRecord, error)

	// ListChildBlocks retrieves the child-block payload of a record,
	// returned verbatim for storage on the item row.
	ListChildBlocks(ctx context.Context, recordID string) (json.RawMessage, error)
}

// BlobRelay turns a remote file URL into a durable public URL. Each upload
// mints a fresh unique destination name, so retries never collide.
type BlobRelay interface {
	// UploadDurable downloads the remote URL and re-uploads it, returning
	// the durable URL. Failure is opaque to the caller.
	UploadDurable(ctx context.Context, url string) (string, error)
}

package driving

import "context"

// SyncOrchestrator coordinates mirroring of source databases.
type SyncOrchestrator interface {
	// Sync runs one pass for a source database.
	Sync(ctx context.Context, databaseID string) error

	// SyncAll runs one pass for every configured source database.
	// A failed database aborts only its own pass; the batch continues.
	SyncAll(ctx context.Context) error

	// Status returns sync status for a source database.
	Status(ctx context.Context, databaseID string) (*SyncStatus, error)
}

// SyncStatus represents the current state of a sync pass.
type SyncStatus struct {
	// DatabaseID identifies the source database.
	DatabaseID string

	// Running indicates if a pass is currently in progress.
	Running bool

	// ItemsProcessed is the count of records classified so far.
	ItemsProcessed int

	// PropertiesChanged is the size of the applied property mutation set.
	PropertiesChanged int

	// ErrorCount is the number of non-fatal errors encountered.
	ErrorCount int
}

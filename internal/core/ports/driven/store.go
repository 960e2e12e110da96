package driven

import (
	"context"
	"time"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// SourceStore persists source database configurations.
type SourceStore interface {
	// Save stores or updates a source database.
	Save(ctx context.Context, source domain.SourceDatabase) error

	// Get retrieves a source database by external id.
	Get(ctx context.Context, id string) (*domain.SourceDatabase, error)

	// List returns all configured source databases.
	List(ctx context.Context) ([]domain.SourceDatabase, error)

	// Delete removes a source database and its mirrored rows.
	Delete(ctx context.Context, id string) error

	// AdvanceLastSynced records the completion time of a successful pass.
	AdvanceLastSynced(ctx context.Context, id string, t time.Time) error
}

// MirrorStore reads the persisted projection and applies mutation sets.
// Writes are best-effort: a failure inside a pass is logged by the caller
// and does not roll back prior writes; no transaction spans a pass.
type MirrorStore interface {
	// CurrentProperties returns the persisted property entities of a
	// database as a flat list.
	CurrentProperties(ctx context.Context, databaseID string) ([]domain.PropertyEntity, error)

	// CurrentItems returns the persisted item projection of a database.
	CurrentItems(ctx context.Context, databaseID string) ([]domain.ItemProjection, error)

	// ApplyPropertyMutations inserts, updates and deletes property rows.
	// Adds also register an object row for the entity.
	ApplyPropertyMutations(ctx context.Context, databaseID string, muts domain.MutationSet[domain.PropertyEntity]) error

	// ApplyItemMutations applies item adds and deletes plus the relation
	// rows of added items. Deleting an item cascades its relation rows.
	ApplyItemMutations(ctx context.Context, databaseID string, muts domain.MutationSet[domain.ItemEntity], relations []domain.ItemPropertyRelation) error
}

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pagemirror/pagemirror/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// source and mirror store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.pagemirror/data/mirror.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagemirror", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mirror.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// MirrorStore returns a MirrorStore interface backed by this store.
func (s *Store) MirrorStore() driven.MirrorStore {
	return &mirrorStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores or updates a source database.
func (s *sourceStore) Save(ctx context.Context, source domain.SourceDatabase) error {
	fieldsJSON, err := json.Marshal(source.Fields)
	if err != nil {
		return fmt.Errorf("marshalling field map: %w", err)
	}

	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO source_databases (id, table_name, field_map, last_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			table_name = excluded.table_name,
			field_map = excluded.field_map,
			updated_at = excluded.updated_at
	`, source.ID, source.TableName, string(fieldsJSON),
		nullTime(source.LastSynced), source.CreatedAt, source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving source database: %w", err)
	}
	return nil
}

// Get retrieves a source database by external id.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.SourceDatabase, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, table_name, field_map, last_synced, created_at, updated_at
		FROM source_databases WHERE id = ?
	`, id)

	source, err := scanSource(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source database: %w", err)
	}
	return source, nil
}

// List returns all configured source databases, ordered by id.
func (s *sourceStore) List(ctx context.Context) ([]domain.SourceDatabase, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, table_name, field_map, last_synced, created_at, updated_at
		FROM source_databases ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying source databases: %w", err)
	}
	defer rows.Close()

	var sources []domain.SourceDatabase //nolint:prealloc // size unknown from query
	for rows.Next() {
		source, err := scanSource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning source database: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source databases: %w", err)
	}

	return sources, nil
}

// Delete removes a source database and, via cascade, its mirrored rows.
func (s *sourceStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM source_databases WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting source database: %w", err)
	}
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM mirror_objects WHERE database_id = ?", id); err != nil {
		return fmt.Errorf("deleting registry rows: %w", err)
	}
	return nil
}

// AdvanceLastSynced records the completion time of a successful pass.
func (s *sourceStore) AdvanceLastSynced(ctx context.Context, id string, t time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE source_databases SET last_synced = ?, updated_at = ? WHERE id = ?
	`, t.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("advancing last synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advancing last synced: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanSource scans one source database row.
func scanSource(scan func(...any) error) (*domain.SourceDatabase, error) {
	var source domain.SourceDatabase
	var fieldsJSON string
	var lastSynced sql.NullTime
	if err := scan(&source.ID, &source.TableName, &fieldsJSON,
		&lastSynced, &source.CreatedAt, &source.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &source.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling field map: %w", err)
	}
	if lastSynced.Valid {
		t := lastSynced.Time.UTC()
		source.LastSynced = &t
	}
	source.CreatedAt = source.CreatedAt.UTC()
	source.UpdatedAt = source.UpdatedAt.UTC()

	return &source, nil
}

// ==================== Mirror Store ====================

// mirrorStore implements driven.MirrorStore.
type mirrorStore struct {
	store *Store
}

var _ driven.MirrorStore = (*mirrorStore)(nil)

// CurrentProperties returns the persisted property entities of a database.
func (m *mirrorStore) CurrentProperties(ctx context.Context, databaseID string) ([]domain.PropertyEntity, error) {
	rows, err := m.store.db.QueryContext(ctx, `
		SELECT id, label, property_name, metadata
		FROM properties WHERE database_id = ? ORDER BY id
	`, databaseID)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var entities []domain.PropertyEntity //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entity domain.PropertyEntity
		var metadata sql.NullString
		if err := rows.Scan(&entity.ID, &entity.Label, &entity.PropertyName, &metadata); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &entity.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling property metadata: %w", err)
			}
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return entities, nil
}

// CurrentItems returns the persisted item projection of a database.
func (m *mirrorStore) CurrentItems(ctx context.Context, databaseID string) ([]domain.ItemProjection, error) {
	rows, err := m.store.db.QueryContext(ctx, `
		SELECT id, updated_at FROM items WHERE database_id = ? ORDER BY id
	`, databaseID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var projections []domain.ItemProjection //nolint:prealloc // size unknown from query
	for rows.Next() {
		var projection domain.ItemProjection
		var updatedAt sql.NullTime
		if err := rows.Scan(&projection.ID, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if updatedAt.Valid {
			projection.UpdatedAt = updatedAt.Time.UTC()
		}
		projections = append(projections, projection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return projections, nil
}

// ApplyPropertyMutations applies a property mutation set in one transaction.
func (m *mirrorStore) ApplyPropertyMutations(ctx context.Context, databaseID string, muts domain.MutationSet[domain.PropertyEntity]) error {
	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	for _, entity := range muts.Add {
		if err := upsertProperty(ctx, tx, databaseID, entity, now); err != nil {
			return err
		}
	}
	for _, entity := range muts.Update {
		if err := upsertProperty(ctx, tx, databaseID, entity, now); err != nil {
			return err
		}
	}

	for _, id := range muts.Delete {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM properties WHERE database_id = ? AND id = ?
		`, databaseID, id); err != nil {
			return fmt.Errorf("deleting property %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM item_property_relations WHERE database_id = ? AND property_id = ?
		`, databaseID, id); err != nil {
			return fmt.Errorf("deleting relations of property %s: %w", id, err)
		}
		if err := unregisterObject(ctx, tx, databaseID, id, "property"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing property mutations: %w", err)
	}
	return nil
}

// ApplyItemMutations applies an item mutation set and the relation rows of
// added items in one transaction. Deletes run before adds; a superseded
// item appears in both lists.
func (m *mirrorStore) ApplyItemMutations(ctx context.Context, databaseID string, muts domain.MutationSet[domain.ItemEntity], relations []domain.ItemPropertyRelation) error {
	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, id := range muts.Delete {
		// Relation rows cascade with the item.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM items WHERE database_id = ? AND id = ?
		`, databaseID, id); err != nil {
			return fmt.Errorf("deleting item %s: %w", id, err)
		}
		if err := unregisterObject(ctx, tx, databaseID, id, "item"); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for _, item := range muts.Add {
		attributes, err := json.Marshal(item.Attributes)
		if err != nil {
			return fmt.Errorf("marshalling attributes of item %s: %w", item.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (database_id, id, label, attributes, blocks, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, databaseID, item.ID, item.Label, string(attributes),
			nullJSON(item.Blocks), item.CreatedAt.UTC(), item.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", item.ID, err)
		}
		if err := registerObject(ctx, tx, databaseID, item.ID, "item", now); err != nil {
			return err
		}
	}

	for _, rel := range relations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_property_relations (database_id, item_id, property_id)
			VALUES (?, ?, ?)
			ON CONFLICT(database_id, item_id, property_id) DO NOTHING
		`, databaseID, rel.ItemID, rel.PropertyID); err != nil {
			return fmt.Errorf("inserting relation %s->%s: %w", rel.ItemID, rel.PropertyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item mutations: %w", err)
	}
	return nil
}

// upsertProperty inserts or updates one property row and its registry row.
func upsertProperty(ctx context.Context, tx *sql.Tx, databaseID string, entity domain.PropertyEntity, now time.Time) error {
	metadata, err := marshalMetadata(entity.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO properties (database_id, id, label, property_name, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(database_id, id) DO UPDATE SET
			label = excluded.label,
			property_name = excluded.property_name,
			metadata = excluded.metadata
	`, databaseID, entity.ID, entity.Label, entity.PropertyName, metadata)
	if err != nil {
		return fmt.Errorf("upserting property %s: %w", entity.ID, err)
	}
	return registerObject(ctx, tx, databaseID, entity.ID, "property", now)
}

// registerObject upserts the registry row of a mirrored entity.
func registerObject(ctx context.Context, tx *sql.Tx, databaseID, objectID, kind string, t time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO mirror_objects (database_id, object_id, kind, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(database_id, object_id, kind) DO UPDATE SET
			last_updated = excluded.last_updated
	`, databaseID, objectID, kind, t)
	if err != nil {
		return fmt.Errorf("registering %s %s: %w", kind, objectID, err)
	}
	return nil
}

// unregisterObject removes the registry row of a mirrored entity.
func unregisterObject(ctx context.Context, tx *sql.Tx, databaseID, objectID, kind string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM mirror_objects WHERE database_id = ? AND object_id = ? AND kind = ?
	`, databaseID, objectID, kind)
	if err != nil {
		return fmt.Errorf("unregistering %s %s: %w", kind, objectID, err)
	}
	return nil
}

// marshalMetadata marshals optional property metadata, NULL when absent.
func marshalMetadata(metadata *domain.PropertyMetadata) (any, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshalling property metadata: %w", err)
	}
	return string(data), nil
}

// nullTime converts an optional time for storage.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// nullJSON converts an optional raw JSON payload for storage.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
	"github.com/pagemirror/pagemirror/internal/core/ports/driving"
	"github.com/pagemirror/pagemirror/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates one mirroring pass per source database:
// metadata fetch, normalisation, grouping, reconciliation and mutation
// application. Store write failures are logged and the pass continues
// best-effort; no transaction spans a pass. The database-level cursor is
// advanced as the last step of a successful pass, so a cancelled pass is
// naturally retried in full (at-least-once semantics).
type SyncOrchestrator struct {
	sources driven.SourceStore
	mirror  driven.MirrorStore
	remote  driven.RemoteSource

	records    *RecordNormalizer
	grouping   *GroupingMapper
	properties *PropertyReconciler
	items      *ItemReconciler

	// mu guards activeSyncs and the status structs it holds; the CLI polls
	// Status from another goroutine while a pass runs.
	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	sources driven.SourceStore,
	mirror driven.MirrorStore,
	remote driven.RemoteSource,
	relay driven.BlobRelay,
) *SyncOrchestrator {
	props := NewPropertyNormalizer(relay)
	return &SyncOrchestrator{
		sources:     sources,
		mirror:      mirror,
		remote:      remote,
		records:     NewRecordNormalizer(props),
		grouping:    NewGroupingMapper(props),
		properties:  NewPropertyReconciler(),
		items:       NewItemReconciler(),
		activeSyncs: make(map[string]*driving.SyncStatus),
	}
}

// Sync runs one pass for a source database.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Sync(ctx context.Context, databaseID string) error {
	if err := o.startStatus(databaseID); err != nil {
		return fmt.Errorf("sync %s: %w", databaseID, err)
	}
	defer o.clearStatus(databaseID)

	source, err := o.sources.Get(ctx, databaseID)
	if err != nil {
		return fmt.Errorf("get source database: %w", err)
	}

	logger.Info("Starting sync for database %s (%s)", databaseID, source.TableName)

	// 1. Fetch and normalise the database object.
	rawMetadata, err := o.remote.FetchDatabaseMetadata(ctx, databaseID)
	if err != nil {
		return fmt.Errorf("fetch database metadata: %w", err)
	}
	metadata, err := o.records.Normalize(rawMetadata)
	if err != nil {
		return fmt.Errorf("normalise database metadata: %w", err)
	}

	// 2. Short-circuit when the database hasn't changed since the last pass.
	if source.LastSynced != nil && !metadata.UpdatedAt.After(*source.LastSynced) {
		logger.Info("Database %s unchanged since %s, skipping", databaseID, source.LastSynced.Format(time.RFC3339))
		return nil
	}

	// 3. Reconcile the option catalogs into property rows.
	if err := o.syncProperties(ctx, source, metadata); err != nil {
		return err
	}

	// 4. Reconcile the records into item rows.
	if err := o.syncItems(ctx, source); err != nil {
		return err
	}

	// 5. Advance the cursor. Deliberately the last statement of the pass.
	if err := o.sources.AdvanceLastSynced(ctx, databaseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("advance last synced: %w", err)
	}

	final, _ := o.Status(ctx, databaseID)
	logger.Info("Sync complete for %s: %d items, %d property changes, %d errors",
		databaseID, final.ItemsProcessed, final.PropertiesChanged, final.ErrorCount)
	return nil
}

// syncProperties groups the catalog fields of the database object and
// applies the resulting property mutation set.
func (o *SyncOrchestrator) syncProperties(ctx context.Context, source *domain.SourceDatabase, metadata *domain.NormalizedRecord) error {
	grouped, err := o.grouping.Group(ctx, metadata.Fields, source.Fields, false)
	if err != nil {
		return fmt.Errorf("group database metadata: %w", err)
	}

	current, err := o.mirror.CurrentProperties(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("load current properties: %w", err)
	}

	muts := o.properties.Reconcile(current, grouped.Properties)
	o.updateStatus(source.ID, func(s *driving.SyncStatus) { s.PropertiesChanged = muts.Size() })
	if muts.Empty() {
		return nil
	}

	logger.Debug("Property mutations for %s: %d add, %d update, %d delete",
		source.ID, len(muts.Add), len(muts.Update), len(muts.Delete))
	if err := o.mirror.ApplyPropertyMutations(ctx, source.ID, muts); err != nil {
		logger.Warn("Applying property mutations for %s: %v", source.ID, err)
		o.updateStatus(source.ID, func(s *driving.SyncStatus) { s.ErrorCount++ })
	}
	return nil
}

// syncItems lists and normalises all records of the database, reconciles
// them against the stored projection and applies the item mutation set,
// including the relation rows and child blocks of added items.
func (o *SyncOrchestrator) syncItems(ctx context.Context, source *domain.SourceDatabase) error {
	rawRecords, err := o.remote.ListRecords(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	incoming := make(map[string]domain.NormalizedRecord, len(rawRecords))
	for _, raw := range rawRecords {
		record, err := o.records.Normalize(raw)
		if err != nil {
			return fmt.Errorf("normalise record: %w", err)
		}
		incoming[record.ID] = *record
	}

	current, err := o.mirror.CurrentItems(ctx, source.ID)
	if err != nil {
		return fmt.Errorf("load current items: %w", err)
	}

	muts := o.items.Reconcile(current, incoming, source.LastSynced)
	o.updateStatus(source.ID, func(s *driving.SyncStatus) { s.ItemsProcessed = len(incoming) })

	itemMuts := domain.MutationSet[domain.ItemEntity]{Delete: muts.Delete}
	var relations []domain.ItemPropertyRelation
	for _, record := range muts.Add {
		item, itemRelations, err := o.buildItem(ctx, source, record)
		if err != nil {
			return err
		}
		itemMuts.Add = append(itemMuts.Add, *item)
		relations = append(relations, itemRelations...)
	}

	if itemMuts.Empty() {
		return nil
	}

	logger.Debug("Item mutations for %s: %d add, %d delete, %d relations",
		source.ID, len(itemMuts.Add), len(itemMuts.Delete), len(relations))
	if err := o.mirror.ApplyItemMutations(ctx, source.ID, itemMuts, relations); err != nil {
		logger.Warn("Applying item mutations for %s: %v", source.ID, err)
		o.updateStatus(source.ID, func(s *driving.SyncStatus) { s.ErrorCount++ })
	}
	return nil
}

// buildItem turns an added record into an item entity: grouping with
// attributes included, one relation per referenced property entity, and
// the record's child blocks. Block fetch failure costs the blocks only,
// not the item.
func (o *SyncOrchestrator) buildItem(ctx context.Context, source *domain.SourceDatabase, record domain.NormalizedRecord) (*domain.ItemEntity, []domain.ItemPropertyRelation, error) {
	grouped, err := o.grouping.Group(ctx, record.Fields, source.Fields, true)
	if err != nil {
		return nil, nil, fmt.Errorf("group record %s: %w", record.ID, err)
	}

	item := &domain.ItemEntity{
		ID:         record.ID,
		Label:      record.Title,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
		Attributes: grouped.Attributes,
	}

	var relations []domain.ItemPropertyRelation
	for _, bucket := range grouped.Properties {
		for _, entity := range bucket {
			item.PropertyIDs = append(item.PropertyIDs, entity.ID)
			relations = append(relations, domain.ItemPropertyRelation{
				ItemID:     record.ID,
				PropertyID: entity.ID,
			})
		}
	}

	blocks, err := o.remote.ListChildBlocks(ctx, record.ID)
	if err != nil {
		logger.Warn("Fetching child blocks for %s: %v", record.ID, err)
		o.updateStatus(source.ID, func(s *driving.SyncStatus) { s.ErrorCount++ })
	} else {
		item.Blocks = blocks
	}

	return item, relations, nil
}

// SyncAll runs one pass for every configured source database.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) error {
	sources, err := o.sources.List(ctx)
	if err != nil {
		return fmt.Errorf("list source databases: %w", err)
	}

	var errs []error
	for _, source := range sources {
		if err := o.Sync(ctx, source.ID); err != nil {
			logger.Warn("Sync %s failed: %v", source.ID, err)
			errs = append(errs, fmt.Errorf("sync %s: %w", source.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Status returns sync status for a source database.
func (o *SyncOrchestrator) Status(_ context.Context, databaseID string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeSyncs[databaseID]; ok {
		// Return a copy to avoid race conditions
		return &driving.SyncStatus{
			DatabaseID:        status.DatabaseID,
			Running:           status.Running,
			ItemsProcessed:    status.ItemsProcessed,
			PropertiesChanged: status.PropertiesChanged,
			ErrorCount:        status.ErrorCount,
		}, nil
	}

	// Not running - return idle status
	return &driving.SyncStatus{
		DatabaseID: databaseID,
		Running:    false,
	}, nil
}

// startStatus registers a fresh status for a database, rejecting a second
// concurrent pass for the same database.
func (o *SyncOrchestrator) startStatus(databaseID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.activeSyncs[databaseID]; ok {
		return domain.ErrSyncInProgress
	}
	o.activeSyncs[databaseID] = &driving.SyncStatus{
		DatabaseID: databaseID,
		Running:    true,
	}
	return nil
}

// updateStatus mutates a running status under the orchestrator lock.
func (o *SyncOrchestrator) updateStatus(databaseID string, update func(*driving.SyncStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeSyncs[databaseID]; ok {
		update(status)
	}
}

// clearStatus removes the sync status for a database.
func (o *SyncOrchestrator) clearStatus(databaseID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeSyncs, databaseID)
}

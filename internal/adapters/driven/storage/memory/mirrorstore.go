package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

// Ensure MirrorStore implements the interface.
var _ driven.MirrorStore = (*MirrorStore)(nil)

// MirrorStore is an in-memory implementation of driven.MirrorStore.
// Useful for tests and dry runs; the SQLite adapter is the real one.
type MirrorStore struct {
	mu         sync.RWMutex
	properties map[string]map[string]domain.PropertyEntity // databaseID -> id -> entity
	items      map[string]map[string]domain.ItemEntity     // databaseID -> id -> item
	relations  map[string][]domain.ItemPropertyRelation    // databaseID -> relations
}

// NewMirrorStore creates a new in-memory mirror store.
func NewMirrorStore() *MirrorStore {
	return &MirrorStore{
		properties: make(map[string]map[string]domain.PropertyEntity),
		items:      make(map[string]map[string]domain.ItemEntity),
		relations:  make(map[string][]domain.ItemPropertyRelation),
	}
}

// CurrentProperties returns the stored property entities of a database.
func (s *MirrorStore) CurrentProperties(_ context.Context, databaseID string) ([]domain.PropertyEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entities := make([]domain.PropertyEntity, 0, len(s.properties[databaseID]))
	for _, entity := range s.properties[databaseID] {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities, nil
}

// CurrentItems returns the stored item projection of a database.
func (s *MirrorStore) CurrentItems(_ context.Context, databaseID string) ([]domain.ItemProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projections := make([]domain.ItemProjection, 0, len(s.items[databaseID]))
	for _, item := range s.items[databaseID] {
		projections = append(projections, domain.ItemProjection{ID: item.ID, UpdatedAt: item.UpdatedAt})
	}
	sort.Slice(projections, func(i, j int) bool { return projections[i].ID < projections[j].ID })
	return projections, nil
}

// ApplyPropertyMutations applies a property mutation set.
func (s *MirrorStore) ApplyPropertyMutations(_ context.Context, databaseID string, muts domain.MutationSet[domain.PropertyEntity]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.properties[databaseID]
	if bucket == nil {
		bucket = make(map[string]domain.PropertyEntity)
		s.properties[databaseID] = bucket
	}
	for _, entity := range muts.Add {
		bucket[entity.ID] = entity
	}
	for _, entity := range muts.Update {
		bucket[entity.ID] = entity
	}
	for _, id := range muts.Delete {
		delete(bucket, id)
	}
	return nil
}

// ApplyItemMutations applies an item mutation set and the relation rows of
// added items. Deleting an item drops its relation rows too.
func (s *MirrorStore) ApplyItemMutations(_ context.Context, databaseID string, muts domain.MutationSet[domain.ItemEntity], relations []domain.ItemPropertyRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.items[databaseID]
	if bucket == nil {
		bucket = make(map[string]domain.ItemEntity)
		s.items[databaseID] = bucket
	}

	// Deletes before adds: a superseded item appears in both lists.
	for _, id := range muts.Delete {
		delete(bucket, id)
		kept := s.relations[databaseID][:0]
		for _, rel := range s.relations[databaseID] {
			if rel.ItemID != id {
				kept = append(kept, rel)
			}
		}
		s.relations[databaseID] = kept
	}
	for _, item := range muts.Add {
		bucket[item.ID] = item
	}
	s.relations[databaseID] = append(s.relations[databaseID], relations...)
	return nil
}

// Relations returns the stored relation rows of a database, for tests.
func (s *MirrorStore) Relations(databaseID string) []domain.ItemPropertyRelation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ItemPropertyRelation, len(s.relations[databaseID]))
	copy(out, s.relations[databaseID])
	return out
}

// Items returns the stored items of a database, for tests.
func (s *MirrorStore) Items(databaseID string) []domain.ItemEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.ItemEntity, 0, len(s.items[databaseID]))
	for _, item := range s.items[databaseID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

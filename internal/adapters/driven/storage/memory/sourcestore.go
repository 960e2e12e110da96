package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]domain.SourceDatabase
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources: make(map[string]domain.SourceDatabase),
	}
}

// Save stores or updates a source database.
func (s *SourceStore) Save(_ context.Context, source domain.SourceDatabase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now
	s.sources[source.ID] = source
	return nil
}

// Get retrieves a source database by external id.
func (s *SourceStore) Get(_ context.Context, id string) (*domain.SourceDatabase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// List returns all configured source databases, ordered by id.
func (s *SourceStore) List(_ context.Context) ([]domain.SourceDatabase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := make([]domain.SourceDatabase, 0, len(s.sources))
	for _, source := range s.sources {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

// Delete removes a source database.
func (s *SourceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
	return nil
}

// AdvanceLastSynced records the completion time of a successful pass.
func (s *SourceStore) AdvanceLastSynced(_ context.Context, id string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	source, ok := s.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	source.LastSynced = &t
	s.sources[id] = source
	return nil
}

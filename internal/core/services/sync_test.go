package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemirror/pagemirror/internal/adapters/driven/storage/memory"
	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// mockRemote is a canned RemoteSource for orchestrator tests. A non-zero
// listDelay stretches the pass so tests can observe it mid-flight.
type mockRemote struct {
	metadata     map[string]domain.RawRecord
	records      map[string][]domain.RawRecord
	blocks       json.RawMessage
	failDatabase string
	listDelay    time.Duration
	listCalls    int
}

func (m *mockRemote) FetchDatabaseMetadata(_ context.Context, databaseID string) (domain.RawRecord, error) {
	if databaseID == m.failDatabase {
		return nil, errors.New("remote unavailable")
	}
	raw, ok := m.metadata[databaseID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

func (m *mockRemote) ListRecords(_ context.Context, databaseID string) ([]domain.RawRecord, error) {
	if m.listDelay > 0 {
		time.Sleep(m.listDelay)
	}
	m.listCalls++
	return m.records[databaseID], nil
}

func (m *mockRemote) ListChildBlocks(_ context.Context, _ string) (json.RawMessage, error) {
	return m.blocks, nil
}

func databaseObject(id string, edited time.Time) domain.RawRecord {
	return domain.RawRecord{
		"object":           "database",
		"id":               id,
		"last_edited_time": edited.Format(time.RFC3339),
		"title":            []any{map[string]any{"plain_text": "Projects"}},
		"properties": map[string]any{
			"Techstack": map[string]any{
				"type": "multi_select",
				"multi_select": map[string]any{
					"options": []any{
						map[string]any{"id": "opt-go", "name": "Go"},
						map[string]any{"id": "opt-rust", "name": "Rust"},
					},
				},
			},
		},
	}
}

func pageObject(id, title string, edited time.Time) domain.RawRecord {
	return domain.RawRecord{
		"object":           "page",
		"id":               id,
		"created_time":     edited.Add(-time.Hour).Format(time.RFC3339),
		"last_edited_time": edited.Format(time.RFC3339),
		"properties": map[string]any{
			"title": map[string]any{
				"type":  "title",
				"title": []any{map[string]any{"plain_text": title}},
			},
			"Techstack": map[string]any{
				"type": "multi_select",
				"multi_select": []any{
					map[string]any{"id": "opt-go", "name": "Go"},
				},
			},
			"Description": map[string]any{
				"type":      "rich_text",
				"rich_text": []any{map[string]any{"plain_text": "a side project"}},
			},
		},
	}
}

func testSource(id string) domain.SourceDatabase {
	return domain.SourceDatabase{
		ID:        id,
		TableName: "projects",
		Fields: domain.FieldMap{
			Properties: map[string]string{"Techstack": "techstack"},
			Attributes: map[string]string{"Description": "description"},
		},
	}
}

func TestSync_FullPass(t *testing.T) {
	edited := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sources := memory.NewSourceStore()
	mirror := memory.NewMirrorStore()
	remote := &mockRemote{
		metadata: map[string]domain.RawRecord{"db1": databaseObject("db1", edited)},
		records: map[string][]domain.RawRecord{
			"db1": {pageObject("page-1", "My Project", edited)},
		},
		blocks: json.RawMessage(`[{"type":"paragraph"}]`),
	}

	ctx := context.Background()
	require.NoError(t, sources.Save(ctx, testSource("db1")))

	orchestrator := NewSyncOrchestrator(sources, mirror, remote, &mockRelay{})
	require.NoError(t, orchestrator.Sync(ctx, "db1"))

	props, err := mirror.CurrentProperties(ctx, "db1")
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "opt-go", props[0].ID)
	assert.Equal(t, "techstack", props[0].PropertyName)

	items := mirror.Items("db1")
	require.Len(t, items, 1)
	assert.Equal(t, "My Project", items[0].Label)
	assert.Equal(t, []domain.AttributeValue{domain.StringAttr("a side project")}, items[0].Attributes["description"])
	assert.JSONEq(t, `[{"type":"paragraph"}]`, string(items[0].Blocks))

	relations := mirror.Relations("db1")
	require.Len(t, relations, 1)
	assert.Equal(t, domain.ItemPropertyRelation{ItemID: "page-1", PropertyID: "opt-go"}, relations[0])

	source, err := sources.Get(ctx, "db1")
	require.NoError(t, err)
	require.NotNil(t, source.LastSynced, "cursor advances after a successful pass")
}

func TestSync_ShortCircuitWhenUnchanged(t *testing.T) {
	edited := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sources := memory.NewSourceStore()
	mirror := memory.NewMirrorStore()
	remote := &mockRemote{
		metadata: map[string]domain.RawRecord{"db1": databaseObject("db1", edited)},
	}

	ctx := context.Background()
	source := testSource("db1")
	synced := edited.Add(time.Hour)
	source.LastSynced = &synced
	require.NoError(t, sources.Save(ctx, source))

	orchestrator := NewSyncOrchestrator(sources, mirror, remote, &mockRelay{})
	require.NoError(t, orchestrator.Sync(ctx, "db1"))

	assert.Zero(t, remote.listCalls, "an unchanged database never lists records")
	assert.Empty(t, mirror.Items("db1"))
}

func TestSync_SecondPassIsNoOp(t *testing.T) {
	edited := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sources := memory.NewSourceStore()
	mirror := memory.NewMirrorStore()
	remote := &mockRemote{
		metadata: map[string]domain.RawRecord{"db1": databaseObject("db1", edited)},
		records: map[string][]domain.RawRecord{
			"db1": {pageObject("page-1", "My Project", edited)},
		},
	}

	ctx := context.Background()
	require.NoError(t, sources.Save(ctx, testSource("db1")))

	orchestrator := NewSyncOrchestrator(sources, mirror, remote, &mockRelay{})
	require.NoError(t, orchestrator.Sync(ctx, "db1"))
	require.NoError(t, orchestrator.Sync(ctx, "db1"))

	assert.Equal(t, 1, remote.listCalls, "the cursor short-circuits the second pass")
	assert.Len(t, mirror.Items("db1"), 1)
}

func TestSync_UnknownSource(t *testing.T) {
	orchestrator := NewSyncOrchestrator(memory.NewSourceStore(), memory.NewMirrorStore(), &mockRemote{}, &mockRelay{})
	err := orchestrator.Sync(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncAll_ContinuesPastFailures(t *testing.T) {
	edited := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sources := memory.NewSourceStore()
	mirror := memory.NewMirrorStore()
	remote := &mockRemote{
		metadata: map[string]domain.RawRecord{
			"db1": databaseObject("db1", edited),
			"db2": databaseObject("db2", edited),
		},
		records: map[string][]domain.RawRecord{
			"db2": {pageObject("page-2", "Other", edited)},
		},
		failDatabase: "db1",
	}

	ctx := context.Background()
	require.NoError(t, sources.Save(ctx, testSource("db1")))
	require.NoError(t, sources.Save(ctx, testSource("db2")))

	orchestrator := NewSyncOrchestrator(sources, mirror, remote, &mockRelay{})
	err := orchestrator.SyncAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db1")

	// The failure of one database never blocks the next.
	assert.Len(t, mirror.Items("db2"), 1)
}

func TestStatus_IdleWhenNotRunning(t *testing.T) {
	orchestrator := NewSyncOrchestrator(memory.NewSourceStore(), memory.NewMirrorStore(), &mockRemote{}, &mockRelay{})
	status, err := orchestrator.Status(context.Background(), "db1")
	require.NoError(t, err)
	assert.Equal(t, "db1", status.DatabaseID)
	assert.False(t, status.Running)
}

// slowSyncFixture returns an orchestrator whose pass takes long enough for
// another goroutine to observe it running.
func slowSyncFixture(t *testing.T) *SyncOrchestrator {
	t.Helper()
	edited := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sources := memory.NewSourceStore()
	remote := &mockRemote{
		metadata: map[string]domain.RawRecord{"db1": databaseObject("db1", edited)},
		records: map[string][]domain.RawRecord{
			"db1": {pageObject("page-1", "My Project", edited)},
		},
		blocks:    json.RawMessage(`[]`),
		listDelay: 50 * time.Millisecond,
	}
	require.NoError(t, sources.Save(context.Background(), testSource("db1")))
	return NewSyncOrchestrator(sources, memory.NewMirrorStore(), remote, &mockRelay{})
}

func TestStatus_ReadableWhileSyncRunning(t *testing.T) {
	orchestrator := slowSyncFixture(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- orchestrator.Sync(ctx, "db1") }()

	require.Eventually(t, func() bool {
		status, err := orchestrator.Status(ctx, "db1")
		return err == nil && status.Running
	}, 2*time.Second, time.Millisecond)

	// Keep polling until the pass completes.
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			status, err := orchestrator.Status(ctx, "db1")
			require.NoError(t, err)
			assert.False(t, status.Running)
			return
		default:
			_, err := orchestrator.Status(ctx, "db1")
			require.NoError(t, err)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSync_RejectsConcurrentPass(t *testing.T) {
	orchestrator := slowSyncFixture(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- orchestrator.Sync(ctx, "db1") }()

	require.Eventually(t, func() bool {
		status, err := orchestrator.Status(ctx, "db1")
		return err == nil && status.Running
	}, 2*time.Second, time.Millisecond)

	err := orchestrator.Sync(ctx, "db1")
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	require.NoError(t, <-done)

	// The guard clears with the pass.
	assert.NoError(t, orchestrator.Sync(ctx, "db1"))
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pagemirror/pagemirror/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	syncErr    error
	syncAllErr error
	syncedIDs  []string
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, databaseID string) error {
	m.syncedIDs = append(m.syncedIDs, databaseID)
	return m.syncErr
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) error {
	return m.syncAllErr
}

func (m *mockSyncOrchestrator) Status(_ context.Context, _ string) (*driving.SyncStatus, error) {
	return nil, nil
}

func setupSyncTest(mock *mockSyncOrchestrator) func() {
	oldSync := syncOrchestrator
	syncOrchestrator = mock
	return func() {
		syncOrchestrator = oldSync
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [database-id]", syncCmd.Use)
}

func TestSyncCmd_ExecutesWithoutArgs(t *testing.T) {
	cleanup := setupSyncTest(&mockSyncOrchestrator{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Synchronising all databases...")
}

func TestSyncCmd_ExecutesWithDatabaseID(t *testing.T) {
	mock := &mockSyncOrchestrator{}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "db-456"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Synchronising database: db-456")
	assert.Equal(t, []string{"db-456"}, mock.syncedIDs)
}

func TestSyncCmd_PropagatesFailure(t *testing.T) {
	cleanup := setupSyncTest(&mockSyncOrchestrator{syncAllErr: errors.New("remote unavailable")})
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "remote unavailable")
}

func TestSyncCmd_Unconfigured(t *testing.T) {
	oldSync := syncOrchestrator
	syncOrchestrator = nil
	defer func() { syncOrchestrator = oldSync }()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagemirror/pagemirror/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [database-id]",
	Short: "Synchronise source databases into the mirror",
	Long: `Runs one mirroring pass for configured source databases.
If a database ID is provided, only that database is synchronised.
Otherwise, all configured databases are synchronised.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		databaseID := args[0]
		cmd.Printf("Synchronising database: %s...\n", databaseID)

		if err := syncWithProgress(ctx, cmd, syncOrchestrator, databaseID); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Printf("Database %s synchronised successfully.\n", databaseID)
	} else {
		cmd.Println("Synchronising all databases...")

		if err := syncOrchestrator.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Println("All databases synchronised successfully.")
	}

	return nil
}

// syncWithProgress runs sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	databaseID string,
) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- syncOrch.Sync(ctx, databaseID)
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case err := <-errCh:
			// Print final status (ignore status error - best effort)
			status, statusErr := syncOrch.Status(ctx, databaseID)
			if statusErr == nil && status != nil && status.ItemsProcessed > 0 {
				cmd.Printf("\rProcessed %d items (%d property changes, %d errors)\n",
					status.ItemsProcessed, status.PropertiesChanged, status.ErrorCount)
			}
			return err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := syncOrch.Status(ctx, databaseID)
			if statusErr == nil && status != nil && status.ItemsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d items", status.ItemsProcessed)
				lastCount = status.ItemsProcessed
			}
		}
	}
}

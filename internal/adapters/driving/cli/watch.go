package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagemirror/pagemirror/internal/logger"
)

// sourceWatcher reloads source definitions while watch mode runs; wired by
// the composition root.
var sourceWatcher func(ctx context.Context) error

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mirror continuously until interrupted",
	Long: `Runs a mirroring pass for all configured databases on an interval,
reloading source definitions when the configuration file changes.`,
	RunE: runWatch,
}

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(
		&watchInterval, "interval", 5*time.Minute, "Time between mirroring passes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sourceWatcher != nil {
		go func() {
			if err := sourceWatcher(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Config watch stopped: %v", err)
			}
		}()
	}

	cmd.Printf("Mirroring every %s; press Ctrl+C to stop.\n", watchInterval)
	for {
		if err := syncOrchestrator.SyncAll(ctx); err != nil {
			logger.Warn("Pass failed: %v", err)
		}

		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil
		case <-time.After(watchInterval):
		}
	}
}

// SetSourceWatcher wires the config watcher run alongside watch mode.
func SetSourceWatcher(watch func(ctx context.Context) error) {
	sourceWatcher = watch
}

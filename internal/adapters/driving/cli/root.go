// Package cli implements the pagemirror command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
	"github.com/pagemirror/pagemirror/internal/core/ports/driving"
	"github.com/pagemirror/pagemirror/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Services wired by the composition root before Execute.
var (
	syncOrchestrator    driving.SyncOrchestrator
	sourceStore         driven.SourceStore
	configStore         driven.ConfigStore
	validateCredentials func(ctx context.Context) error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pagemirror",
	Short: "Mirror remote document databases into a relational store",
	Long: `pagemirror reconciles remote document databases into relational
tables: select options become property rows, pages become immutable item
snapshots, and file attachments are relayed to durable storage.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetSyncOrchestrator wires the sync orchestrator.
func SetSyncOrchestrator(orchestrator driving.SyncOrchestrator) {
	syncOrchestrator = orchestrator
}

// SetSourceStore wires the source store.
func SetSourceStore(store driven.SourceStore) {
	sourceStore = store
}

// SetConfigStore wires the config store.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// SetCredentialsValidator wires the credentials check used by auth status.
func SetCredentialsValidator(validate func(ctx context.Context) error) {
	validateCredentials = validate
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pagemirror/pagemirror/internal/adapters/driven/auth"
	"github.com/pagemirror/pagemirror/internal/adapters/driven/blob"
	configfile "github.com/pagemirror/pagemirror/internal/adapters/driven/config/file"
	"github.com/pagemirror/pagemirror/internal/adapters/driven/storage/sqlite"
	"github.com/pagemirror/pagemirror/internal/adapters/driving/cli"
	"github.com/pagemirror/pagemirror/internal/connectors/notion"
	"github.com/pagemirror/pagemirror/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	store, err := sqlite.NewStore(config.GetString("storage.dir"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	sources := store.SourceStore()
	ctx := context.Background()

	// Source definitions in the config file are seeded into the store at
	// startup; databases added via the CLI live in the store only.
	defined, err := configfile.LoadSources(config.Path())
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	if err := configfile.SeedSourceStore(ctx, sources, defined); err != nil {
		return fmt.Errorf("seed sources: %w", err)
	}

	relay, err := blob.NewRelay(blobDir(config), config.GetString("blob.base_url"))
	if err != nil {
		return fmt.Errorf("open blob relay: %w", err)
	}

	remote := notion.NewClient(auth.NewConfigTokenProvider(config))

	orchestrator := services.NewSyncOrchestrator(sources, store.MirrorStore(), remote, relay)

	cli.SetVersion(version)
	cli.SetSyncOrchestrator(orchestrator)
	cli.SetSourceStore(sources)
	cli.SetConfigStore(config)
	cli.SetCredentialsValidator(remote.ValidateCredentials)
	cli.SetSourceWatcher(func(ctx context.Context) error {
		return configfile.WatchSources(ctx, config.Path(), sources)
	})

	return cli.Execute()
}

// blobDir resolves the blob directory, defaulting next to the config file.
func blobDir(config *configfile.ConfigStore) string {
	if dir := config.GetString("blob.dir"); dir != "" {
		return dir
	}
	return filepath.Join(filepath.Dir(config.Path()), "blobs")
}

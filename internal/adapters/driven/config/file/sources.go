package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
	"github.com/pagemirror/pagemirror/internal/logger"
)

// SourceConfig is one [[sources]] entry in the configuration file.
type SourceConfig struct {
	ID         string            `toml:"id"`
	Table      string            `toml:"table"`
	Properties map[string]string `toml:"properties"`
	Attributes map[string]string `toml:"attributes"`
}

// sourcesFile is the subset of the configuration file the source loader
// reads; other sections are ignored here.
type sourcesFile struct {
	Sources []SourceConfig `toml:"sources"`
}

// LoadSources parses the source database definitions from a TOML file.
// A file without a [[sources]] section yields an empty list.
func LoadSources(path string) ([]domain.SourceDatabase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var parsed sourcesFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	sources := make([]domain.SourceDatabase, 0, len(parsed.Sources))
	for _, entry := range parsed.Sources {
		if entry.ID == "" || entry.Table == "" {
			return nil, fmt.Errorf("source entry needs id and table: %w", domain.ErrInvalidInput)
		}
		sources = append(sources, domain.SourceDatabase{
			ID:        entry.ID,
			TableName: entry.Table,
			Fields: domain.FieldMap{
				Properties: entry.Properties,
				Attributes: entry.Attributes,
			},
		})
	}

	return sources, nil
}

// SeedSourceStore loads source definitions into the store. An already
// configured database keeps its sync cursor; only table name and field
// maps are refreshed.
func SeedSourceStore(ctx context.Context, store driven.SourceStore, sources []domain.SourceDatabase) error {
	for _, source := range sources {
		existing, err := store.Get(ctx, source.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// First sighting
		case err != nil:
			return fmt.Errorf("get source %s: %w", source.ID, err)
		default:
			source.LastSynced = existing.LastSynced
			source.CreatedAt = existing.CreatedAt
		}

		if err := store.Save(ctx, source); err != nil {
			return fmt.Errorf("save source %s: %w", source.ID, err)
		}
	}
	return nil
}

// WatchSources watches the configuration file and reseeds the source store
// when it changes. Blocks until the context is cancelled. Reload failures
// are logged and the previous configuration stays active.
func WatchSources(ctx context.Context, path string, store driven.SourceStore) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; editors replace the file rather than write it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			sources, err := LoadSources(path)
			if err != nil {
				logger.Warn("Reloading sources from %s: %v", path, err)
				continue
			}
			if err := SeedSourceStore(ctx, store, sources); err != nil {
				logger.Warn("Reseeding sources: %v", err)
				continue
			}
			logger.Info("Reloaded %d source(s) from %s", len(sources), path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watching %s: %v", path, err)
		}
	}
}

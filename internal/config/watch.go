package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"
)

// settleDelay debounces editor write patterns (truncate then write, or
// write-to-temp then rename) into a single reload.
const settleDelay = 500 * time.Millisecond

// CatalogWatcher reloads the service catalog when its file changes and hands
// the fresh catalog to onReload. A parse failure keeps the previous catalog.
type CatalogWatcher struct {
	path     string
	logger   *slog.Logger
	onReload func(*domain.Catalog)
}

// NewCatalogWatcher creates a watcher for the catalog file at path.
func NewCatalogWatcher(path string, logger *slog.Logger, onReload func(*domain.Catalog)) *CatalogWatcher {
	return &CatalogWatcher{path: filepath.Clean(path), logger: logger, onReload: onReload}
}

// Run watches until the context is canceled. Watches the parent directory
// rather than the file itself so rename-based saves keep being seen.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	w.logger.Info("Watching catalog for changes", "path", w.path)

	var settle *time.Timer
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(settleDelay, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Catalog watcher error", "error", err)
		}
	}
}

func (w *CatalogWatcher) reload() {
	catalog, err := LoadCatalog(w.path)
	if err != nil {
		w.logger.Error("Catalog reload failed, keeping previous catalog",
			"path", w.path, "error", err)
		return
	}

	w.logger.Info("Catalog reloaded", "path", w.path, "services", len(catalog.Services))
	w.onReload(catalog)
}

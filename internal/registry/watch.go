package registry

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long the modules directory must stay quiet before a
// batch of changes triggers Refresh.
const watchDebounce = 250 * time.Millisecond

// Watch refreshes the registry whenever a definition file in the modules
// directory is created, written, removed or renamed. It blocks until ctx
// is cancelled. Bursts of events, such as an editor's save sequence,
// cause a single Refresh.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create modules watcher: %w", err)
	}
	defer watcher.Close()

	if err := os.MkdirAll(r.modulesDir, 0755); err != nil {
		return fmt.Errorf("create modules directory: %w", err)
	}
	if err := watcher.Add(r.modulesDir); err != nil {
		return fmt.Errorf("watch modules directory: %w", err)
	}
	r.logger.Info("watching modules directory", "action", "watch_started", "path", r.modulesDir)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopped watching modules directory", "action", "watch_stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDefinitionFile(event.Name) || !relevant(event.Op) {
				continue
			}
			r.logger.Debug("module definition event", "path", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("modules watcher error", "error", err)

		case <-timer.C:
			if err := r.Refresh(); err != nil {
				r.logger.Error("refresh after change", "action", "modules_refresh_failed", "error", err)
			}
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

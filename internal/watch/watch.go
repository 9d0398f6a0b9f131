// Package watch re-runs an action when the model declarations of a project
// change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period awaited after the last change.
const DefaultDebounce = 300 * time.Millisecond

// Watcher runs an action after the YAML files of a directory change. Bursts
// of events within the debounce period trigger a single run.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Logger   *slog.Logger
	// Action is run after each burst of changes. Its errors are logged and
	// do not stop the watch.
	Action func(context.Context) error
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := w.logger()
	logger.Info("watching models", "dir", w.Dir)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !Relevant(ev) {
				continue
			}
			logger.Debug("model changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			if err := w.Action(ctx); err != nil {
				logger.Error("sync failed", "error", err)
			}
		}
	}
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// Relevant reports if an event changes a model declaration file.
func Relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".yaml", ".yml":
		return filepath.Base(ev.Name)[0] != '.'
	default:
		return false
	}
}

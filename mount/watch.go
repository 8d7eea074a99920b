package mount

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/dashmesh/dashctl/internal/dashlog"
)

// Watch watches path for writes and calls Reload on each one, logging
// (but not returning) reload failures so a momentarily invalid config
// file doesn't stop the watch — the previously loaded table stays in
// effect until a valid write arrives.
func (t *Table) Watch(ctx context.Context, path string, log *dashlog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := t.Reload(path); err != nil {
					log.Warn("mount table reload failed", "path", path, "error", err)
					continue
				}
				log.Info("mount table reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("mount table watch error", "error", err)
			}
		}
	}()
	return nil
}

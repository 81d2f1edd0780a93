package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("kclsp.config")

// Watch reloads the YAML file at path whenever it changes and passes the new
// configuration to fn, until ctx is done. The parent directory is watched so
// that editors which replace the file on save are followed. Invalid contents
// are logged and skipped.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
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
				if filepath.Clean(event.Name) != path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
					continue
				}
				cfg, err := LoadFile(path)
				if err != nil {
					log.Warningf("ignoring config change: %s", err)
					continue
				}
				log.Infof("reloaded %s", path)
				fn(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("config watcher: %s", err)
			}
		}
	}()
	return nil
}

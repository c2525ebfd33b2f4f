package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch invokes onChange whenever another process rewrites or removes one
// of the session entries, the desktop analog of the browser storage-change
// event: a second "tab" refreshing the pair or logging out becomes
// visible here so the owner re-reads session state instead of polling.
// Watch blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create store watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch token dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSessionEntry(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("session_store_changed", "entry", filepath.Base(event.Name), "op", event.Op.String())
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("session_store_watch_error", "error", err)
		}
	}
}

func isSessionEntry(path string) bool {
	name := filepath.Base(path)
	if strings.Contains(name, ".tmp-") {
		return false
	}
	switch name {
	case tokensFile, profileFile:
		return true
	}
	return false
}

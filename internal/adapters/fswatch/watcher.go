// Package fswatch notices session worktrees that disappear behind grove's back.
package fswatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// Watcher implements ports.WorktreeWatcher by watching each worktree's parent directory
type Watcher struct {
	dirs  map[string]int
	fs    *fsnotify.Watcher
	mu    sync.Mutex
	paths map[string]struct{}
}

// Verify interface compliance at compile time
var _ ports.WorktreeWatcher = (*Watcher)(nil)

// NewWatcher creates a Watcher
func NewWatcher() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		dirs:  make(map[string]int),
		fs:    fs,
		paths: make(map[string]struct{}),
	}, nil
}

// Watch implements WorktreeWatcher.Watch
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)
	parent := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return nil
	}
	if w.dirs[parent] == 0 {
		if err := w.fs.Add(parent); err != nil {
			return fmt.Errorf("failed to watch %s: %w", parent, err)
		}
		logging.Logger.Debug("Watching worktree folder", "path", parent)
	}
	w.dirs[parent]++
	w.paths[path] = struct{}{}
	return nil
}

// Unwatch implements WorktreeWatcher.Unwatch
func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unwatchLocked(filepath.Clean(path))
}

func (w *Watcher) unwatchLocked(path string) {
	if _, ok := w.paths[path]; !ok {
		return
	}
	delete(w.paths, path)

	parent := filepath.Dir(path)
	w.dirs[parent]--
	if w.dirs[parent] <= 0 {
		delete(w.dirs, parent)
		// The directory may already be gone, which also drops the watch
		if err := w.fs.Remove(parent); err != nil {
			logging.Logger.Debug("Failed to remove watch", "path", parent, "error", err)
		}
	}
}

// Run delivers vanished worktree paths to onVanished until ctx is done
func (w *Watcher) Run(ctx context.Context, onVanished func(path string)) error {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			logging.Logger.Info("Worktree watcher shutting down")
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			for _, path := range w.vanished(filepath.Clean(event.Name)) {
				logging.Logger.Warn("Worktree removed outside grove", "path", path)
				onVanished(path)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logging.Logger.Warn("Worktree watcher error", "error", err)
		}
	}
}

// vanished returns and forgets the watched paths affected by a removal of name
func (w *Watcher) vanished(name string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var gone []string
	for path := range w.paths {
		if path != name && filepath.Dir(path) != name {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			gone = append(gone, path)
		}
	}
	for _, path := range gone {
		w.unwatchLocked(path)
	}
	return gone
}

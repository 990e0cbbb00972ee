package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vanishedPaths struct {
	mu    sync.Mutex
	paths []string
}

func (v *vanishedPaths) add(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.paths = append(v.paths, path)
}

func (v *vanishedPaths) get() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.paths...)
}

func startWatcher(t *testing.T) (*Watcher, *vanishedPaths) {
	t.Helper()
	w, err := NewWatcher()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	got := &vanishedPaths{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, got.add)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, got
}

func TestWatcher_ReportsRemovedWorktree(t *testing.T) {
	w, got := startWatcher(t)
	base := t.TempDir()
	keep := filepath.Join(base, "keep")
	gone := filepath.Join(base, "gone")
	require.NoError(t, os.Mkdir(keep, 0755))
	require.NoError(t, os.Mkdir(gone, 0755))

	require.NoError(t, w.Watch(keep))
	require.NoError(t, w.Watch(gone))

	require.NoError(t, os.RemoveAll(gone))

	require.Eventually(t, func() bool {
		return len(got.get()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{gone}, got.get())
}

func TestWatcher_UnwatchedPathIsIgnored(t *testing.T) {
	w, got := startWatcher(t)
	base := t.TempDir()
	path := filepath.Join(base, "session")
	require.NoError(t, os.Mkdir(path, 0755))

	require.NoError(t, w.Watch(path))
	w.Unwatch(path)
	require.NoError(t, os.RemoveAll(path))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, got.get())
}

func TestWatcher_WatchMissingParentFails(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)

	err = w.Watch(filepath.Join(t.TempDir(), "missing", "session"))
	assert.Error(t, err)
}

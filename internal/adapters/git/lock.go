package git

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/renato0307/grove/internal/logging"
)

// lockFileName lives in the git common dir so every process sharing the repository sees it
const lockFileName = "grove-worktree.lock"

// projectLocks serialises worktree mutations per repository, in-process and across processes
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *projectLocks) mutexFor(repoPath string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.locks[repoPath]
	if !ok {
		m = &sync.Mutex{}
		p.locks[repoPath] = m
	}
	return m
}

// acquire blocks until the repository is free and returns the release function
func (p *projectLocks) acquire(ctx context.Context, repoPath string) (func(), error) {
	m := p.mutexFor(repoPath)
	m.Lock()

	commonDir, err := getGitCommonDir(ctx, repoPath)
	if err != nil {
		m.Unlock()
		return nil, err
	}

	fl := flock.New(filepath.Join(commonDir, lockFileName))
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		m.Unlock()
		return nil, fmt.Errorf("failed to lock repository %s: %w", repoPath, err)
	}
	if !locked {
		m.Unlock()
		return nil, fmt.Errorf("failed to lock repository %s", repoPath)
	}

	logging.Logger.Debug("Acquired repository lock", "repo_path", repoPath)
	return func() {
		if err := fl.Unlock(); err != nil {
			logging.Logger.Warn("Failed to release repository file lock", "error", err, "repo_path", repoPath)
		}
		m.Unlock()
		logging.Logger.Debug("Released repository lock", "repo_path", repoPath)
	}, nil
}

package domain

import (
	"path/filepath"
	"time"
)

// DefaultWorktreeFolder is used when a project has no worktree folder override
const DefaultWorktreeFolder = "worktrees"

// Project is a source repository sessions are created against
type Project struct {
	BaseBranch     string
	BuildScript    string
	CreatedAt      time.Time
	DisplayOrder   int
	ID             string
	IDECommand     string
	Name           string
	Path           string
	RunScript      string
	UpdatedAt      time.Time
	WorktreeFolder string
}

// ResolveWorktreeFolder returns the absolute folder new worktrees are created in.
// Relative overrides are resolved against the repository path.
func (p Project) ResolveWorktreeFolder() string {
	folder := p.WorktreeFolder
	if folder == "" {
		folder = DefaultWorktreeFolder
	}
	if filepath.IsAbs(folder) {
		return filepath.Clean(folder)
	}
	return filepath.Join(p.Path, folder)
}

package ports

import (
	"context"

	"github.com/renato0307/grove/internal/domain"
)

// RepoInspector inspects repositories on disk
type RepoInspector interface {
	// IsGitRepo returns true and the repository root when path is inside a work tree
	IsGitRepo(ctx context.Context, path string) (bool, string)
}

// BranchInspector reads branch information
type BranchInspector interface {
	BranchExists(ctx context.Context, repoPath, branch string) bool
	// DetectCurrentBranch is advisory; it returns domain.NoBranch instead of failing
	DetectCurrentBranch(ctx context.Context, path string) string
	ListBranches(ctx context.Context, project domain.Project) ([]domain.Branch, error)
}

// WorktreeManager provisions and tears down session worktrees.
// Create and remove are mutually exclusive per project.
type WorktreeManager interface {
	CreateWorktree(ctx context.Context, project domain.Project, sessionName, baseBranch string) (*domain.Worktree, error)
	RemoveWorktree(ctx context.Context, project domain.Project, session domain.Session) error
}

// GitRepository is the composite interface
type GitRepository interface {
	BranchInspector
	RepoInspector
	WorktreeManager
}

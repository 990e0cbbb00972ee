package git

import (
	"context"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/metrics"
	"github.com/renato0307/grove/internal/ports"
)

// CLIRepository implements ports.GitRepository using local git commands
type CLIRepository struct {
	locks *projectLocks
}

// Verify interface compliance at compile time
var _ ports.GitRepository = (*CLIRepository)(nil)

// NewCLIRepository creates a new CLIRepository
func NewCLIRepository() *CLIRepository {
	return &CLIRepository{locks: newProjectLocks()}
}

// RepoInspector methods

// IsGitRepo implements RepoInspector.IsGitRepo
func (r *CLIRepository) IsGitRepo(ctx context.Context, path string) (bool, string) {
	return isGitRepo(ctx, path)
}

// BranchInspector methods

// BranchExists implements BranchInspector.BranchExists
func (r *CLIRepository) BranchExists(ctx context.Context, repoPath, branch string) bool {
	return branchExists(ctx, repoPath, branch)
}

// DetectCurrentBranch implements BranchInspector.DetectCurrentBranch
func (r *CLIRepository) DetectCurrentBranch(ctx context.Context, path string) string {
	return getBranchName(ctx, path)
}

// ListBranches implements BranchInspector.ListBranches
func (r *CLIRepository) ListBranches(ctx context.Context, project domain.Project) ([]domain.Branch, error) {
	return listBranches(ctx, project)
}

// WorktreeManager methods

// CreateWorktree implements WorktreeManager.CreateWorktree
func (r *CLIRepository) CreateWorktree(ctx context.Context, project domain.Project, sessionName, baseBranch string) (*domain.Worktree, error) {
	release, err := r.locks.acquire(ctx, project.Path)
	if err != nil {
		return nil, err
	}
	defer release()

	worktree, err := createWorktree(ctx, project, sessionName, baseBranch)
	metrics.WorktreeOperations.WithLabelValues("create", metrics.Result(err)).Inc()
	return worktree, err
}

// RemoveWorktree implements WorktreeManager.RemoveWorktree
func (r *CLIRepository) RemoveWorktree(ctx context.Context, project domain.Project, session domain.Session) error {
	release, err := r.locks.acquire(ctx, project.Path)
	if err != nil {
		return err
	}
	defer release()

	err = removeWorktree(ctx, project, session)
	metrics.WorktreeOperations.WithLabelValues("remove", metrics.Result(err)).Inc()
	return err
}

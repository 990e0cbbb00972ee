package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
)

// isGitRepo checks if the given path is within a git work tree
// Returns true and the top-level path if it is, false and empty string otherwise
func isGitRepo(ctx context.Context, path string) (bool, string) {
	logging.Logger.Debug("Checking if directory is git repo", "path", path)

	repoRoot, err := readGit(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		logging.Logger.Debug("Not a git repository", "path", path)
		return false, ""
	}

	logging.Logger.Info("Found git repository", "repo_root", repoRoot)
	return true, repoRoot
}

// getGitCommonDir returns the absolute git directory shared by all worktrees of a repository
func getGitCommonDir(ctx context.Context, path string) (string, error) {
	gitCommonDir, err := readGit(ctx, path, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("failed to get git common dir: %w", err)
	}

	// Regular checkouts report a relative ".git"
	if !filepath.IsAbs(gitCommonDir) {
		gitCommonDir = filepath.Join(path, gitCommonDir)
	}
	return filepath.Clean(gitCommonDir), nil
}

// branchExists checks if a local branch exists
func branchExists(ctx context.Context, repoPath, branchName string) bool {
	_, err := readGit(ctx, repoPath, "show-ref", "--verify", "--quiet", "refs/heads/"+branchName)
	exists := err == nil
	logging.Logger.Debug("Branch existence check", "repo_path", repoPath, "branch", branchName, "exists", exists)
	return exists
}

// checkRefFormat asks git whether name is usable as a branch name
func checkRefFormat(ctx context.Context, repoPath, name string) error {
	if _, err := readGit(ctx, repoPath, "check-ref-format", "--branch", name); err != nil {
		return &domain.ValidationError{
			Err:    domain.ErrInvalidName,
			Field:  "session name",
			Reason: fmt.Sprintf("'%s' is not a valid branch name", name),
		}
	}
	return nil
}

// getBranchName returns the checked-out branch at path, or domain.NoBranch
func getBranchName(ctx context.Context, path string) string {
	logging.Logger.Debug("Getting branch name", "path", path)

	branchName, err := readGit(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		logging.Logger.Debug("Failed to get branch name", "error", err)
		return domain.NoBranch
	}

	// Detached HEAD has no branch
	if branchName == "HEAD" {
		return domain.NoBranch
	}

	logging.Logger.Debug("Found branch name", "branch", branchName)
	return branchName
}

// createWorktree creates a new branch named after the session and checks it out in a
// new worktree under the project's worktree folder, starting from baseBranch
func createWorktree(ctx context.Context, project domain.Project, sessionName, baseBranch string) (*domain.Worktree, error) {
	logging.Logger.Info("Creating worktree",
		"project_id", project.ID, "repo_path", project.Path, "session_name", sessionName, "base_branch", baseBranch)

	if err := domain.ValidateSessionName(sessionName); err != nil {
		return nil, err
	}

	branch := sessionName
	if err := checkRefFormat(ctx, project.Path, branch); err != nil {
		return nil, err
	}

	if branchExists(ctx, project.Path, branch) {
		logging.Logger.Warn("Branch already exists", "branch", branch)
		return nil, fmt.Errorf("branch '%s': %w", branch, domain.ErrBranchExists)
	}

	base := baseBranch
	if base == "" {
		base = project.BaseBranch
	}
	if base == "" {
		base = getBranchName(ctx, project.Path)
	}
	if base == domain.NoBranch {
		base = "HEAD"
	}

	worktreeBase := project.ResolveWorktreeFolder()
	if err := os.MkdirAll(worktreeBase, 0755); err != nil {
		logging.Logger.Error("Failed to create worktree base directory", "error", err, "path", worktreeBase)
		return nil, fmt.Errorf("failed to create worktree base directory: %w", err)
	}
	ensureExcluded(ctx, project.Path, worktreeBase)

	worktreePath := filepath.Join(worktreeBase, sessionName)
	if _, err := os.Stat(worktreePath); err == nil {
		return nil, domain.ConflictError("worktree path %s already exists", worktreePath)
	}

	if _, err := runGit(ctx, project.Path, "worktree", "add", "-b", branch, worktreePath, base); err != nil {
		logging.Logger.Error("Git worktree add failed", "error", err)
		return nil, fmt.Errorf("failed to create worktree: %w", err)
	}

	baseCommit, err := readGit(ctx, worktreePath, "rev-parse", "HEAD")
	if err != nil {
		// The worktree exists; the commit is informational
		logging.Logger.Warn("Failed to read base commit", "error", err, "path", worktreePath)
	}

	logging.Logger.Info("Git worktree created successfully",
		"path", worktreePath, "branch", branch, "base", base, "base_commit", baseCommit)
	return &domain.Worktree{BaseCommit: baseCommit, Branch: branch, Path: worktreePath}, nil
}

// removeWorktree force-removes a session worktree and deletes its branch.
// Missing worktrees and branches are not an error.
func removeWorktree(ctx context.Context, project domain.Project, session domain.Session) error {
	if session.IsMainRepo || session.WorktreePath == "" {
		logging.Logger.Debug("Session has no worktree to remove", "session_id", session.ID)
		return nil
	}

	logging.Logger.Info("Removing worktree",
		"repo_path", project.Path, "worktree_path", session.WorktreePath, "branch", session.Branch)

	if _, err := os.Stat(session.WorktreePath); os.IsNotExist(err) {
		logging.Logger.Warn("Worktree path does not exist", "path", session.WorktreePath)
		// Drop any stale registration left behind
		if _, err := runGit(ctx, project.Path, "worktree", "prune"); err != nil {
			logging.Logger.Warn("Git worktree prune failed", "error", err)
		}
	} else {
		if _, err := runGit(ctx, project.Path, "worktree", "remove", "--force", session.WorktreePath); err != nil {
			logging.Logger.Error("Git worktree remove failed", "error", err)
			return fmt.Errorf("failed to remove worktree: %w", err)
		}
	}

	if session.Branch != "" && branchExists(ctx, project.Path, session.Branch) {
		if _, err := runGit(ctx, project.Path, "branch", "-D", session.Branch); err != nil {
			logging.Logger.Warn("Failed to delete session branch", "error", err, "branch", session.Branch)
		}
	}

	logging.Logger.Info("Git worktree removed successfully", "path", session.WorktreePath)
	return nil
}

// worktreeInfo holds parsed information about a git worktree
type worktreeInfo struct {
	branch string
	path   string
}

// parseWorktreeList parses git worktree list --porcelain output
func parseWorktreeList(output string) []worktreeInfo {
	var worktrees []worktreeInfo
	var current worktreeInfo

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if current.path != "" {
				worktrees = append(worktrees, current)
			}
			current = worktreeInfo{path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			current.branch = strings.TrimPrefix(line, "branch ")
		}
	}

	if current.path != "" {
		worktrees = append(worktrees, current)
	}

	return worktrees
}

// listBranches enumerates local branches and marks those checked out in a worktree
func listBranches(ctx context.Context, project domain.Project) ([]domain.Branch, error) {
	logging.Logger.Debug("Listing branches", "project_id", project.ID, "repo_path", project.Path)

	var (
		refsOutput     string
		worktreeOutput string
		current        string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := readGit(gctx, project.Path, "for-each-ref", "--format=%(refname:short)", "refs/heads")
		if err != nil {
			return fmt.Errorf("failed to list branches: %w", err)
		}
		refsOutput = out
		return nil
	})
	g.Go(func() error {
		out, err := readGit(gctx, project.Path, "worktree", "list", "--porcelain")
		if err != nil {
			return fmt.Errorf("failed to list worktrees: %w", err)
		}
		worktreeOutput = out
		return nil
	})
	g.Go(func() error {
		current = getBranchName(gctx, project.Path)
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.Logger.Error("Failed to list branches", "error", err)
		return nil, err
	}

	checkedOut := make(map[string]bool)
	for _, wt := range parseWorktreeList(worktreeOutput) {
		if wt.branch != "" {
			checkedOut[strings.TrimPrefix(wt.branch, "refs/heads/")] = true
		}
	}

	var branches []domain.Branch
	for _, name := range strings.Split(refsOutput, "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		branches = append(branches, domain.Branch{
			HasWorktree: checkedOut[name],
			IsCurrent:   name == current,
			IsMain:      isMainBranch(project, name),
			Name:        name,
		})
	}

	logging.Logger.Debug("Found branches", "count", len(branches))
	return branches, nil
}

// isMainBranch reports whether name is the project's base branch
func isMainBranch(project domain.Project, name string) bool {
	if project.BaseBranch != "" {
		return name == project.BaseBranch
	}
	return name == "main" || name == "master"
}

// ensureExcluded adds the worktree folder to .git/info/exclude when it sits inside the repository
func ensureExcluded(ctx context.Context, repoPath, worktreeBase string) {
	rel, err := filepath.Rel(repoPath, worktreeBase)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}

	commonDir, err := getGitCommonDir(ctx, repoPath)
	if err != nil {
		logging.Logger.Warn("Cannot update git exclude file", "error", err)
		return
	}

	pattern := "/" + filepath.ToSlash(rel) + "/"
	excludePath := filepath.Join(commonDir, "info", "exclude")

	existing, err := os.ReadFile(excludePath)
	if err == nil {
		for _, line := range strings.Split(string(existing), "\n") {
			if strings.TrimSpace(line) == pattern {
				return
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(excludePath), 0755); err != nil {
		logging.Logger.Warn("Cannot create git info directory", "error", err)
		return
	}

	f, err := os.OpenFile(excludePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Logger.Warn("Cannot open git exclude file", "error", err, "path", excludePath)
		return
	}
	defer f.Close()

	prefix := ""
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		prefix = "\n"
	}
	if _, err := f.WriteString(prefix + pattern + "\n"); err != nil {
		logging.Logger.Warn("Cannot write git exclude file", "error", err)
		return
	}
	logging.Logger.Debug("Excluded worktree folder from repository", "pattern", pattern)
}

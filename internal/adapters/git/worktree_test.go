package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
)

// setupTestRepo creates a git repo on branch main with an initial commit
func setupTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	runTestGit(t, dir, "init", "-b", "main")
	runTestGit(t, dir, "config", "user.email", "test@test.com")
	runTestGit(t, dir, "config", "user.name", "Test")

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# Test"), 0644))
	runTestGit(t, dir, "add", "README.md")
	runTestGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
	return strings.TrimSpace(string(out))
}

func testProject(repoPath string) domain.Project {
	return domain.Project{ID: "p1", Name: "test", Path: repoPath, BaseBranch: "main"}
}

func TestCreateWorktree_CreatesBranchInDefaultFolder(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	wt, err := repo.CreateWorktree(context.Background(), testProject(repoPath), "fix-bug", "main")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repoPath, "worktrees", "fix-bug"), wt.Path)
	assert.Equal(t, "fix-bug", wt.Branch)
	assert.Equal(t, runTestGit(t, repoPath, "rev-parse", "main"), wt.BaseCommit)
	assert.DirExists(t, wt.Path)
	assert.Equal(t, "fix-bug", getBranchName(context.Background(), wt.Path))
}

func TestCreateWorktree_ExcludesWorktreeFolder(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	_, err := repo.CreateWorktree(context.Background(), testProject(repoPath), "one", "")
	require.NoError(t, err)
	_, err = repo.CreateWorktree(context.Background(), testProject(repoPath), "two", "")
	require.NoError(t, err)

	exclude, err := os.ReadFile(filepath.Join(repoPath, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(exclude), "/worktrees/"))
	assert.Empty(t, runTestGit(t, repoPath, "status", "--porcelain"), "main checkout must stay clean")
}

func TestCreateWorktree_RelativeAndAbsoluteFolderOverride(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	absFolder := t.TempDir()
	project := testProject(repoPath)
	project.WorktreeFolder = absFolder

	wt, err := repo.CreateWorktree(context.Background(), project, "abs-session", "main")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(absFolder, "abs-session"), wt.Path)

	project.WorktreeFolder = "trees"
	wt, err = repo.CreateWorktree(context.Background(), project, "rel-session", "main")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repoPath, "trees", "rel-session"), wt.Path)
}

func TestCreateWorktree_InvalidName(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	for _, name := range []string{"has space", "a..b", ".hidden", "trail/", "what?"} {
		t.Run(name, func(t *testing.T) {
			_, err := repo.CreateWorktree(context.Background(), testProject(repoPath), name, "main")

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidName))
		})
	}
}

func TestCreateWorktree_BranchExists(t *testing.T) {
	repoPath := setupTestRepo(t)
	runTestGit(t, repoPath, "branch", "taken")
	repo := NewCLIRepository()

	_, err := repo.CreateWorktree(context.Background(), testProject(repoPath), "taken", "main")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBranchExists))
}

func TestCreateWorktree_UnknownBaseBranchReportsGitOutput(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	_, err := repo.CreateWorktree(context.Background(), testProject(repoPath), "child", "does-not-exist")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGitCommandFailed))
	var gitErr *domain.GitOperationError
	require.True(t, errors.As(err, &gitErr))
	assert.Contains(t, gitErr.Args, "worktree")
	assert.NotEmpty(t, gitErr.Output)
}

func TestRemoveWorktree_Idempotent(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()
	project := testProject(repoPath)

	wt, err := repo.CreateWorktree(context.Background(), project, "fix-bug", "main")
	require.NoError(t, err)
	session := domain.Session{ID: "s1", WorktreePath: wt.Path, Branch: wt.Branch}

	require.NoError(t, repo.RemoveWorktree(context.Background(), project, session))
	assert.NoDirExists(t, wt.Path)
	assert.False(t, branchExists(context.Background(), repoPath, "fix-bug"))

	assert.NoError(t, repo.RemoveWorktree(context.Background(), project, session), "second removal must succeed")
}

func TestRemoveWorktree_DirectoryDeletedOutsideGit(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()
	project := testProject(repoPath)

	wt, err := repo.CreateWorktree(context.Background(), project, "gone", "main")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(wt.Path))

	err = repo.RemoveWorktree(context.Background(), project, domain.Session{WorktreePath: wt.Path, Branch: wt.Branch})

	require.NoError(t, err)
	assert.NotContains(t, runTestGit(t, repoPath, "worktree", "list"), wt.Path)
	assert.False(t, branchExists(context.Background(), repoPath, "gone"))
}

func TestRemoveWorktree_MainRepoSessionIsExempt(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	err := repo.RemoveWorktree(context.Background(), testProject(repoPath), domain.Session{IsMainRepo: true, WorktreePath: repoPath})

	require.NoError(t, err)
	assert.DirExists(t, repoPath)
}

func TestCreateWorktree_ConcurrentSessionsGetDistinctPaths(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()
	project := testProject(repoPath)

	names := []string{"alpha", "beta", "gamma", "delta"}
	paths := make([]string, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			wt, err := repo.CreateWorktree(context.Background(), project, name, "main")
			errs[i] = err
			if wt != nil {
				paths[i] = wt.Path
			}
		}(i, name)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range names {
		require.NoError(t, errs[i])
		assert.DirExists(t, paths[i])
		assert.False(t, seen[paths[i]])
		seen[paths[i]] = true
	}
}

func TestListBranches(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()
	project := testProject(repoPath)
	runTestGit(t, repoPath, "branch", "idle-branch")
	_, err := repo.CreateWorktree(context.Background(), project, "busy", "main")
	require.NoError(t, err)

	branches, err := repo.ListBranches(context.Background(), project)

	require.NoError(t, err)
	byName := make(map[string]domain.Branch)
	for _, b := range branches {
		byName[b.Name] = b
	}
	require.Len(t, byName, 3)
	assert.True(t, byName["main"].IsCurrent)
	assert.True(t, byName["main"].IsMain)
	assert.True(t, byName["main"].HasWorktree)
	assert.True(t, byName["busy"].HasWorktree)
	assert.False(t, byName["busy"].IsCurrent)
	assert.False(t, byName["idle-branch"].HasWorktree)
}

func TestDetectCurrentBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	assert.Equal(t, "main", repo.DetectCurrentBranch(context.Background(), repoPath))
	assert.Equal(t, domain.NoBranch, repo.DetectCurrentBranch(context.Background(), t.TempDir()), "non-repo returns sentinel")

	runTestGit(t, repoPath, "checkout", "--detach")
	assert.Equal(t, domain.NoBranch, repo.DetectCurrentBranch(context.Background(), repoPath), "detached HEAD returns sentinel")
}

func TestIsGitRepo(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo := NewCLIRepository()

	ok, root := repo.IsGitRepo(context.Background(), repoPath)
	assert.True(t, ok)
	expected, err := filepath.EvalSymlinks(repoPath)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	ok, _ = repo.IsGitRepo(context.Background(), t.TempDir())
	assert.False(t, ok)
}

func TestParseWorktreeList(t *testing.T) {
	output := "worktree /repo\nHEAD abc\nbranch refs/heads/main\n\nworktree /repo/worktrees/x\nHEAD def\nbranch refs/heads/x\n\nworktree /tmp/detached\nHEAD 123\ndetached\n"

	worktrees := parseWorktreeList(output)

	require.Len(t, worktrees, 3)
	assert.Equal(t, worktreeInfo{path: "/repo", branch: "refs/heads/main"}, worktrees[0])
	assert.Equal(t, worktreeInfo{path: "/repo/worktrees/x", branch: "refs/heads/x"}, worktrees[1])
	assert.Equal(t, "", worktrees[2].branch)
}

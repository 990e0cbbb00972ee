package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/ports"
)

func TestProjectService_CreateUsesProjectFileDefaults(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".grove.toml"), []byte(`
base_branch = "develop"
build_script = "make deps"
worktree_folder = "../trees"
`), 0644))

	h := newSessionHarness(t, func(h *sessionHarness) {
		h.git.EXPECT().IsGitRepo(mock.Anything, repo).Return(true, repo)
	})

	project, err := h.projects.Create(context.Background(), CreateProjectParams{Path: repo, RunScript: "make run"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(repo), project.Name)
	assert.Equal(t, "develop", project.BaseBranch)
	assert.Equal(t, "make deps", project.BuildScript)
	assert.Equal(t, "make run", project.RunScript)
	assert.Equal(t, "../trees", project.WorktreeFolder)
	h.git.AssertNotCalled(t, "DetectCurrentBranch", mock.Anything, repo)
}

func TestProjectService_CreateRejectsNonRepository(t *testing.T) {
	dir := t.TempDir()
	h := newSessionHarness(t, func(h *sessionHarness) {
		h.git.EXPECT().IsGitRepo(mock.Anything, dir).Return(false, "")
	})

	_, err := h.projects.Create(context.Background(), CreateProjectParams{Path: dir})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.projects.Create(context.Background(), CreateProjectParams{Path: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjectService_CreateDetectsBranch(t *testing.T) {
	repo := t.TempDir()
	h := newSessionHarness(t, func(h *sessionHarness) {
		h.git.EXPECT().IsGitRepo(mock.Anything, repo).Return(true, repo)
		h.git.EXPECT().DetectCurrentBranch(mock.Anything, repo).Return("trunk")
	})

	project, err := h.projects.Create(context.Background(), CreateProjectParams{Path: repo, Name: "api"})
	require.NoError(t, err)
	assert.Equal(t, "api", project.Name)
	assert.Equal(t, "trunk", project.BaseBranch)

	_, err = h.projects.Create(context.Background(), CreateProjectParams{Path: repo})
	assert.ErrorIs(t, err, domain.ErrConflict, "a repository is registered once")
}

func TestProjectService_Update(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()

	name := "renamed"
	run := "go run ."
	project, err := h.projects.Update(ctx, h.project.ID, UpdateProjectParams{Name: &name, RunScript: &run})
	require.NoError(t, err)
	assert.Equal(t, "renamed", project.Name)
	assert.Equal(t, "go run .", project.RunScript)
	assert.Equal(t, "main", project.BaseBranch)

	empty := ""
	_, err = h.projects.Update(ctx, h.project.ID, UpdateProjectParams{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.projects.Update(ctx, "missing", UpdateProjectParams{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectService_DeleteTearsDownSessions(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()

	running := h.create(t, CreateSessionParams{Prompt: "busy"})[0].ID
	idle := h.create(t, CreateSessionParams{Name: "idle"})[0].ID
	h.waitStatus(t, running, domain.StatusRunning)
	h.waitStatus(t, idle, domain.StatusReady)

	deleted := h.bus.Subscribe(func(e domain.Event) bool { return e.Type == domain.EventProjectDeleted })
	defer h.bus.Unsubscribe(deleted)

	require.NoError(t, h.projects.Delete(ctx, h.project.ID))

	assert.False(t, h.agent.isRunning(running))
	h.git.AssertNumberOfCalls(t, "RemoveWorktree", 2)

	sessions, err := h.store.ListSessions(ctx, ports.SessionFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = h.projects.Get(ctx, h.project.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.DeletedPayload{ID: h.project.ID}, receive(t, deleted).Payload)
}

func TestProjectService_ListBranches(t *testing.T) {
	branches := []domain.Branch{{Name: "main", IsMain: true, IsCurrent: true}, {Name: "feature", HasWorktree: true}}
	h := newSessionHarness(t, func(h *sessionHarness) {
		h.git.EXPECT().ListBranches(mock.Anything, mock.MatchedBy(func(p domain.Project) bool { return p.ID == h.project.ID })).
			Return(branches, nil)
	})

	result, err := h.projects.ListBranches(context.Background(), h.project.ID)
	require.NoError(t, err)
	assert.Equal(t, branches, result)
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedProject(t *testing.T, repo *SQLiteRepository, id string) domain.Project {
	t.Helper()
	project := domain.Project{ID: id, Name: id, Path: "/repo/" + id, BaseBranch: "main"}
	require.NoError(t, repo.CreateProject(context.Background(), project))
	return project
}

func seedSession(t *testing.T, repo *SQLiteRepository, projectID, id string, folderID *string) domain.Session {
	t.Helper()
	session := domain.Session{
		ID:             id,
		Name:           id,
		PermissionMode: domain.PermissionModeApprove,
		ProjectID:      projectID,
		FolderID:       folderID,
		Status:         domain.StatusInitializing,
	}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	return session
}

func seedFolder(t *testing.T, repo *SQLiteRepository, projectID, id string, parentID *string) {
	t.Helper()
	require.NoError(t, repo.CreateFolder(context.Background(), domain.Folder{
		ID: id, Name: id, ProjectID: projectID, ParentID: parentID,
	}))
}

func ptr(s string) *string { return &s }

func sessionIDs(sessions []domain.Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

func TestProjects_CreateListDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedProject(t, repo, "a")
	seedProject(t, repo, "b")

	projects, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "a", projects[0].ID)
	assert.Equal(t, 0, projects[0].DisplayOrder)
	assert.Equal(t, 1, projects[1].DisplayOrder)

	err = repo.CreateProject(ctx, domain.Project{ID: "c", Name: "dup", Path: "/repo/a"})
	assert.True(t, errors.Is(err, domain.ErrConflict), "duplicate path must conflict")

	seedSession(t, repo, "a", "s1", nil)
	_, err = repo.AppendOutput(ctx, "s1", domain.OutputSystem, domain.TextData("hello"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProject(ctx, "a"))

	_, err = repo.GetProject(ctx, "a")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = repo.GetSession(ctx, "s1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	output, err := repo.ListOutput(ctx, "s1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, output)

	assert.True(t, errors.Is(repo.DeleteProject(ctx, "a"), domain.ErrNotFound))
}

func TestProjects_UpdateKeepsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project := seedProject(t, repo, "a")

	project.RunScript = "make run"
	project.WorktreeFolder = "../trees"
	require.NoError(t, repo.UpdateProject(ctx, project))

	got, err := repo.GetProject(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "make run", got.RunScript)
	assert.Equal(t, "../trees", got.WorktreeFolder)
	assert.Equal(t, "/repo/a", got.Path)

	assert.True(t, errors.Is(repo.UpdateProject(ctx, domain.Project{ID: "missing"}), domain.ErrNotFound))
}

func TestReorderSessions_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	for _, id := range []string{"s1", "s2", "s3"} {
		seedSession(t, repo, "p", id, nil)
	}

	batch := []domain.OrderUpdate{
		{ID: "s3", DisplayOrder: 0},
		{ID: "s1", DisplayOrder: 1},
		{ID: "s2", DisplayOrder: 2},
	}

	require.NoError(t, repo.ReorderSessions(ctx, batch))
	first, err := repo.ListSessions(ctx, ports.SessionFilter{ProjectID: "p"})
	require.NoError(t, err)

	require.NoError(t, repo.ReorderSessions(ctx, batch))
	second, err := repo.ListSessions(ctx, ports.SessionFilter{ProjectID: "p"})
	require.NoError(t, err)

	assert.Equal(t, []string{"s3", "s1", "s2"}, sessionIDs(first))
	assert.Equal(t, sessionIDs(first), sessionIDs(second))
	for i, s := range second {
		assert.Equal(t, i, s.DisplayOrder)
	}
}

func TestReorderSessions_RejectsMixedScopes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedFolder(t, repo, "p", "f", nil)
	seedSession(t, repo, "p", "root", nil)
	seedSession(t, repo, "p", "nested", ptr("f"))

	err := repo.ReorderSessions(ctx, []domain.OrderUpdate{
		{ID: "root", DisplayOrder: 1},
		{ID: "nested", DisplayOrder: 0},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	got, err := repo.GetSession(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, 0, got.DisplayOrder, "failed batch must not be partially applied")
}

func TestListSessions_CompactsGaps(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	for _, id := range []string{"s1", "s2", "s3"} {
		seedSession(t, repo, "p", id, nil)
	}

	require.NoError(t, repo.ReorderSessions(ctx, []domain.OrderUpdate{
		{ID: "s1", DisplayOrder: 10},
		{ID: "s2", DisplayOrder: 20},
		{ID: "s3", DisplayOrder: 5},
	}))

	sessions, err := repo.ListSessions(ctx, ports.SessionFilter{ProjectID: "p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "s1", "s2"}, sessionIDs(sessions))

	stored, err := repo.GetSession(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.DisplayOrder, "compaction is written back")
}

func TestListSessions_HidesArchivedByDefault(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedSession(t, repo, "p", "live", nil)
	seedSession(t, repo, "p", "old", nil)

	require.NoError(t, repo.SetSessionArchived(ctx, "old", true))

	visible, err := repo.ListSessions(ctx, ports.SessionFilter{ProjectID: "p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, sessionIDs(visible))

	all, err := repo.ListSessions(ctx, ports.SessionFilter{ProjectID: "p", IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateSession_NameUniquePerProject(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedProject(t, repo, "q")
	seedSession(t, repo, "p", "same", nil)

	err := repo.CreateSession(ctx, domain.Session{ID: "other", Name: "same", ProjectID: "p",
		PermissionMode: domain.PermissionModeApprove, Status: domain.StatusInitializing})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	err = repo.CreateSession(ctx, domain.Session{ID: "other", Name: "same", ProjectID: "q",
		PermissionMode: domain.PermissionModeApprove, Status: domain.StatusInitializing})
	assert.NoError(t, err)
}

func TestSessionStateUpdates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedSession(t, repo, "p", "s", nil)

	require.NoError(t, repo.UpdateSessionWorktree(ctx, "s", domain.Worktree{Path: "/repo/p/worktrees/s", Branch: "s", BaseCommit: "abc"}))
	require.NoError(t, repo.UpdateSessionProcess(ctx, "s", 4242, "agent-1"))
	require.NoError(t, repo.UpdateSessionProcess(ctx, "s", 0, ""))
	require.NoError(t, repo.UpdateSessionStatus(ctx, "s", domain.StatusError, "spawn failed", "exec: not found"))

	got, err := repo.GetSession(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "/repo/p/worktrees/s", got.WorktreePath)
	assert.Equal(t, "abc", got.BaseCommit)
	assert.Equal(t, 0, got.PID)
	assert.Equal(t, "agent-1", got.AgentSessionID, "empty id keeps the recorded one")
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "spawn failed", got.StatusMessage)
	assert.Equal(t, "exec: not found", got.RawOutput)

	err = repo.UpdateSessionStatus(ctx, "missing", domain.StatusReady, "", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMoveSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedProject(t, repo, "q")
	seedFolder(t, repo, "p", "f", nil)
	seedFolder(t, repo, "q", "elsewhere", nil)
	seedSession(t, repo, "p", "s", nil)

	require.NoError(t, repo.MoveSession(ctx, "s", ptr("f")))
	got, err := repo.GetSession(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, got.FolderID)
	assert.Equal(t, "f", *got.FolderID)

	err = repo.MoveSession(ctx, "s", ptr("elsewhere"))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, repo.MoveSession(ctx, "s", nil))
	got, err = repo.GetSession(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)
}

func TestMoveFolder_RejectsDescendant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedFolder(t, repo, "p", "a", nil)
	seedFolder(t, repo, "p", "b", ptr("a"))
	seedFolder(t, repo, "p", "c", ptr("b"))

	tests := []struct {
		name   string
		target string
	}{
		{"into itself", "a"},
		{"into child", "b"},
		{"into grandchild", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.MoveFolder(ctx, "a", ptr(tt.target))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}

	folders, err := repo.ListFolders(ctx, "p")
	require.NoError(t, err)
	parents := make(map[string]*string)
	for _, f := range folders {
		parents[f.ID] = f.ParentID
	}
	assert.Nil(t, parents["a"], "tree must be unchanged")
	assert.Equal(t, "a", *parents["b"])
	assert.Equal(t, "b", *parents["c"])

	require.NoError(t, repo.MoveFolder(ctx, "c", nil))
	moved, err := repo.GetFolder(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, 1, moved.DisplayOrder, "appended after a")
}

func TestDeleteFolder_Strategies(t *testing.T) {
	setup := func(t *testing.T) *SQLiteRepository {
		repo := newTestRepo(t)
		seedProject(t, repo, "p")
		seedFolder(t, repo, "p", "top", nil)
		seedFolder(t, repo, "p", "mid", ptr("top"))
		seedFolder(t, repo, "p", "leaf", ptr("mid"))
		seedSession(t, repo, "p", "in-mid", ptr("mid"))
		seedSession(t, repo, "p", "in-leaf", ptr("leaf"))
		return repo
	}
	ctx := context.Background()

	t.Run("refuses without strategy", func(t *testing.T) {
		repo := setup(t)
		err := repo.DeleteFolder(ctx, "mid", domain.FolderDeleteNone)
		assert.True(t, errors.Is(err, domain.ErrConflict))
		_, err = repo.GetFolder(ctx, "mid")
		assert.NoError(t, err)
	})

	t.Run("reparent", func(t *testing.T) {
		repo := setup(t)
		require.NoError(t, repo.DeleteFolder(ctx, "mid", domain.FolderDeleteReparent))

		leaf, err := repo.GetFolder(ctx, "leaf")
		require.NoError(t, err)
		assert.Equal(t, "top", *leaf.ParentID)
		s, err := repo.GetSession(ctx, "in-mid")
		require.NoError(t, err)
		assert.Equal(t, "top", *s.FolderID)
	})

	t.Run("cascade", func(t *testing.T) {
		repo := setup(t)
		require.NoError(t, repo.DeleteFolder(ctx, "mid", domain.FolderDeleteCascade))

		_, err := repo.GetFolder(ctx, "leaf")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		for _, id := range []string{"in-mid", "in-leaf"} {
			s, err := repo.GetSession(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, s.FolderID, "sessions move to project root")
		}
		_, err = repo.GetFolder(ctx, "top")
		assert.NoError(t, err)
	})

	t.Run("empty folder needs no strategy", func(t *testing.T) {
		repo := setup(t)
		seedFolder(t, repo, "p", "empty", nil)
		assert.NoError(t, repo.DeleteFolder(ctx, "empty", domain.FolderDeleteNone))
	})
}

func TestAppendOutput_AssignsSequence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedSession(t, repo, "p", "s", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AppendOutput(ctx, "s", domain.OutputRaw, domain.TextData(fmt.Sprintf("line %d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := repo.ListOutput(ctx, "s", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 20)
	for i, msg := range all {
		assert.Equal(t, int64(i+1), msg.Seq)
	}

	tail, err := repo.ListOutput(ctx, "s", 15, 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	assert.Equal(t, int64(16), tail[0].Seq)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(tail[0].Data, &payload))
	assert.Contains(t, payload["text"], "line")

	_, err = repo.AppendOutput(ctx, "missing", domain.OutputRaw, domain.TextData("x"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAppendOutput_TouchesLastActivity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedProject(t, repo, "p")
	seedSession(t, repo, "p", "s", nil)
	before, err := repo.GetSession(ctx, "s")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = repo.AppendOutput(ctx, "s", domain.OutputUser, domain.TextData("hi"))
	require.NoError(t, err)

	after, err := repo.GetSession(ctx, "s")
	require.NoError(t, err)
	assert.True(t, after.LastActivity.After(before.LastActivity))
}

func TestPreferences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.GetPreference(ctx, "expanded")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetPreference(ctx, "expanded", `["f1"]`))
	require.NoError(t, repo.SetPreference(ctx, "expanded", `["f1","f2"]`))

	value, ok, err := repo.GetPreference(ctx, "expanded")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["f1","f2"]`, value)

	require.NoError(t, repo.DeletePreference(ctx, "expanded"))
	_, ok, err = repo.GetPreference(ctx, "expanded")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithRetry(t *testing.T) {
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	t.Run("retries busy errors until success", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, func() error {
			calls++
			if calls < 3 {
				return busy
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 2, func() error {
			calls++
			return busy
		})
		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.True(t, isBusy(err))
	})

	t.Run("other errors are returned at once", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := withRetry(context.Background(), 3, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops the backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := withRetry(ctx, 3, func() error { return busy })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

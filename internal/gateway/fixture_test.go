package gateway

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/adapters/agent"
	"github.com/renato0307/grove/internal/adapters/storage"
	"github.com/renato0307/grove/internal/domain"
	portsmocks "github.com/renato0307/grove/internal/ports/mocks"
	"github.com/renato0307/grove/internal/services"
)

// fixture runs the real services over SQLite behind an httptest server. Git,
// scripts and the supervisor are mocked; sessions are created without a prompt
// so no agent is started.
type fixture struct {
	bus        *services.EventBus
	client     *Client
	dispatcher *Dispatcher
	folders    *services.FolderService
	git        *portsmocks.MockGitRepository
	project    domain.Project
	projects   *services.ProjectService
	server     *httptest.Server
	sessions   *services.SessionService
	store      *storage.SQLiteRepository
	streamer   *services.OutputStreamer
}

func newFixture(t *testing.T, setup ...func(f *fixture)) *fixture {
	t.Helper()

	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	f := &fixture{
		bus:   services.NewEventBus(256),
		git:   portsmocks.NewMockGitRepository(t),
		store: store,
	}
	f.project = domain.Project{
		BaseBranch: "main",
		ID:         uuid.New().String(),
		Name:       "app",
		Path:       t.TempDir(),
	}
	require.NoError(t, store.CreateProject(context.Background(), f.project))

	for _, fn := range setup {
		fn(f)
	}

	f.git.EXPECT().DetectCurrentBranch(mock.Anything, mock.Anything).Return("main").Maybe()
	f.git.EXPECT().BranchExists(mock.Anything, mock.Anything, mock.Anything).Return(false).Maybe()
	f.git.EXPECT().CreateWorktree(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, project domain.Project, name, _ string) (*domain.Worktree, error) {
			return &domain.Worktree{
				BaseCommit: "abc123",
				Branch:     name,
				Path:       filepath.Join(project.ResolveWorktreeFolder(), name),
			}, nil
		}).Maybe()
	f.git.EXPECT().RemoveWorktree(mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	supervisor := portsmocks.NewMockProcessSupervisor(t)
	supervisor.EXPECT().IsRunning(mock.Anything).Return(false).Maybe()
	supervisor.EXPECT().Stop(mock.Anything, mock.Anything).Return(domain.StopResult{}, domain.ErrNotRunning).Maybe()
	scripts := portsmocks.NewMockScriptRunner(t)

	f.sessions = services.NewSessionService(
		store,
		f.git,
		supervisor,
		agent.NewClaudeProtocol(agent.ClaudeConfig{}),
		scripts,
		services.NewPermissionBroker(0),
		f.bus,
		nil,
		domain.PermissionModeApprove,
	)
	f.projects = services.NewProjectService(store, f.git, f.sessions, f.bus)
	f.folders = services.NewFolderService(store, f.bus)
	f.streamer = services.NewOutputStreamer(f.bus, store, store)
	f.dispatcher = NewDispatcher(f.sessions, f.projects, f.folders, services.NewPreferenceService(store))

	f.server = httptest.NewServer(NewHTTPServer("", f.dispatcher, f.bus, f.streamer, f.sessions).Handler())
	f.client, err = NewClient(f.server.URL)
	require.NoError(t, err)

	t.Cleanup(func() {
		f.server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.sessions.Shutdown(ctx)
		_ = store.Close()
	})
	return f
}

// createSession creates an idle session and waits until it is provisioned
func (f *fixture) createSession(t *testing.T, name string) Session {
	t.Helper()
	var created []Session
	require.NoError(t, f.client.Do(context.Background(), "session.create",
		map[string]any{"projectId": f.project.ID, "name": name}, &created))
	require.Len(t, created, 1)

	require.Eventually(t, func() bool {
		s, err := f.store.GetSession(context.Background(), created[0].ID)
		return err == nil && s.Status == domain.StatusReady
	}, 3*time.Second, 5*time.Millisecond)
	return created[0]
}

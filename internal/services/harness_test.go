package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/adapters/agent"
	"github.com/renato0307/grove/internal/adapters/storage"
	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/ports"
	portsmocks "github.com/renato0307/grove/internal/ports/mocks"
)

// fakeAgent stands in for agent processes. Tests drive the output reader and
// the exit through emit and exit.
type fakeAgent struct {
	mu       sync.Mutex
	closed   map[string]int
	exits    sync.WaitGroup
	inputs   map[string][]string
	nextPID  int
	running  map[string]bool
	spawnErr error
	spawns   []ports.SpawnSpec
	specs    map[string]ports.SpawnSpec
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		closed:  make(map[string]int),
		inputs:  make(map[string][]string),
		nextPID: 1000,
		running: make(map[string]bool),
		specs:   make(map[string]ports.SpawnSpec),
	}
}

func (f *fakeAgent) spawn(_ context.Context, spec ports.SpawnSpec) (*domain.ProcessHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return nil, f.spawnErr
	}
	if f.running[spec.SessionID] {
		return nil, domain.ErrAlreadyRunning
	}
	f.nextPID++
	f.running[spec.SessionID] = true
	f.specs[spec.SessionID] = spec
	f.spawns = append(f.spawns, spec)
	return &domain.ProcessHandle{PID: f.nextPID, SessionID: spec.SessionID, StartedAt: time.Now()}, nil
}

func (f *fakeAgent) sendInput(sessionID string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running[sessionID] {
		return domain.ErrNotRunning
	}
	f.inputs[sessionID] = append(f.inputs[sessionID], string(data))
	return nil
}

func (f *fakeAgent) closeInput(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running[sessionID] {
		return domain.ErrNotRunning
	}
	f.closed[sessionID]++
	return nil
}

func (f *fakeAgent) isRunning(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[sessionID]
}

// stop ends the process and, like the supervisor, runs the exit handler on
// another goroutine once the process is gone
func (f *fakeAgent) stop(_ context.Context, sessionID string) (domain.StopResult, error) {
	spec, ok := f.vanish(sessionID)
	if !ok {
		return domain.StopResult{}, domain.ErrNotRunning
	}
	f.exits.Add(1)
	go func() {
		defer f.exits.Done()
		spec.OnExit(domain.ExitStatus{Requested: true, Signal: "terminated"})
	}()
	return domain.StopResult{Graceful: true}, nil
}

// vanish ends the process without running its exit handler and returns the
// spec it was spawned with
func (f *fakeAgent) vanish(sessionID string) (ports.SpawnSpec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running[sessionID] {
		return ports.SpawnSpec{}, false
	}
	f.running[sessionID] = false
	return f.specs[sessionID], true
}

// emit delivers one stdout line the way the output reader does
func (f *fakeAgent) emit(sessionID, line string) {
	f.mu.Lock()
	spec := f.specs[sessionID]
	f.mu.Unlock()
	spec.OnOutput([]byte(line))
}

// exit ends the process and runs its exit handler
func (f *fakeAgent) exit(sessionID string, status domain.ExitStatus) {
	f.mu.Lock()
	spec := f.specs[sessionID]
	f.running[sessionID] = false
	f.mu.Unlock()
	spec.OnExit(status)
}

func (f *fakeAgent) sentTo(sessionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs[sessionID]...)
}

func (f *fakeAgent) closeCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[sessionID]
}

func (f *fakeAgent) spawnsFor(sessionID string) []ports.SpawnSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []ports.SpawnSpec
	for _, s := range f.spawns {
		if s.SessionID == sessionID {
			result = append(result, s)
		}
	}
	return result
}

func (f *fakeAgent) failSpawns(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spawnErr = err
}

type sessionHarness struct {
	agent      *fakeAgent
	broker     *PermissionBroker
	bus        *EventBus
	folders    *FolderService
	git        *portsmocks.MockGitRepository
	project    domain.Project
	projects   *ProjectService
	scripts    *portsmocks.MockScriptRunner
	service    *SessionService
	store      *storage.SQLiteRepository
	supervisor *portsmocks.MockProcessSupervisor
}

// newSessionHarness wires the services to a real SQLite store, mocked git and
// scripts and a fake agent. setup runs before the default expectations, so
// expectations it registers win.
func newSessionHarness(t *testing.T, setup ...func(h *sessionHarness)) *sessionHarness {
	t.Helper()

	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	h := &sessionHarness{
		agent:      newFakeAgent(),
		broker:     NewPermissionBroker(0),
		bus:        NewEventBus(1024),
		git:        portsmocks.NewMockGitRepository(t),
		scripts:    portsmocks.NewMockScriptRunner(t),
		store:      store,
		supervisor: portsmocks.NewMockProcessSupervisor(t),
	}
	h.project = domain.Project{
		BaseBranch: "main",
		ID:         uuid.New().String(),
		Name:       "app",
		Path:       t.TempDir(),
	}

	for _, fn := range setup {
		fn(h)
	}
	require.NoError(t, store.CreateProject(context.Background(), h.project))

	h.git.EXPECT().DetectCurrentBranch(mock.Anything, mock.Anything).Return("main").Maybe()
	h.git.EXPECT().BranchExists(mock.Anything, mock.Anything, mock.Anything).Return(false).Maybe()
	h.git.EXPECT().CreateWorktree(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, project domain.Project, name, base string) (*domain.Worktree, error) {
			return &domain.Worktree{
				BaseCommit: "abc123",
				Branch:     name,
				Path:       filepath.Join(project.ResolveWorktreeFolder(), name),
			}, nil
		}).Maybe()
	h.git.EXPECT().RemoveWorktree(mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.scripts.EXPECT().Run(mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, nil).Maybe()

	h.supervisor.EXPECT().Spawn(mock.Anything, mock.Anything).RunAndReturn(h.agent.spawn).Maybe()
	h.supervisor.EXPECT().SendInput(mock.Anything, mock.Anything).RunAndReturn(h.agent.sendInput).Maybe()
	h.supervisor.EXPECT().CloseInput(mock.Anything).RunAndReturn(h.agent.closeInput).Maybe()
	h.supervisor.EXPECT().IsRunning(mock.Anything).RunAndReturn(h.agent.isRunning).Maybe()
	h.supervisor.EXPECT().Stop(mock.Anything, mock.Anything).RunAndReturn(h.agent.stop).Maybe()

	h.service = NewSessionService(
		store,
		h.git,
		h.supervisor,
		agent.NewClaudeProtocol(agent.ClaudeConfig{}),
		h.scripts,
		h.broker,
		h.bus,
		nil,
		domain.PermissionModeApprove,
	)
	h.projects = NewProjectService(store, h.git, h.service, h.bus)
	h.folders = NewFolderService(store, h.bus)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.service.Shutdown(ctx)
		h.agent.exits.Wait()
		_ = store.Close()
	})
	return h
}

func (h *sessionHarness) create(t *testing.T, params CreateSessionParams) []domain.Session {
	t.Helper()
	if params.ProjectID == "" {
		params.ProjectID = h.project.ID
	}
	sessions, err := h.service.Create(context.Background(), params)
	require.NoError(t, err)
	return sessions
}

func (h *sessionHarness) waitStatus(t *testing.T, id string, want domain.SessionStatus) *domain.Session {
	t.Helper()
	var session *domain.Session
	require.Eventually(t, func() bool {
		s, err := h.store.GetSession(context.Background(), id)
		if err != nil {
			return false
		}
		session = s
		return s.Status == want
	}, 3*time.Second, 5*time.Millisecond, "session %s never reached %s", id, want)
	return session
}

// waitInput waits until the agent of id received at least n writes and returns them
func (h *sessionHarness) waitInput(t *testing.T, id string, n int) []string {
	t.Helper()
	var inputs []string
	require.Eventually(t, func() bool {
		inputs = h.agent.sentTo(id)
		return len(inputs) >= n
	}, 3*time.Second, 5*time.Millisecond, "agent of %s received fewer than %d writes", id, n)
	return inputs
}

func (h *sessionHarness) output(t *testing.T, id string) []domain.OutputMessage {
	t.Helper()
	msgs, err := h.store.ListOutput(context.Background(), id, 0, 0)
	require.NoError(t, err)
	return msgs
}

// outputNow reads the log without failing the test, for use inside Eventually
func (h *sessionHarness) outputNow(id string) []domain.OutputMessage {
	msgs, _ := h.store.ListOutput(context.Background(), id, 0, 0)
	return msgs
}

func permissionLine(requestID, command string) string {
	return fmt.Sprintf(
		`{"type":"control_request","request_id":%q,"request":{"subtype":"can_use_tool","tool_name":"Bash","tool_use_id":"tu-%s","input":{"command":%q}}}`,
		requestID, requestID, command)
}

func resultLine(agentSessionID string) string {
	return fmt.Sprintf(`{"type":"result","subtype":"success","result":"done","session_id":%q}`, agentSessionID)
}

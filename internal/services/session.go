package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// maxSessionCount caps how many variants one create call may start
const maxSessionCount = 10

// SessionService owns the session lifecycle: provisioning, agent turns,
// permission hand-off and the status state machine
type SessionService struct {
	broker      *PermissionBroker
	cancel      context.CancelFunc
	ctx         context.Context
	defaultMode domain.PermissionMode
	events      ports.EventPublisher
	gitRepo     ports.GitRepository
	guards      *sessionGuards
	inspector   ports.ProcessInspector
	protocol    ports.AgentProtocol
	scripts     ports.ScriptRunner
	store       ports.Store
	supervisor  ports.ProcessSupervisor
	watcher     ports.WorktreeWatcher
	wg          sync.WaitGroup
}

// NewSessionService creates a new SessionService and registers it as the
// broker's listener. watcher may be nil.
func NewSessionService(
	store ports.Store,
	gitRepo ports.GitRepository,
	supervisor ports.ProcessSupervisor,
	protocol ports.AgentProtocol,
	scripts ports.ScriptRunner,
	broker *PermissionBroker,
	events ports.EventPublisher,
	watcher ports.WorktreeWatcher,
	defaultMode domain.PermissionMode,
) *SessionService {
	if !defaultMode.IsValid() {
		defaultMode = domain.PermissionModeApprove
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &SessionService{
		broker:      broker,
		cancel:      cancel,
		ctx:         ctx,
		defaultMode: defaultMode,
		events:      events,
		gitRepo:     gitRepo,
		guards:      newSessionGuards(),
		protocol:    protocol,
		scripts:     scripts,
		store:       store,
		supervisor:  supervisor,
		watcher:     watcher,
	}
	broker.SetListener(s)
	return s
}

// SetProcessInspector enables terminating orphaned agents during Recover
func (s *SessionService) SetProcessInspector(inspector ports.ProcessInspector) {
	s.inspector = inspector
}

// Shutdown interrupts background provisioning, denies pending permission
// waits and waits for background work to finish or ctx to end
func (s *SessionService) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background session work did not finish: %w", ctx.Err())
	}
}

// Create validates the request, persists the sessions in initializing and
// provisions each one in the background
func (s *SessionService) Create(ctx context.Context, params CreateSessionParams) ([]domain.Session, error) {
	if params.ProjectID == "" {
		return nil, domain.NewValidationError("projectId", "is required")
	}
	if params.Count == 0 {
		params.Count = 1
	}
	if params.Count < 1 || params.Count > maxSessionCount {
		return nil, domain.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", maxSessionCount))
	}
	if params.PermissionMode == "" {
		params.PermissionMode = s.defaultMode
	}
	if !params.PermissionMode.IsValid() {
		return nil, domain.NewValidationError("permissionMode", "must be 'ignore' or 'approve'")
	}
	if params.MainRepo && params.Count > 1 {
		return nil, domain.NewValidationError("count", "a project has a single main repo session")
	}
	params.Prompt = strings.TrimSpace(params.Prompt)
	if params.Name != "" {
		if err := domain.ValidateSessionName(params.Name); err != nil {
			return nil, err
		}
	}

	project, err := s.store.GetProject(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}

	baseBranch := params.BaseBranch
	if baseBranch == "" {
		baseBranch = project.BaseBranch
	}
	if baseBranch == "" || params.MainRepo {
		if current := s.gitRepo.DetectCurrentBranch(ctx, project.Path); current != domain.NoBranch {
			baseBranch = current
		}
	}
	if baseBranch == "" {
		return nil, domain.NewValidationError("baseBranch", "could not be detected, pass one explicitly")
	}

	existing, err := s.store.ListSessions(ctx, ports.SessionFilter{IncludeArchived: true, ProjectID: project.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if params.MainRepo {
		for _, e := range existing {
			if e.IsMainRepo {
				return nil, domain.ConflictError("project %s already has a main repo session (%s)", project.Name, e.Name)
			}
		}
	}

	names, err := s.resolveNames(ctx, *project, params, existing)
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("Creating sessions",
		"project_id", project.ID, "names", names, "permission_mode", params.PermissionMode, "main_repo", params.MainRepo)

	created := make([]domain.Session, 0, len(names))
	for _, name := range names {
		session := domain.Session{
			BaseBranch:     baseBranch,
			CreatedAt:      time.Now().UTC(),
			FolderID:       params.FolderID,
			ID:             uuid.New().String(),
			IsMainRepo:     params.MainRepo,
			Name:           name,
			PermissionMode: params.PermissionMode,
			ProjectID:      project.ID,
			Prompt:         params.Prompt,
			Status:         domain.StatusInitializing,
		}
		if params.MainRepo {
			session.Branch = baseBranch
		}
		if err := s.store.CreateSession(ctx, session); err != nil {
			logging.Logger.Error("Failed to persist session", "name", name, "error", err)
			return created, fmt.Errorf("failed to create session %s: %w", name, err)
		}

		stored, err := s.store.GetSession(ctx, session.ID)
		if err != nil {
			return created, err
		}
		s.events.Publish(ctx, domain.NewEvent(domain.EventSessionCreated, *stored))
		created = append(created, *stored)

		s.startProvisioning(*stored, *project)
	}

	return created, nil
}

// resolveNames returns the names of the sessions to create. Explicit names
// must be free; derived names take the next free numeric suffix.
func (s *SessionService) resolveNames(
	ctx context.Context,
	project domain.Project,
	params CreateSessionParams,
	existing []domain.Session,
) ([]string, error) {
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.Name] = true
	}
	free := func(name string) bool {
		if taken[name] {
			return false
		}
		if params.MainRepo {
			return true
		}
		if s.gitRepo.BranchExists(ctx, project.Path, name) {
			return false
		}
		_, err := os.Stat(filepath.Join(project.ResolveWorktreeFolder(), name))
		return os.IsNotExist(err)
	}

	if params.Name != "" {
		names := []string{params.Name}
		if params.Count > 1 {
			names = names[:0]
			for i := 1; i <= params.Count; i++ {
				names = append(names, fmt.Sprintf("%s-%d", params.Name, i))
			}
		}
		for _, name := range names {
			if err := domain.ValidateSessionName(name); err != nil {
				return nil, err
			}
			if !free(name) {
				return nil, fmt.Errorf("session '%s': %w", name, domain.ErrBranchExists)
			}
		}
		return names, nil
	}

	base := domain.DeriveSessionName(params.Prompt)
	var names []string
	if params.Count == 1 && free(base) {
		return []string{base}, nil
	}
	start := 1
	if params.Count == 1 {
		start = 2
	}
	for i := start; len(names) < params.Count; i++ {
		if i > start+1000 {
			return nil, domain.ConflictError("no free name derived from '%s'", base)
		}
		candidate := fmt.Sprintf("%s-%d", base, i)
		if free(candidate) {
			names = append(names, candidate)
			taken[candidate] = true
		}
	}
	return names, nil
}

// Get returns one session
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.GetSession(ctx, id)
}

// List returns sessions in display order
func (s *SessionService) List(ctx context.Context, filter ports.SessionFilter) ([]domain.Session, error) {
	return s.store.ListSessions(ctx, filter)
}

// Output returns a page of a session's output log
func (s *SessionService) Output(ctx context.Context, id string, afterSeq int64, limit int) ([]domain.OutputMessage, error) {
	if _, err := s.store.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListOutput(ctx, id, afterSeq, limit)
}

// SendInput writes text to the session's agent. A session whose process has
// finished its turn is resumed with a new process.
func (s *SessionService) SendInput(ctx context.Context, id, text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewValidationError("text", "cannot be empty")
	}

	g := s.guards.get(id)
	g.cmd.Lock()
	defer g.cmd.Unlock()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session.Archived {
		return domain.ConflictError("session %s is archived", session.Name)
	}
	if session.Status == domain.StatusInitializing {
		return domain.ConflictError("session %s is still initializing", session.Name)
	}

	if !s.supervisor.IsRunning(id) {
		return s.startTurn(ctx, session, text)
	}

	data, err := s.protocol.EncodeUserMessage(text)
	if err != nil {
		return err
	}
	if err := s.supervisor.SendInput(id, data); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			return domain.ConflictError("agent for session %s is finishing its turn, send again once it completes", session.Name)
		}
		return err
	}
	s.appendOutput(ctx, id, domain.OutputUser, domain.TextData(text))
	return nil
}

// Stop cancels pending permission waits and terminates the session's agent
func (s *SessionService) Stop(ctx context.Context, id string) (domain.StopResult, error) {
	g := s.guards.get(id)
	g.cancelBackground()

	g.cmd.Lock()
	defer g.cmd.Unlock()

	if _, err := s.store.GetSession(ctx, id); err != nil {
		return domain.StopResult{}, err
	}

	logging.Logger.Info("Stopping session", "session_id", id)
	s.broker.CancelSession(id, "session stopped")

	result, err := s.supervisor.Stop(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return result, err
	}
	// Requests submitted while the process wound down
	s.broker.CancelSession(id, "session stopped")

	if _, err := s.setStatus(ctx, id, domain.StatusStopped, "", ""); err != nil {
		return result, err
	}
	return result, nil
}

// Delete stops the session, removes its worktree and forgets it
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id, false)
}

// delete tears a session down. With force, cleanup failures are logged and
// the record is removed anyway.
func (s *SessionService) delete(ctx context.Context, id string, force bool) error {
	g := s.guards.get(id)
	select {
	case <-g.cancelBackground():
	case <-ctx.Done():
		return ctx.Err()
	}

	g.cmd.Lock()
	defer g.cmd.Unlock()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	project, err := s.store.GetProject(ctx, session.ProjectID)
	if err != nil {
		return err
	}

	logging.Logger.Info("Deleting session", "session_id", id, "name", session.Name, "force", force)
	s.broker.CancelSession(id, "session deleted")

	stopped := true
	if _, err := s.supervisor.Stop(ctx, id); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		if !force {
			return err
		}
		stopped = false
		logging.Logger.Warn("Failed to stop agent before delete, keeping its worktree", "session_id", id, "error", err)
	}

	// Only an exited process lets the worktree go
	s.unwatch(*session)
	if stopped && !session.IsMainRepo && session.WorktreePath != "" {
		if err := s.gitRepo.RemoveWorktree(ctx, *project, *session); err != nil {
			if !force {
				s.recordFailure(ctx, id, "failed to remove worktree", err)
				return err
			}
			logging.Logger.Warn("Failed to remove worktree, deleting session anyway", "session_id", id, "error", err)
		}
	}

	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.guards.remove(id)

	// Queued behind anything the session still had to publish
	g.queue(domain.NewEvent(domain.EventSessionDeleted, domain.DeletedPayload{ID: id, ProjectID: session.ProjectID}))
	s.flush(g)
	return nil
}

// Archive hides a session. A live agent is stopped first so archived
// sessions never hold pending permission requests.
func (s *SessionService) Archive(ctx context.Context, id string) (*domain.Session, error) {
	g := s.guards.get(id)
	g.cancelBackground()

	g.cmd.Lock()
	defer g.cmd.Unlock()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Archived {
		return session, nil
	}

	s.broker.CancelSession(id, "session archived")
	if _, err := s.supervisor.Stop(ctx, id); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return nil, err
	}
	switch session.Status {
	case domain.StatusInitializing, domain.StatusRunning, domain.StatusWaiting:
		if _, err := s.setStatus(ctx, id, domain.StatusStopped, "", ""); err != nil {
			return nil, err
		}
	}

	if err := s.store.SetSessionArchived(ctx, id, true); err != nil {
		return nil, err
	}
	logging.Logger.Info("Session archived", "session_id", id)
	return s.publishSession(ctx, id)
}

// Unarchive shows an archived session again
func (s *SessionService) Unarchive(ctx context.Context, id string) (*domain.Session, error) {
	if err := s.store.SetSessionArchived(ctx, id, false); err != nil {
		return nil, err
	}
	return s.publishSession(ctx, id)
}

// Move puts a session into a folder, or at the project root when folderID is nil
func (s *SessionService) Move(ctx context.Context, id string, folderID *string) (*domain.Session, error) {
	if err := s.store.MoveSession(ctx, id, folderID); err != nil {
		return nil, err
	}
	return s.publishSession(ctx, id)
}

// Reorder applies a sibling batch of display orders atomically
func (s *SessionService) Reorder(ctx context.Context, updates []domain.OrderUpdate) error {
	if err := domain.ValidateOrderUpdates(updates); err != nil {
		return err
	}
	if err := s.store.ReorderSessions(ctx, updates); err != nil {
		return err
	}
	for _, u := range updates {
		if _, err := s.publishSession(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// View marks a completed session as seen
func (s *SessionService) View(ctx context.Context, id string) (*domain.Session, error) {
	g := s.guards.get(id)
	g.state.Lock()
	defer s.releaseState(g)

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.StatusCompletedUnviewed {
		return session, nil
	}
	if _, err := s.setStatusLocked(ctx, id, domain.StatusReady, "", ""); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, id)
}

// RunScript starts the project's run script in the session's working
// directory. Its output is logged; the session status is left alone.
func (s *SessionService) RunScript(ctx context.Context, id string) error {
	g := s.guards.get(id)
	g.cmd.Lock()
	defer g.cmd.Unlock()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	project, err := s.store.GetProject(ctx, session.ProjectID)
	if err != nil {
		return err
	}
	if project.RunScript == "" {
		return domain.NewValidationError("runScript", "project has no run script")
	}
	dir := session.WorkingDir(*project)
	if session.Status == domain.StatusInitializing || dir == "" {
		return domain.ConflictError("session %s has no worktree yet", session.Name)
	}

	scriptCtx, cancel := context.WithCancel(s.ctx)
	if !g.startScript(cancel) {
		cancel()
		return domain.ConflictError("run script already running for session %s", session.Name)
	}

	logging.Logger.Info("Starting run script", "session_id", id, "dir", dir)
	s.appendOutput(ctx, id, domain.OutputSystem, domain.TextData("Running run script"))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer g.finishScript()
		defer cancel()

		persist := context.WithoutCancel(scriptCtx)
		code, err := s.scripts.Run(scriptCtx, dir, project.RunScript, func(line string) {
			s.appendOutput(persist, id, domain.OutputScript, domain.TextData(line))
		})
		if err != nil {
			s.appendOutput(persist, id, domain.OutputError, domain.TextData(fmt.Sprintf("run script failed: %v", err)))
			return
		}
		s.appendOutput(persist, id, domain.OutputSystem, domain.TextData(fmt.Sprintf("Run script exited with code %d", code)))
	}()
	return nil
}

// RequestPermission intercepts a tool call raised through the MCP bridge.
// Sessions without a live agent are denied without creating a request.
func (s *SessionService) RequestPermission(ctx context.Context, id string, tool domain.ToolCall) (domain.PermissionDecision, error) {
	g := s.guards.get(id)
	g.cmd.Lock()
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		g.cmd.Unlock()
		return domain.PermissionDecision{}, err
	}
	if session.Archived || !session.Status.IsActive() {
		g.cmd.Unlock()
		logging.Logger.Warn("Denying tool call for inactive session", "session_id", id, "status", session.Status)
		return domain.CancelledDeny(fmt.Sprintf("session %s is not running", session.Name)), nil
	}
	ticket := s.broker.Submit(id, session.PermissionMode, "", tool)
	g.cmd.Unlock()

	return ticket.Wait(ctx), nil
}

// RespondPermission resolves a pending permission request
func (s *SessionService) RespondPermission(ctx context.Context, requestID string, decision domain.PermissionDecision) error {
	return s.broker.Respond(requestID, decision)
}

// ListPermissions returns pending permission requests; an empty id lists all sessions
func (s *SessionService) ListPermissions(ctx context.Context, sessionID string) []domain.PermissionRequest {
	return s.broker.List(sessionID)
}

// Recover reconciles persisted status with the fact that no agent process
// survives a daemon restart. Returns the number of sessions changed.
func (s *SessionService) Recover(ctx context.Context) (int, error) {
	sessions, err := s.store.ListSessions(ctx, ports.SessionFilter{IncludeArchived: true})
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	changed := 0
	for _, session := range sessions {
		s.watch(session)

		var target domain.SessionStatus
		var message string
		switch session.Status {
		case domain.StatusInitializing:
			target, message = domain.StatusError, "provisioning was interrupted by a restart"
		case domain.StatusRunning, domain.StatusWaiting:
			target, message = domain.StatusStopped, "agent process did not survive a restart"
		default:
			continue
		}
		s.terminateOrphan(session)

		if err := s.store.UpdateSessionProcess(ctx, session.ID, 0, ""); err != nil {
			return changed, err
		}
		ok, err := s.setStatus(ctx, session.ID, target, message, "")
		if err != nil {
			return changed, err
		}
		if ok {
			s.appendOutput(ctx, session.ID, domain.OutputSystem, domain.TextData(message))
			changed++
		}
	}

	logging.Logger.Info("Recovered sessions after restart", "total", len(sessions), "changed", changed)
	return changed, nil
}

// terminateOrphan stops an agent left running by a daemon that exited without
// stopping it. Its output can no longer be read, so it is not re-adopted.
func (s *SessionService) terminateOrphan(session domain.Session) {
	if s.inspector == nil || session.PID == 0 || !s.inspector.IsAgentProcess(session.PID, session.ID) {
		return
	}
	if err := s.inspector.Terminate(session.PID); err != nil {
		logging.Logger.Warn("Failed to terminate orphaned agent", "session_id", session.ID, "pid", session.PID, "error", err)
		return
	}
	logging.Logger.Info("Terminated orphaned agent", "session_id", session.ID, "pid", session.PID)
}

// HandleWorktreeVanished moves sessions whose worktree was removed outside
// grove to error and stops their agents
func (s *SessionService) HandleWorktreeVanished(path string) {
	ctx := s.ctx
	sessions, err := s.store.ListSessions(ctx, ports.SessionFilter{IncludeArchived: true})
	if err != nil {
		logging.Logger.Error("Failed to list sessions for vanished worktree", "path", path, "error", err)
		return
	}

	for _, session := range sessions {
		if session.IsMainRepo || session.WorktreePath != path {
			continue
		}
		logging.Logger.Warn("Session worktree vanished", "session_id", session.ID, "path", path)

		message := "worktree directory was removed outside grove"
		// Error first, so the requested exit below cannot overwrite it with stopped
		if _, err := s.setStatus(ctx, session.ID, domain.StatusError, message, path); err != nil {
			logging.Logger.Error("Failed to record vanished worktree", "session_id", session.ID, "error", err)
		}
		s.appendOutput(ctx, session.ID, domain.OutputError, domain.TextData(message))

		g := s.guards.get(session.ID)
		g.cmd.Lock()
		s.broker.CancelSession(session.ID, "worktree removed")
		if _, err := s.supervisor.Stop(ctx, session.ID); err != nil && !errors.Is(err, domain.ErrNotRunning) {
			logging.Logger.Error("Failed to stop agent of vanished worktree", "session_id", session.ID, "error", err)
		}
		g.cmd.Unlock()
	}
}

func (s *SessionService) watch(session domain.Session) {
	if s.watcher == nil || session.IsMainRepo || session.WorktreePath == "" {
		return
	}
	if err := s.watcher.Watch(session.WorktreePath); err != nil {
		logging.Logger.Warn("Failed to watch worktree", "path", session.WorktreePath, "error", err)
	}
}

func (s *SessionService) unwatch(session domain.Session) {
	if s.watcher == nil || session.WorktreePath == "" {
		return
	}
	s.watcher.Unwatch(session.WorktreePath)
}

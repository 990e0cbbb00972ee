package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/metrics"
	"github.com/renato0307/grove/internal/ports"
)

// Verify interface compliance at compile time
var _ PermissionListener = (*SessionService)(nil)

// startProvisioning runs provision in the background; stop and delete cancel it
func (s *SessionService) startProvisioning(session domain.Session, project domain.Project) {
	g := s.guards.get(session.ID)
	ctx, cancel := context.WithCancel(s.ctx)
	done := g.startProvisioning(cancel)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer g.finishProvisioning(done)
		defer cancel()
		s.provision(ctx, session, project)
	}()
}

// provision creates the worktree, runs the build script and starts the first
// turn when the session has a prompt
func (s *SessionService) provision(ctx context.Context, session domain.Session, project domain.Project) {
	id := session.ID
	persist := context.WithoutCancel(ctx)
	logging.Logger.Info("Provisioning session", "session_id", id, "name", session.Name, "main_repo", session.IsMainRepo)

	if !session.IsMainRepo {
		s.appendOutput(persist, id, domain.OutputSystem,
			domain.TextData(fmt.Sprintf("Creating worktree %s from %s", session.Name, session.BaseBranch)))

		worktree, err := s.gitRepo.CreateWorktree(ctx, project, session.Name, session.BaseBranch)
		if err != nil {
			s.failProvisioning(ctx, id, "failed to create worktree", err)
			return
		}
		if err := s.store.UpdateSessionWorktree(persist, id, *worktree); err != nil {
			s.failProvisioning(ctx, id, "failed to record worktree", err)
			return
		}
		session.WorktreePath = worktree.Path
		s.watch(session)
		if _, err := s.publishSession(persist, id); err != nil {
			logging.Logger.Warn("Failed to publish worktree update", "session_id", id, "error", err)
		}
	}

	if project.BuildScript != "" {
		s.appendOutput(persist, id, domain.OutputSystem, domain.TextData("Running build script"))
		code, err := s.scripts.Run(ctx, session.WorkingDir(project), project.BuildScript, func(line string) {
			s.appendOutput(persist, id, domain.OutputScript, domain.TextData(line))
		})
		if err != nil {
			s.failProvisioning(ctx, id, "build script failed", err)
			return
		}
		if code != 0 {
			s.failProvisioning(ctx, id, "build script failed", fmt.Errorf("exited with code %d", code))
			return
		}
	}

	if ctx.Err() != nil {
		logging.Logger.Info("Provisioning interrupted", "session_id", id)
		return
	}
	ready, err := s.setStatus(persist, id, domain.StatusReady, "", "")
	if err != nil || !ready {
		return
	}
	if session.Prompt == "" {
		return
	}

	g := s.guards.get(id)
	g.cmd.Lock()
	defer g.cmd.Unlock()

	if ctx.Err() != nil {
		return
	}
	current, err := s.store.GetSession(persist, id)
	if err != nil || current.Status != domain.StatusReady {
		return
	}
	if err := s.startTurn(persist, current, session.Prompt); err != nil {
		logging.Logger.Error("Failed to start first turn", "session_id", id, "error", err)
	}
}

// failProvisioning records a provisioning failure unless stop or delete interrupted it
func (s *SessionService) failProvisioning(ctx context.Context, id, what string, err error) {
	if ctx.Err() != nil {
		logging.Logger.Info("Provisioning interrupted", "session_id", id, "step", what, "error", err)
		return
	}
	s.recordFailure(context.WithoutCancel(ctx), id, what, err)
}

// recordFailure moves a session to error with the raw command output when there is one
func (s *SessionService) recordFailure(ctx context.Context, id, what string, err error) {
	message := fmt.Sprintf("%s: %v", what, err)
	raw := ""
	var gitErr *domain.GitOperationError
	if errors.As(err, &gitErr) {
		message = fmt.Sprintf("%s: %v", what, gitErr.Err)
		raw = gitErr.Output
	}

	logging.Logger.Error("Session failed", "session_id", id, "error", err)
	if _, setErr := s.setStatus(ctx, id, domain.StatusError, message, raw); setErr != nil {
		logging.Logger.Error("Failed to record session error", "session_id", id, "error", setErr)
	}
	s.appendOutput(ctx, id, domain.OutputError, domain.TextData(message))
}

// startTurn launches an agent process and sends it text. Caller holds the cmd lock.
func (s *SessionService) startTurn(ctx context.Context, session *domain.Session, text string) error {
	id := session.ID
	if session.Status != domain.StatusRunning && !domain.CanTransition(session.Status, domain.StatusRunning) {
		return domain.ConflictError("session %s cannot start from status %s", session.Name, session.Status)
	}

	project, err := s.store.GetProject(ctx, session.ProjectID)
	if err != nil {
		return err
	}
	message, err := s.protocol.EncodeUserMessage(text)
	if err != nil {
		return err
	}

	command, args, env := s.protocol.BuildCommand(ports.AgentLaunch{
		PermissionMode: session.PermissionMode,
		ResumeID:       session.AgentSessionID,
		SessionID:      id,
		WorkingDir:     session.WorkingDir(*project),
	})

	g := s.guards.get(id)
	g.state.Lock()

	// Running before spawn so an immediate exit finds a status it can leave
	if _, err := s.setStatusLocked(ctx, id, domain.StatusRunning, "", ""); err != nil {
		s.releaseState(g)
		return err
	}

	turn := g.beginTurn()
	handle, err := s.supervisor.Spawn(ctx, ports.SpawnSpec{
		Args:      args,
		Command:   command,
		Dir:       session.WorkingDir(*project),
		Env:       env,
		OnExit:    s.onExit(g, id, turn),
		OnOutput:  s.onOutput(id, session.PermissionMode),
		SessionID: id,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyRunning) {
			msg := fmt.Sprintf("failed to start agent: %v", err)
			if _, setErr := s.setStatusLocked(ctx, id, domain.StatusError, msg, ""); setErr != nil {
				logging.Logger.Error("Failed to record spawn failure", "session_id", id, "error", setErr)
			}
			s.appendOutputLocked(ctx, id, domain.OutputError, domain.TextData(msg))
		}
		s.releaseState(g)
		return err
	}

	g.setProcess(turn, handle.PID)
	if err := s.store.UpdateSessionProcess(ctx, id, handle.PID, ""); err != nil {
		logging.Logger.Error("Failed to record agent pid", "session_id", id, "error", err)
	}
	if err := s.queueSessionLocked(ctx, g, id); err != nil {
		logging.Logger.Warn("Failed to publish session", "session_id", id, "error", err)
	}
	s.releaseState(g)

	if err := s.supervisor.SendInput(id, message); err != nil {
		// The process died right away; its exit handler records why
		logging.Logger.Warn("Failed to send prompt to agent", "session_id", id, "error", err)
		return nil
	}
	s.appendOutput(ctx, id, domain.OutputUser, domain.TextData(text))
	return nil
}

// onOutput records each agent line and hands permission requests to the broker
func (s *SessionService) onOutput(id string, mode domain.PermissionMode) func([]byte) {
	return func(line []byte) {
		ctx := s.ctx
		msg := s.protocol.ParseLine(line)

		if msg.AgentSessionID != "" {
			s.recordAgentSession(ctx, id, msg.AgentSessionID)
		}

		if msg.Kind == domain.AgentRaw {
			s.appendOutput(context.WithoutCancel(ctx), id, domain.OutputRaw, domain.TextData(msg.Text))
		} else {
			s.appendOutput(context.WithoutCancel(ctx), id, domain.OutputAgent, json.RawMessage(msg.Raw))
		}

		switch msg.Kind {
		case domain.AgentPermissionRequest:
			s.submitPermission(id, mode, msg.Permission)
		case domain.AgentResult:
			// One turn per process: closing stdin lets the agent exit cleanly
			if err := s.supervisor.CloseInput(id); err != nil && !errors.Is(err, domain.ErrNotRunning) {
				logging.Logger.Warn("Failed to close agent input", "session_id", id, "error", err)
			}
		}
	}
}

func (s *SessionService) recordAgentSession(ctx context.Context, id, agentSessionID string) {
	g := s.guards.get(id)
	pid, changed := g.setAgentSession(agentSessionID)
	if !changed {
		return
	}
	if err := s.store.UpdateSessionProcess(context.WithoutCancel(ctx), id, pid, agentSessionID); err != nil {
		logging.Logger.Error("Failed to record agent session id", "session_id", id, "error", err)
	}
}

// submitPermission registers the request synchronously, so a stop that waits
// for the output reader always sees it, and delivers the decision later
func (s *SessionService) submitPermission(id string, mode domain.PermissionMode, permission *domain.AgentPermission) {
	ticket := s.broker.Submit(id, mode, permission.RequestID, permission.Tool)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		decision := ticket.Wait(s.ctx)
		s.deliverDecision(id, permission.RequestID, decision)
	}()
}

// deliverDecision writes a permission decision to the agent's stdin
func (s *SessionService) deliverDecision(id, agentRequestID string, decision domain.PermissionDecision) {
	data, err := s.protocol.EncodePermissionResponse(agentRequestID, decision)
	if err != nil {
		logging.Logger.Error("Failed to encode permission response", "session_id", id, "error", err)
		return
	}

	g := s.guards.get(id)
	g.cmd.Lock()
	defer g.cmd.Unlock()

	if err := s.supervisor.SendInput(id, data); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			logging.Logger.Debug("Agent gone before permission decision was delivered", "session_id", id)
			return
		}
		logging.Logger.Error("Failed to deliver permission decision", "session_id", id, "error", err)
	}
}

// onExit settles the session status once the agent process of turn has
// ended. It runs under the cmd lock, so a turn started by SendInput either
// sees its effects or makes it stale.
func (s *SessionService) onExit(g *sessionGuard, id string, turn uint64) func(domain.ExitStatus) {
	return func(status domain.ExitStatus) {
		ctx := context.WithoutCancel(s.ctx)
		g.cmd.Lock()
		defer g.cmd.Unlock()

		if !g.endTurn(turn) {
			logging.Logger.Debug("Ignoring exit of a replaced agent process",
				"session_id", id, "turn", turn, "code", status.Code, "signal", status.Signal)
			return
		}

		hadPending := s.broker.CancelSession(id, "agent process exited") > 0

		g.state.Lock()
		defer s.releaseState(g)

		if err := s.store.UpdateSessionProcess(ctx, id, 0, ""); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return
			}
			logging.Logger.Error("Failed to clear agent pid", "session_id", id, "error", err)
		}

		var target domain.SessionStatus
		var message, raw string
		switch {
		case status.Requested:
			target = domain.StatusStopped
		case status.Clean() && !hadPending:
			target = domain.StatusCompletedUnviewed
		case status.Clean():
			target, message = domain.StatusStopped, "agent exited with a permission request pending"
		default:
			target, message, raw = domain.StatusError, describeExit(status), status.StderrTail
		}

		logging.Logger.Info("Agent process exited",
			"session_id", id, "code", status.Code, "signal", status.Signal, "requested", status.Requested, "status", target)

		note := describeExit(status)
		if target == domain.StatusError {
			s.appendOutputLocked(ctx, id, domain.OutputError, domain.TextData(note))
		} else {
			s.appendOutputLocked(ctx, id, domain.OutputSystem, domain.TextData(note))
		}
		if _, err := s.setStatusLocked(ctx, id, target, message, raw); err != nil {
			logging.Logger.Error("Failed to record agent exit", "session_id", id, "error", err)
		}
	}
}

func describeExit(status domain.ExitStatus) string {
	switch {
	case status.Signal != "":
		return fmt.Sprintf("agent terminated by signal %s", status.Signal)
	case status.Code == 0:
		return "agent exited"
	default:
		return fmt.Sprintf("agent exited with code %d", status.Code)
	}
}

// OnPermissionRequested implements PermissionListener
func (s *SessionService) OnPermissionRequested(ctx context.Context, request domain.PermissionRequest) {
	ctx = context.WithoutCancel(ctx)
	g := s.guards.get(request.SessionID)
	g.state.Lock()
	defer s.releaseState(g)

	if _, err := s.setStatusLocked(ctx, request.SessionID, domain.StatusWaiting, "", ""); err != nil {
		logging.Logger.Error("Failed to mark session waiting", "session_id", request.SessionID, "error", err)
	}
	g.queue(domain.NewEvent(domain.EventPermissionRequested, request))
}

// OnPermissionResolved implements PermissionListener
func (s *SessionService) OnPermissionResolved(ctx context.Context, request domain.PermissionRequest, decision domain.PermissionDecision) {
	id := request.SessionID
	g := s.guards.get(id)
	g.state.Lock()
	defer s.releaseState(g)

	record, err := json.Marshal(permissionRecord{
		Behavior:     decision.Behavior,
		Cancelled:    decision.Cancelled,
		Message:      decision.Message,
		RequestID:    request.ID,
		ToolName:     request.ToolName,
		UpdatedInput: decision.UpdatedInput,
	})
	if err == nil {
		s.appendOutputLocked(ctx, id, domain.OutputPermission, record)
	}

	if !decision.Cancelled && !s.broker.HasPending(id) {
		session, err := s.store.GetSession(ctx, id)
		if err == nil && session.Status == domain.StatusWaiting {
			if _, err := s.setStatusLocked(ctx, id, domain.StatusRunning, "", ""); err != nil {
				logging.Logger.Error("Failed to resume session", "session_id", id, "error", err)
			}
		}
	}

	g.queue(domain.NewEvent(domain.EventPermissionResolved, domain.PermissionResolvedPayload{
		Behavior:  decision.Behavior,
		Cancelled: decision.Cancelled,
		RequestID: request.ID,
		SessionID: id,
	}))
}

// setStatus applies a transition under the session's state lock
func (s *SessionService) setStatus(ctx context.Context, id string, to domain.SessionStatus, message, raw string) (bool, error) {
	g := s.guards.get(id)
	g.state.Lock()
	defer s.releaseState(g)
	return s.setStatusLocked(ctx, id, to, message, raw)
}

// setStatusLocked persists a transition and queues the updated session.
// Transitions the state machine does not allow are skipped and return false.
func (s *SessionService) setStatusLocked(ctx context.Context, id string, to domain.SessionStatus, message, raw string) (bool, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	if session.Status == to {
		return false, nil
	}
	if !domain.CanTransition(session.Status, to) {
		logging.Logger.Debug("Skipping status transition", "session_id", id, "from", session.Status, "to", to)
		return false, nil
	}

	if err := s.store.UpdateSessionStatus(ctx, id, to, message, raw); err != nil {
		return false, fmt.Errorf("failed to update session status: %w", err)
	}
	metrics.SessionTransitions.WithLabelValues(string(to)).Inc()
	logging.Logger.Info("Session status changed", "session_id", id, "from", session.Status, "to", to)

	if err := s.queueSessionLocked(ctx, s.guards.get(id), id); err != nil {
		return true, err
	}
	return true, nil
}

// queueSessionLocked re-reads a session and queues session.updated
func (s *SessionService) queueSessionLocked(ctx context.Context, g *sessionGuard, id string) error {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	g.queue(domain.NewEvent(domain.EventSessionUpdated, *session))
	return nil
}

// publishSession re-reads a session and emits session.updated
func (s *SessionService) publishSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	g := s.guards.get(id)
	g.queue(domain.NewEvent(domain.EventSessionUpdated, *session))
	s.flush(g)
	return session, nil
}

// releaseState unlocks the state lock, then publishes what was queued under it
func (s *SessionService) releaseState(g *sessionGuard) {
	g.state.Unlock()
	s.flush(g)
}

// flush publishes the session's queued events in order. One caller drains
// at a time; the others leave their events to it and return, so a slow
// subscriber holds up only the draining caller.
func (s *SessionService) flush(g *sessionGuard) {
	for g.emit.TryLock() {
		for events := g.takeOutbox(); len(events) > 0; events = g.takeOutbox() {
			for _, event := range events {
				s.events.Publish(s.ctx, event)
			}
		}
		g.emit.Unlock()
		// An event queued while the lock was being released
		if !g.hasQueued() {
			return
		}
	}
}

// appendOutput records an output message and then publishes it
func (s *SessionService) appendOutput(ctx context.Context, id string, outputType domain.OutputType, data json.RawMessage) {
	g := s.guards.get(id)
	g.state.Lock()
	defer s.releaseState(g)
	s.appendOutputLocked(ctx, id, outputType, data)
}

func (s *SessionService) appendOutputLocked(ctx context.Context, id string, outputType domain.OutputType, data json.RawMessage) {
	msg, err := s.store.AppendOutput(ctx, id, outputType, data)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logging.Logger.Debug("Dropping output for deleted session", "session_id", id)
			return
		}
		logging.Logger.Error("Failed to append session output", "session_id", id, "error", err)
		return
	}
	metrics.OutputMessages.WithLabelValues(string(outputType)).Inc()
	s.guards.get(id).queue(domain.NewEvent(domain.EventSessionOutput, msg))
}

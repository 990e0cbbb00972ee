package agent

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/metrics"
	"github.com/renato0307/grove/internal/ports"
)

const (
	// DefaultGracePeriod is how long Stop waits after SIGTERM before SIGKILL
	DefaultGracePeriod = 5 * time.Second
	// defaultReapTimeout bounds the wait after SIGKILL so Stop always returns
	defaultReapTimeout = 5 * time.Second
	// stderrTailBytes is how much stderr is kept for error reports
	stderrTailBytes = 4096
)

// Supervisor implements ports.ProcessSupervisor with one OS process group per session
type Supervisor struct {
	gracePeriod time.Duration
	handles     map[string]*process
	mu          sync.Mutex
	reapTimeout time.Duration
	// starting reserves a session while its process is being started
	starting map[string]bool
}

// Verify interface compliance at compile time
var _ ports.ProcessSupervisor = (*Supervisor)(nil)

// process is the supervisor's view of one live agent
type process struct {
	cmd           *exec.Cmd
	handle        domain.ProcessHandle
	stderr        *tailBuffer
	stdin         io.WriteCloser
	stdinClosed   bool
	stopRequested bool
	waitDone      chan struct{}
	writeMu       sync.Mutex
}

// NewSupervisor creates a Supervisor. A zero grace period uses DefaultGracePeriod.
func NewSupervisor(gracePeriod time.Duration) *Supervisor {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return &Supervisor{
		gracePeriod: gracePeriod,
		handles:     make(map[string]*process),
		reapTimeout: defaultReapTimeout,
		starting:    make(map[string]bool),
	}
}

// Spawn implements ProcessSupervisor.Spawn
func (s *Supervisor) Spawn(ctx context.Context, spec ports.SpawnSpec) (*domain.ProcessHandle, error) {
	if !s.reserve(spec.SessionID) {
		metrics.AgentSpawns.WithLabelValues("already_running").Inc()
		return nil, &domain.ProcessError{Err: domain.ErrAlreadyRunning, Op: "spawn", SessionID: spec.SessionID}
	}

	logging.Logger.Info("Spawning agent process",
		"session_id", spec.SessionID, "command", spec.Command, "dir", spec.Dir)

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	// Own process group so stop reaches tools the agent started
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	fail := func(err error) (*domain.ProcessHandle, error) {
		s.release(spec.SessionID)
		metrics.AgentSpawns.WithLabelValues("failed").Inc()
		logging.Logger.Error("Failed to spawn agent process", "session_id", spec.SessionID, "error", err)
		return nil, &domain.ProcessError{Err: err, Op: "spawn", SessionID: spec.SessionID}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail(fmt.Errorf("failed to get stdin pipe: %w", err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fail(fmt.Errorf("failed to get stdout pipe: %w", err))
	}
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fail(err)
	}

	p := &process{
		cmd: cmd,
		handle: domain.ProcessHandle{
			PID:       cmd.Process.Pid,
			SessionID: spec.SessionID,
			StartedAt: time.Now().UTC(),
		},
		stderr:   stderr,
		stdin:    stdin,
		waitDone: make(chan struct{}),
	}
	s.mu.Lock()
	delete(s.starting, spec.SessionID)
	s.handles[spec.SessionID] = p
	s.mu.Unlock()
	metrics.AgentSpawns.WithLabelValues("ok").Inc()
	metrics.LiveProcesses.Inc()

	logging.Logger.Info("Agent process started", "session_id", spec.SessionID, "pid", p.handle.PID)

	readerDone := make(chan struct{})
	go s.readOutput(p, stdout, spec.OnOutput, readerDone)
	go s.monitorExit(p, readerDone, spec.OnExit)

	handle := p.handle
	return &handle, nil
}

// reserve claims sessionID for a spawn. The lock is not held while the
// process starts, so other sessions are not held up by a slow fork.
func (s *Supervisor) reserve(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[sessionID]; ok || s.starting[sessionID] {
		return false
	}
	s.starting[sessionID] = true
	return true
}

func (s *Supervisor) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.starting, sessionID)
}

// readOutput delivers complete stdout lines in order. The callback runs on
// this goroutine, so a slow consumer slows the read loop instead of losing lines.
func (s *Supervisor) readOutput(p *process, stdout io.Reader, onOutput func([]byte), done chan<- struct{}) {
	defer close(done)

	reader := bufio.NewReaderSize(stdout, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 && onOutput != nil {
			onOutput(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logging.Logger.Debug("Error reading agent stdout", "session_id", p.handle.SessionID, "error", err)
			}
			return
		}
	}
}

// monitorExit is the sole caller of cmd.Wait. It waits for the reader so the
// last output line is delivered before OnExit.
func (s *Supervisor) monitorExit(p *process, readerDone <-chan struct{}, onExit func(domain.ExitStatus)) {
	<-readerDone
	waitErr := p.cmd.Wait()

	s.mu.Lock()
	status := exitStatus(waitErr)
	status.Requested = p.stopRequested
	status.StderrTail = strings.TrimSpace(p.stderr.String())
	if s.handles[p.handle.SessionID] == p {
		delete(s.handles, p.handle.SessionID)
	}
	s.mu.Unlock()

	close(p.waitDone)
	metrics.LiveProcesses.Dec()
	metrics.AgentExits.WithLabelValues(exitReason(status)).Inc()

	logging.Logger.Info("Agent process exited",
		"session_id", p.handle.SessionID, "pid", p.handle.PID,
		"code", status.Code, "signal", status.Signal, "requested", status.Requested)

	if onExit != nil {
		onExit(status)
	}
}

func exitStatus(err error) domain.ExitStatus {
	if err == nil {
		return domain.ExitStatus{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return domain.ExitStatus{Code: -1, Signal: unix.SignalName(ws.Signal())}
		}
		return domain.ExitStatus{Code: exitErr.ExitCode()}
	}
	// Wait failed without an exit status, e.g. WaitDelay expired on held pipes
	logging.Logger.Warn("Agent wait returned without exit status", "error", err)
	return domain.ExitStatus{Code: -1}
}

func exitReason(status domain.ExitStatus) string {
	switch {
	case status.Requested:
		return "stopped"
	case status.Clean():
		return "clean"
	default:
		return "failed"
	}
}

// IsRunning implements ProcessSupervisor.IsRunning
func (s *Supervisor) IsRunning(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[sessionID]
	return ok
}

// SendInput implements ProcessSupervisor.SendInput
func (s *Supervisor) SendInput(sessionID string, data []byte) error {
	s.mu.Lock()
	p, ok := s.handles[sessionID]
	if !ok || p.stdinClosed {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotRunning)
	}
	s.mu.Unlock()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, err := p.stdin.Write(data); err != nil {
		if errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EPIPE) {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotRunning)
		}
		return &domain.ProcessError{Err: err, Op: "write to", SessionID: sessionID}
	}
	return nil
}

// CloseInput implements ProcessSupervisor.CloseInput
func (s *Supervisor) CloseInput(sessionID string) error {
	s.mu.Lock()
	p, ok := s.handles[sessionID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotRunning)
	}
	alreadyClosed := p.stdinClosed
	p.stdinClosed = true
	s.mu.Unlock()

	if alreadyClosed {
		return nil
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	logging.Logger.Debug("Closing agent stdin", "session_id", sessionID)
	return p.stdin.Close()
}

// Stop implements ProcessSupervisor.Stop. Stopping a session with no live
// process returns domain.ErrNotRunning and a graceful result.
func (s *Supervisor) Stop(ctx context.Context, sessionID string) (domain.StopResult, error) {
	s.mu.Lock()
	p, ok := s.handles[sessionID]
	if !ok {
		s.mu.Unlock()
		return domain.StopResult{Graceful: true}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotRunning)
	}
	p.stopRequested = true
	closeStdin := !p.stdinClosed
	p.stdinClosed = true
	s.mu.Unlock()

	logging.Logger.Info("Stopping agent process", "session_id", sessionID, "pid", p.handle.PID)

	if closeStdin {
		p.writeMu.Lock()
		p.stdin.Close()
		p.writeMu.Unlock()
	}

	pgid := p.handle.PID
	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		logging.Logger.Warn("Failed to send SIGTERM", "session_id", sessionID, "error", err)
	}

	timer := time.NewTimer(s.gracePeriod)
	defer timer.Stop()

	select {
	case <-p.waitDone:
		metrics.AgentStops.WithLabelValues("graceful").Inc()
		logging.Logger.Info("Agent process stopped gracefully", "session_id", sessionID)
		return domain.StopResult{Graceful: true}, nil
	case <-timer.C:
	case <-ctx.Done():
	}

	logging.Logger.Warn("Force killing agent process", "session_id", sessionID, "pid", p.handle.PID)
	if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		logging.Logger.Warn("Failed to send SIGKILL", "session_id", sessionID, "error", err)
	}

	reap := time.NewTimer(s.reapTimeout)
	defer reap.Stop()

	select {
	case <-p.waitDone:
	case <-reap.C:
		metrics.AgentStops.WithLabelValues("unreaped").Inc()
		logging.Logger.Error("Agent process did not exit after SIGKILL", "session_id", sessionID, "pid", p.handle.PID)
		return domain.StopResult{Graceful: false}, &domain.ProcessError{
			Err:       fmt.Errorf("process %d not reaped after SIGKILL", p.handle.PID),
			Op:        "stop",
			SessionID: sessionID,
		}
	}

	metrics.AgentStops.WithLabelValues("forced").Inc()
	return domain.StopResult{Graceful: false}, nil
}

// StopAll stops every live process in parallel
func (s *Supervisor) StopAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	logging.Logger.Info("Stopping all agent processes", "count", len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.Stop(gctx, id)
			if err != nil && !errors.Is(err, domain.ErrNotRunning) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

package ports

import (
	"context"

	"github.com/renato0307/grove/internal/domain"
)

// SpawnSpec describes an agent process to launch
type SpawnSpec struct {
	Args      []string
	Command   string
	Dir       string
	Env       []string
	SessionID string
	// OnExit is called exactly once, after the last OnOutput call
	OnExit func(domain.ExitStatus)
	// OnOutput receives each complete stdout line in order, without the newline
	OnOutput func(line []byte)
}

// ProcessSupervisor runs at most one agent process per session
type ProcessSupervisor interface {
	// CloseInput closes the process stdin so it can finish its turn and exit
	CloseInput(sessionID string) error
	IsRunning(sessionID string) bool
	// SendInput writes data to the process stdin; fails with domain.ErrNotRunning when no process is live
	SendInput(sessionID string, data []byte) error
	// Spawn fails with domain.ErrAlreadyRunning while a process for the session is live
	Spawn(ctx context.Context, spec SpawnSpec) (*domain.ProcessHandle, error)
	// Stop terminates gracefully, force-kills after the grace period and never hangs.
	// A process still not reaped after the kill is reported as an ErrProcess error.
	Stop(ctx context.Context, sessionID string) (domain.StopResult, error)
}

// ProcessInspector finds agent processes that outlived the daemon that started them
type ProcessInspector interface {
	// IsAgentProcess reports whether pid is alive and runs the agent of sessionID
	IsAgentProcess(pid int, sessionID string) bool
	// Terminate sends SIGTERM to the process group led by pid
	Terminate(pid int) error
}

// AgentLaunch holds what the agent protocol needs to build a command line
type AgentLaunch struct {
	PermissionMode domain.PermissionMode
	ResumeID       string
	SessionID      string
	WorkingDir     string
}

// AgentProtocol encodes and decodes the agent's line protocol
type AgentProtocol interface {
	BuildCommand(launch AgentLaunch) (command string, args []string, env []string)
	EncodePermissionResponse(agentRequestID string, decision domain.PermissionDecision) ([]byte, error)
	EncodeUserMessage(text string) ([]byte, error)
	ParseLine(line []byte) domain.AgentMessage
}

// ScriptRunner runs project build and run scripts
type ScriptRunner interface {
	// Run executes script in dir, calling onLine for each output line, and returns its exit code
	Run(ctx context.Context, dir, script string, onLine func(string)) (int, error)
}

// EventPublisher delivers events to subscribers after the state they describe is persisted
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

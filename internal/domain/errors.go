package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConflict         = errors.New("conflict")
	ErrGitCommandFailed = errors.New("git command failed")
	ErrNotFound         = errors.New("not found")
	ErrNotRunning       = errors.New("agent process not running")
	ErrProcess          = errors.New("process error")
	ErrValidation       = errors.New("validation failed")

	ErrAlreadyRunning = fmt.Errorf("%w: agent process already running", ErrConflict)
	ErrBranchExists   = fmt.Errorf("%w: branch already exists", ErrConflict)
	ErrInvalidName    = fmt.Errorf("%w: invalid name", ErrValidation)
)

// ValidationError rejects a command before any state is touched
type ValidationError struct {
	Err    error
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError wrapping ErrValidation
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Err: ErrValidation, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

// GitOperationError carries the command and its raw output for diagnosis
type GitOperationError struct {
	Args   []string
	Err    error
	Output string
}

func (e *GitOperationError) Error() string {
	msg := fmt.Sprintf("git %s failed: %v", strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\nOutput: " + out
	}
	return msg
}

func (e *GitOperationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGitCommandFailed) match any git failure
func (e *GitOperationError) Is(target error) bool { return target == ErrGitCommandFailed }

// ProcessError reports a supervisor failure for one session
type ProcessError struct {
	Err       error
	Op        string
	SessionID string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s agent for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

func (e *ProcessError) Is(target error) bool { return target == ErrProcess }

// NotFoundError names the missing entity
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// ConflictError describes why an action clashes with current state
func ConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

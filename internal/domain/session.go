package domain

import (
	"strings"
	"time"
	"unicode"
)

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	StatusCompletedUnviewed SessionStatus = "completed_unviewed"
	StatusError             SessionStatus = "error"
	StatusInitializing      SessionStatus = "initializing"
	StatusReady             SessionStatus = "ready"
	StatusRunning           SessionStatus = "running"
	StatusStopped           SessionStatus = "stopped"
	StatusWaiting           SessionStatus = "waiting"
)

// transitions lists the statuses reachable from each status
var transitions = map[SessionStatus][]SessionStatus{
	StatusInitializing:      {StatusReady, StatusStopped, StatusError},
	StatusReady:             {StatusRunning, StatusStopped, StatusError},
	StatusRunning:           {StatusWaiting, StatusCompletedUnviewed, StatusStopped, StatusError},
	StatusWaiting:           {StatusRunning, StatusCompletedUnviewed, StatusStopped, StatusError},
	StatusCompletedUnviewed: {StatusReady, StatusRunning, StatusStopped, StatusError},
	StatusStopped:           {StatusRunning},
	StatusError:             {StatusRunning},
}

// CanTransition reports whether a session may move from one status to another
func CanTransition(from, to SessionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status
func (s SessionStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsActive reports whether the status implies a live agent process
func (s SessionStatus) IsActive() bool {
	return s == StatusRunning || s == StatusWaiting
}

// PermissionMode governs how tool-use requests are decided
type PermissionMode string

const (
	// PermissionModeApprove asks the operator for every tool call
	PermissionModeApprove PermissionMode = "approve"
	// PermissionModeIgnore approves every tool call automatically
	PermissionModeIgnore PermissionMode = "ignore"
)

// IsValid reports whether m is a known permission mode
func (m PermissionMode) IsValid() bool {
	return m == PermissionModeApprove || m == PermissionModeIgnore
}

// Session is one agent working in its own worktree
type Session struct {
	AgentSessionID string
	Archived       bool
	BaseBranch     string
	BaseCommit     string
	Branch         string
	CreatedAt      time.Time
	DisplayOrder   int
	FolderID       *string
	ID             string
	IsMainRepo     bool
	LastActivity   time.Time
	Name           string
	PermissionMode PermissionMode
	PID            int
	ProjectID      string
	Prompt         string
	RawOutput      string
	Status         SessionStatus
	StatusMessage  string
	WorktreePath   string
}

// WorkingDir returns the directory the agent runs in
func (s Session) WorkingDir(project Project) string {
	if s.IsMainRepo {
		return project.Path
	}
	return s.WorktreePath
}

// ValidateSessionName checks that a name can be used as both directory and branch name.
// Rejects spaces, the characters ~^:?*[]\, leading or trailing '.' and '/', and '..'.
func ValidateSessionName(name string) error {
	if name == "" {
		return &ValidationError{Err: ErrInvalidName, Field: "session name", Reason: "cannot be empty"}
	}

	invalid := func(reason string) error {
		return &ValidationError{Err: ErrInvalidName, Field: "session name", Reason: reason}
	}

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return invalid("cannot start or end with '.'")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return invalid("cannot start or end with '/'")
	}
	if strings.HasPrefix(name, "-") {
		return invalid("cannot start with '-'")
	}
	if strings.HasSuffix(name, ".lock") {
		return invalid("cannot end with '.lock'")
	}
	if strings.Contains(name, "..") {
		return invalid("cannot contain '..'")
	}
	if strings.Contains(name, "//") {
		return invalid("cannot contain '//'")
	}
	if strings.Contains(name, "@{") {
		return invalid("cannot contain '@{'")
	}

	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			return invalid("cannot contain spaces")
		case unicode.IsControl(r):
			return invalid("cannot contain control characters")
		case strings.ContainsRune(`~^:?*[]\`, r):
			return invalid("cannot contain any of ~ ^ : ? * [ ] \\")
		}
	}

	return nil
}

// maxDerivedNameLength caps names generated from prompts
const maxDerivedNameLength = 30

// DeriveSessionName builds a valid session name from free text such as a prompt.
// Returns "session" when nothing usable remains.
func DeriveSessionName(text string) string {
	var builder strings.Builder
	lastWasHyphen := true

	for _, r := range strings.ToLower(text) {
		if builder.Len() >= maxDerivedNameLength {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			builder.WriteRune(r)
			lastWasHyphen = false
		case !lastWasHyphen:
			builder.WriteRune('-')
			lastWasHyphen = true
		}
	}

	name := strings.Trim(builder.String(), "-")
	if name == "" {
		return "session"
	}
	return name
}

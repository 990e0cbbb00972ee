package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSessionName_Valid(t *testing.T) {
	valid := []string{"fix-bug", "feature/login", "v1.2", "a", "UPPER_case-9"}

	for _, name := range valid {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ValidateSessionName(name))
		})
	}
}

func TestValidateSessionName_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"empty", "", "empty"},
		{"space", "fix bug", "spaces"},
		{"tilde", "fix~1", "~"},
		{"caret", "fix^", "~"},
		{"colon", "a:b", "~"},
		{"question", "what?", "~"},
		{"star", "a*", "~"},
		{"open bracket", "a[b", "~"},
		{"close bracket", "a]b", "~"},
		{"backslash", `a\b`, "~"},
		{"leading dot", ".hidden", "'.'"},
		{"trailing dot", "name.", "'.'"},
		{"leading slash", "/name", "'/'"},
		{"trailing slash", "name/", "'/'"},
		{"double dot", "a..b", "'..'"},
		{"lock suffix", "name.lock", ".lock"},
		{"control char", "a\tb", "spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionName(tt.input)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.True(t, errors.Is(err, ErrInvalidName))
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestDeriveSessionName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Fix the login bug", "fix-the-login-bug"},
		{"  Add: tests!! for parser ", "add-tests-for-parser"},
		{"", "session"},
		{"!!!", "session"},
		{"Refactor the session lifecycle state machine please", "refactor-the-session-lifecycle"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := DeriveSessionName(tt.input)

			assert.Equal(t, tt.expected, got)
			assert.NoError(t, ValidateSessionName(got))
			assert.LessOrEqual(t, len(got), maxDerivedNameLength)
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    SessionStatus
		to      SessionStatus
		allowed bool
	}{
		{StatusInitializing, StatusReady, true},
		{StatusInitializing, StatusError, true},
		{StatusInitializing, StatusRunning, false},
		{StatusReady, StatusRunning, true},
		{StatusRunning, StatusWaiting, true},
		{StatusWaiting, StatusRunning, true},
		{StatusRunning, StatusCompletedUnviewed, true},
		{StatusCompletedUnviewed, StatusReady, true},
		{StatusRunning, StatusStopped, true},
		{StatusWaiting, StatusError, true},
		{StatusStopped, StatusError, false},
		{StatusStopped, StatusRunning, true},
		{StatusReady, StatusWaiting, false},
		{StatusError, StatusReady, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestSessionWorkingDir(t *testing.T) {
	project := Project{Path: "/repo"}

	assert.Equal(t, "/repo", Session{IsMainRepo: true, WorktreePath: "/ignored"}.WorkingDir(project))
	assert.Equal(t, "/repo/worktrees/x", Session{WorktreePath: "/repo/worktrees/x"}.WorkingDir(project))
}

func TestProjectResolveWorktreeFolder(t *testing.T) {
	tests := []struct {
		name     string
		override string
		expected string
	}{
		{"default", "", "/repo/worktrees"},
		{"relative", "../trees", "/trees"},
		{"absolute", "/var/trees", "/var/trees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project{Path: "/repo", WorktreeFolder: tt.override}
			assert.Equal(t, tt.expected, p.ResolveWorktreeFolder())
		})
	}
}

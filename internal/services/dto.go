package services

import (
	"encoding/json"

	"github.com/renato0307/grove/internal/domain"
)

// CreateSessionParams contains parameters for creating sessions
type CreateSessionParams struct {
	// BaseBranch defaults to the project's base branch
	BaseBranch string
	// Count > 1 creates numbered variants sharing the prompt
	Count    int
	FolderID *string
	// MainRepo runs the agent in the project checkout instead of a new worktree
	MainRepo bool
	// Name is derived from the prompt when empty
	Name           string
	PermissionMode domain.PermissionMode
	ProjectID      string
	Prompt         string
}

// CreateProjectParams contains parameters for registering a project.
// Empty fields fall back to the repository's .grove.toml.
type CreateProjectParams struct {
	BaseBranch     string
	BuildScript    string
	IDECommand     string
	Name           string
	Path           string
	RunScript      string
	WorktreeFolder string
}

// UpdateProjectParams changes the fields that are set
type UpdateProjectParams struct {
	BaseBranch     *string
	BuildScript    *string
	IDECommand     *string
	Name           *string
	RunScript      *string
	WorktreeFolder *string
}

// permissionRecord is the payload of a permission entry in the output log
type permissionRecord struct {
	Behavior     domain.PermissionBehavior `json:"behavior"`
	Cancelled    bool                      `json:"cancelled"`
	Message      string                    `json:"message,omitempty"`
	RequestID    string                    `json:"requestId"`
	ToolName     string                    `json:"toolName"`
	UpdatedInput json.RawMessage           `json:"updatedInput,omitempty"`
}

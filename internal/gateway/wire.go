package gateway

import (
	"encoding/json"
	"time"

	"github.com/renato0307/grove/internal/domain"
)

// Wire representations of the domain entities. Every transport (HTTP, websocket,
// SSH) and the CLI client encode exactly these shapes.

type Project struct {
	BaseBranch     string    `json:"baseBranch"`
	BuildScript    string    `json:"buildScript,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	DisplayOrder   int       `json:"displayOrder"`
	ID             string    `json:"id"`
	IDECommand     string    `json:"ideCommand,omitempty"`
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	RunScript      string    `json:"runScript,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
	WorktreeFolder string    `json:"worktreeFolder"`
}

type Folder struct {
	CreatedAt    time.Time `json:"createdAt"`
	DisplayOrder int       `json:"displayOrder"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ParentID     *string   `json:"parentId"`
	ProjectID    string    `json:"projectId"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Session struct {
	AgentSessionID string               `json:"agentSessionId,omitempty"`
	Archived       bool                 `json:"archived"`
	BaseBranch     string               `json:"baseBranch"`
	BaseCommit     string               `json:"baseCommit,omitempty"`
	Branch         string               `json:"branch"`
	CreatedAt      time.Time            `json:"createdAt"`
	DisplayOrder   int                  `json:"displayOrder"`
	FolderID       *string              `json:"folderId"`
	ID             string               `json:"id"`
	IsMainRepo     bool                 `json:"isMainRepo"`
	LastActivity   time.Time            `json:"lastActivity"`
	Name           string               `json:"name"`
	PermissionMode domain.PermissionMode `json:"permissionMode"`
	PID            int                  `json:"pid,omitempty"`
	ProjectID      string               `json:"projectId"`
	Prompt         string               `json:"prompt,omitempty"`
	RawOutput      string               `json:"rawOutput,omitempty"`
	Status         domain.SessionStatus `json:"status"`
	StatusMessage  string               `json:"statusMessage,omitempty"`
	WorktreePath   string               `json:"worktreePath"`
}

type PermissionRequest struct {
	CreatedAt time.Time       `json:"createdAt"`
	ID        string          `json:"id"`
	Input     json.RawMessage `json:"input,omitempty"`
	SessionID string          `json:"sessionId"`
	Summary   string          `json:"summary,omitempty"`
	ToolName  string          `json:"toolName"`
}

// Event is the wire form of a domain event. Payload holds one of the types above,
// a domain.OutputMessage or one of the domain payload structs.
type Event struct {
	Payload   json.RawMessage  `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	Type      domain.EventType `json:"type"`
}

func newProject(p domain.Project) Project {
	return Project{
		BaseBranch:     p.BaseBranch,
		BuildScript:    p.BuildScript,
		CreatedAt:      p.CreatedAt,
		DisplayOrder:   p.DisplayOrder,
		ID:             p.ID,
		IDECommand:     p.IDECommand,
		Name:           p.Name,
		Path:           p.Path,
		RunScript:      p.RunScript,
		UpdatedAt:      p.UpdatedAt,
		WorktreeFolder: p.ResolveWorktreeFolder(),
	}
}

func newFolder(f domain.Folder) Folder {
	return Folder{
		CreatedAt:    f.CreatedAt,
		DisplayOrder: f.DisplayOrder,
		ID:           f.ID,
		Name:         f.Name,
		ParentID:     f.ParentID,
		ProjectID:    f.ProjectID,
		UpdatedAt:    f.UpdatedAt,
	}
}

func newSession(s domain.Session) Session {
	return Session{
		AgentSessionID: s.AgentSessionID,
		Archived:       s.Archived,
		BaseBranch:     s.BaseBranch,
		BaseCommit:     s.BaseCommit,
		Branch:         s.Branch,
		CreatedAt:      s.CreatedAt,
		DisplayOrder:   s.DisplayOrder,
		FolderID:       s.FolderID,
		ID:             s.ID,
		IsMainRepo:     s.IsMainRepo,
		LastActivity:   s.LastActivity,
		Name:           s.Name,
		PermissionMode: s.PermissionMode,
		PID:            s.PID,
		ProjectID:      s.ProjectID,
		Prompt:         s.Prompt,
		RawOutput:      s.RawOutput,
		Status:         s.Status,
		StatusMessage:  s.StatusMessage,
		WorktreePath:   s.WorktreePath,
	}
}

func newPermissionRequest(r domain.PermissionRequest) PermissionRequest {
	return PermissionRequest{
		CreatedAt: r.CreatedAt,
		ID:        r.ID,
		Input:     r.Input,
		SessionID: r.SessionID,
		Summary:   domain.DecodeToolCall("", r.ToolName, r.Input).Input.Summary(),
		ToolName:  r.ToolName,
	}
}

func mapSlice[T, W any](items []T, fn func(T) W) []W {
	result := make([]W, 0, len(items))
	for _, item := range items {
		result = append(result, fn(item))
	}
	return result
}

// wirePayload converts an event payload carrying a domain entity to its wire form
func wirePayload(payload any) any {
	switch p := payload.(type) {
	case domain.Project:
		return newProject(p)
	case domain.Folder:
		return newFolder(p)
	case domain.Session:
		return newSession(p)
	case domain.PermissionRequest:
		return newPermissionRequest(p)
	default:
		return payload
	}
}

// encodeEvent renders a domain event in its wire form
func encodeEvent(e domain.Event) (Event, error) {
	payload, err := json.Marshal(wirePayload(e.Payload))
	if err != nil {
		return Event{}, err
	}
	return Event{Payload: payload, Timestamp: e.Timestamp, Type: e.Type}, nil
}

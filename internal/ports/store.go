package ports

import (
	"context"
	"encoding/json"

	"github.com/renato0307/grove/internal/domain"
)

// ProjectRepository persists projects
type ProjectRepository interface {
	CreateProject(ctx context.Context, project domain.Project) error
	DeleteProject(ctx context.Context, id string) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ReorderProjects(ctx context.Context, updates []domain.OrderUpdate) error
	UpdateProject(ctx context.Context, project domain.Project) error
}

// FolderRepository persists the flat folder table of each project
type FolderRepository interface {
	CreateFolder(ctx context.Context, folder domain.Folder) error
	// DeleteFolder removes a folder; children are handled according to strategy
	DeleteFolder(ctx context.Context, id string, strategy domain.FolderDeleteStrategy) error
	GetFolder(ctx context.Context, id string) (*domain.Folder, error)
	ListFolders(ctx context.Context, projectID string) ([]domain.Folder, error)
	// MoveFolder reparents a folder, refusing targets inside its own subtree
	MoveFolder(ctx context.Context, id string, parentID *string) error
	ReorderFolders(ctx context.Context, updates []domain.OrderUpdate) error
}

// SessionFilter narrows ListSessions
type SessionFilter struct {
	IncludeArchived bool
	ProjectID       string
}

// SessionReader reads session data
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]domain.Session, error)
}

// SessionWriter creates, deletes, moves and reorders sessions
type SessionWriter interface {
	CreateSession(ctx context.Context, session domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	MoveSession(ctx context.Context, id string, folderID *string) error
	ReorderSessions(ctx context.Context, updates []domain.OrderUpdate) error
	SetSessionArchived(ctx context.Context, id string, archived bool) error
}

// SessionStateUpdater records lifecycle changes
type SessionStateUpdater interface {
	UpdateSessionProcess(ctx context.Context, id string, pid int, agentSessionID string) error
	UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus, message, rawOutput string) error
	UpdateSessionWorktree(ctx context.Context, id string, worktree domain.Worktree) error
}

// SessionRepository is the composite session interface
type SessionRepository interface {
	SessionReader
	SessionWriter
	SessionStateUpdater
}

// OutputLog is the append-only per-session output history
type OutputLog interface {
	// AppendOutput assigns the next sequence number and records the message
	AppendOutput(ctx context.Context, sessionID string, outputType domain.OutputType, data json.RawMessage) (domain.OutputMessage, error)
	// ListOutput returns messages with Seq > afterSeq in order; limit <= 0 means no limit
	ListOutput(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]domain.OutputMessage, error)
}

// PreferenceStore is a key-value store for client presentation state
type PreferenceStore interface {
	DeletePreference(ctx context.Context, key string) error
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Store is everything the services persist
type Store interface {
	FolderRepository
	OutputLog
	PreferenceStore
	ProjectRepository
	SessionRepository
	Close() error
}

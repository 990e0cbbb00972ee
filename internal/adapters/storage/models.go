package storage

import "time"

// ProjectModel is the GORM model for projects table
type ProjectModel struct {
	BaseBranch     string `gorm:"not null;default:''"`
	BuildScript    string `gorm:"not null;default:''"`
	CreatedAt      time.Time
	DisplayOrder   int    `gorm:"not null;default:0;index:idx_projects_order"`
	ID             string `gorm:"primaryKey"`
	IDECommand     string `gorm:"not null;default:''"`
	Name           string `gorm:"not null"`
	Path           string `gorm:"not null;uniqueIndex:idx_projects_path"`
	RunScript      string `gorm:"not null;default:''"`
	UpdatedAt      time.Time
	WorktreeFolder string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (ProjectModel) TableName() string { return "projects" }

// FolderModel is the GORM model for folders table.
// Folders form a flat table; ParentID is a weak reference to another row.
type FolderModel struct {
	CreatedAt    time.Time
	DisplayOrder int     `gorm:"not null;default:0"`
	ID           string  `gorm:"primaryKey"`
	Name         string  `gorm:"not null"`
	ParentID     *string `gorm:"index:idx_folders_parent;default:null"`
	ProjectID    string  `gorm:"not null;index:idx_folders_project"`
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (FolderModel) TableName() string { return "folders" }

// SessionModel is the GORM model for sessions table
type SessionModel struct {
	AgentSessionID string    `gorm:"not null;default:''"`
	Archived       bool      `gorm:"not null;default:false;index:idx_sessions_archived"`
	BaseBranch     string    `gorm:"not null;default:''"`
	BaseCommit     string    `gorm:"not null;default:''"`
	Branch         string    `gorm:"not null;default:''"`
	CreatedAt      time.Time
	DisplayOrder   int       `gorm:"not null;default:0"`
	FolderID       *string   `gorm:"index:idx_sessions_folder;default:null"`
	ID             string    `gorm:"primaryKey"`
	IsMainRepo     bool      `gorm:"not null;default:false"`
	LastActivity   time.Time `gorm:"not null"`
	Name           string    `gorm:"not null;uniqueIndex:idx_sessions_project_name"`
	PermissionMode string    `gorm:"not null;default:'approve';check:permission_mode IN ('approve','ignore')"`
	PID            int       `gorm:"column:pid;not null;default:0"`
	ProjectID      string    `gorm:"not null;uniqueIndex:idx_sessions_project_name;index:idx_sessions_project"`
	Prompt         string    `gorm:"not null;default:''"`
	RawOutput      string    `gorm:"not null;default:''"`
	Status         string    `gorm:"not null;default:'initializing';check:status IN ('initializing','ready','running','waiting','completed_unviewed','stopped','error')"`
	StatusMessage  string    `gorm:"not null;default:''"`
	UpdatedAt      time.Time
	WorktreePath   string    `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string { return "sessions" }

// SessionOutputModel is one row of the append-only session output log
type SessionOutputModel struct {
	CreatedAt time.Time
	Data      string `gorm:"not null"`
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Seq       int64  `gorm:"not null;uniqueIndex:idx_session_outputs_seq"`
	SessionID string `gorm:"not null;uniqueIndex:idx_session_outputs_seq"`
	Type      string `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SessionOutputModel) TableName() string { return "session_outputs" }

// PreferenceModel is a key-value row of presentation state
type PreferenceModel struct {
	CreatedAt time.Time
	Key       string `gorm:"column:pref_key;primaryKey"`
	UpdatedAt time.Time
	Value     string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (PreferenceModel) TableName() string { return "preferences" }

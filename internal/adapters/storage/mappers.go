package storage

import (
	"encoding/json"

	"github.com/renato0307/grove/internal/domain"
)

// projectModelToDomain converts a ProjectModel (GORM) to domain.Project
func projectModelToDomain(m ProjectModel) domain.Project {
	return domain.Project{
		BaseBranch:     m.BaseBranch,
		BuildScript:    m.BuildScript,
		CreatedAt:      m.CreatedAt,
		DisplayOrder:   m.DisplayOrder,
		ID:             m.ID,
		IDECommand:     m.IDECommand,
		Name:           m.Name,
		Path:           m.Path,
		RunScript:      m.RunScript,
		UpdatedAt:      m.UpdatedAt,
		WorktreeFolder: m.WorktreeFolder,
	}
}

// domainToProjectModel converts a domain.Project to ProjectModel (GORM)
func domainToProjectModel(p domain.Project) ProjectModel {
	return ProjectModel{
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
		WorktreeFolder: p.WorktreeFolder,
	}
}

func folderModelToDomain(m FolderModel) domain.Folder {
	return domain.Folder{
		CreatedAt:    m.CreatedAt,
		DisplayOrder: m.DisplayOrder,
		ID:           m.ID,
		Name:         m.Name,
		ParentID:     m.ParentID,
		ProjectID:    m.ProjectID,
		UpdatedAt:    m.UpdatedAt,
	}
}

func domainToFolderModel(f domain.Folder) FolderModel {
	return FolderModel{
		CreatedAt:    f.CreatedAt,
		DisplayOrder: f.DisplayOrder,
		ID:           f.ID,
		Name:         f.Name,
		ParentID:     f.ParentID,
		ProjectID:    f.ProjectID,
		UpdatedAt:    f.UpdatedAt,
	}
}

// sessionModelToDomain converts a SessionModel (GORM) to domain.Session
func sessionModelToDomain(m SessionModel) domain.Session {
	return domain.Session{
		AgentSessionID: m.AgentSessionID,
		Archived:       m.Archived,
		BaseBranch:     m.BaseBranch,
		BaseCommit:     m.BaseCommit,
		Branch:         m.Branch,
		CreatedAt:      m.CreatedAt,
		DisplayOrder:   m.DisplayOrder,
		FolderID:       m.FolderID,
		ID:             m.ID,
		IsMainRepo:     m.IsMainRepo,
		LastActivity:   m.LastActivity,
		Name:           m.Name,
		PermissionMode: domain.PermissionMode(m.PermissionMode),
		PID:            m.PID,
		ProjectID:      m.ProjectID,
		Prompt:         m.Prompt,
		RawOutput:      m.RawOutput,
		Status:         domain.SessionStatus(m.Status),
		StatusMessage:  m.StatusMessage,
		WorktreePath:   m.WorktreePath,
	}
}

// domainToSessionModel converts a domain.Session to SessionModel (GORM)
func domainToSessionModel(s domain.Session) SessionModel {
	return SessionModel{
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
		PermissionMode: string(s.PermissionMode),
		PID:            s.PID,
		ProjectID:      s.ProjectID,
		Prompt:         s.Prompt,
		RawOutput:      s.RawOutput,
		Status:         string(s.Status),
		StatusMessage:  s.StatusMessage,
		WorktreePath:   s.WorktreePath,
	}
}

func outputModelToDomain(m SessionOutputModel) domain.OutputMessage {
	return domain.OutputMessage{
		CreatedAt: m.CreatedAt,
		Data:      json.RawMessage(m.Data),
		Seq:       m.Seq,
		SessionID: m.SessionID,
		Type:      domain.OutputType(m.Type),
	}
}

package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/ports"
)

// CreateSession implements SessionWriter.CreateSession.
// The session is appended at the end of its folder.
func (r *SQLiteRepository) CreateSession(ctx context.Context, session domain.Session) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := requireProject(tx, session.ProjectID); err != nil {
			return err
		}
		if err := checkFolderScope(tx, session.ProjectID, session.FolderID); err != nil {
			return err
		}

		order, err := nextSessionOrder(tx, session.ProjectID, session.FolderID)
		if err != nil {
			return err
		}

		model := domainToSessionModel(session)
		model.DisplayOrder = order
		if model.LastActivity.IsZero() {
			model.LastActivity = time.Now().UTC()
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return translateError(err, "session", session.Name)
	}
	return nil
}

// DeleteSession implements SessionWriter.DeleteSession
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&SessionOutputModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete session output: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&SessionModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NotFoundError("session", id)
		}
		return nil
	})
}

// MoveSession implements SessionWriter.MoveSession
func (r *SQLiteRepository) MoveSession(ctx context.Context, id string, folderID *string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		session, err := loadSession(tx, id)
		if err != nil {
			return err
		}
		if err := checkFolderScope(tx, session.ProjectID, folderID); err != nil {
			return err
		}
		if sameParent(session.FolderID, folderID) {
			return nil
		}

		order, err := nextSessionOrder(tx, session.ProjectID, folderID)
		if err != nil {
			return err
		}
		return tx.Model(&SessionModel{}).Where("id = ?", id).Updates(map[string]any{
			"display_order": order,
			"folder_id":     folderID,
		}).Error
	})
}

// ReorderSessions implements SessionWriter.ReorderSessions.
// Every session in the batch must share the same project and folder.
func (r *SQLiteRepository) ReorderSessions(ctx context.Context, updates []domain.OrderUpdate) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var first *domain.Session
		for _, u := range updates {
			session, err := loadSession(tx, u.ID)
			if err != nil {
				return err
			}
			if first == nil {
				first = session
			} else if session.ProjectID != first.ProjectID || !sameParent(session.FolderID, first.FolderID) {
				return domain.NewValidationError("order", "sessions in a reorder batch must be siblings")
			}

			if err := tx.Model(&SessionModel{}).Where("id = ?", u.ID).UpdateColumn("display_order", u.DisplayOrder).Error; err != nil {
				return fmt.Errorf("failed to reorder sessions: %w", err)
			}
		}
		return nil
	})
}

// SetSessionArchived implements SessionWriter.SetSessionArchived
func (r *SQLiteRepository) SetSessionArchived(ctx context.Context, id string, archived bool) error {
	return r.updateSession(ctx, id, map[string]any{"archived": archived})
}

// GetSession implements SessionReader.GetSession
func (r *SQLiteRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := withRetry(ctx, maxBusyRetries, func() error {
		s, err := loadSession(r.db.WithContext(ctx), id)
		session = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions implements SessionReader.ListSessions.
// Sibling scopes are (project, folder) and include archived sessions, so
// archiving never reshuffles the visible order. Gaps are compacted on read.
func (r *SQLiteRepository) ListSessions(ctx context.Context, filter ports.SessionFilter) ([]domain.Session, error) {
	var models []SessionModel

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		query := tx.Order("project_id ASC, display_order ASC, created_at ASC, id ASC")
		if filter.ProjectID != "" {
			query = query.Where("project_id = ?", filter.ProjectID)
		}
		if err := query.Find(&models).Error; err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}

		scopes := make(map[string][]int)
		var keys []string
		for i, m := range models {
			key := m.ProjectID + "/" + nullableKey(m.FolderID)
			if _, ok := scopes[key]; !ok {
				keys = append(keys, key)
			}
			scopes[key] = append(scopes[key], i)
		}

		for _, key := range keys {
			idx := scopes[key]
			ids := make([]string, len(idx))
			orders := make([]int, len(idx))
			for j, i := range idx {
				ids[j], orders[j] = models[i].ID, models[i].DisplayOrder
			}
			compacted, err := compactOrder(tx, &SessionModel{}, ids, orders)
			if err != nil {
				return err
			}
			for j, i := range idx {
				models[i].DisplayOrder = compacted[j]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(models))
	for _, m := range models {
		if m.Archived && !filter.IncludeArchived {
			continue
		}
		sessions = append(sessions, sessionModelToDomain(m))
	}
	return sessions, nil
}

// UpdateSessionProcess implements SessionStateUpdater.UpdateSessionProcess.
// An empty agentSessionID keeps the recorded one.
func (r *SQLiteRepository) UpdateSessionProcess(ctx context.Context, id string, pid int, agentSessionID string) error {
	updates := map[string]any{"pid": pid}
	if agentSessionID != "" {
		updates["agent_session_id"] = agentSessionID
	}
	return r.updateSession(ctx, id, updates)
}

// UpdateSessionStatus implements SessionStateUpdater.UpdateSessionStatus
func (r *SQLiteRepository) UpdateSessionStatus(ctx context.Context, id string, status domain.SessionStatus, message, rawOutput string) error {
	return r.updateSession(ctx, id, map[string]any{
		"last_activity":  time.Now().UTC(),
		"raw_output":     rawOutput,
		"status":         string(status),
		"status_message": message,
	})
}

// UpdateSessionWorktree implements SessionStateUpdater.UpdateSessionWorktree
func (r *SQLiteRepository) UpdateSessionWorktree(ctx context.Context, id string, worktree domain.Worktree) error {
	return r.updateSession(ctx, id, map[string]any{
		"base_commit":   worktree.BaseCommit,
		"branch":        worktree.Branch,
		"worktree_path": worktree.Path,
	})
}

func (r *SQLiteRepository) updateSession(ctx context.Context, id string, updates map[string]any) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&SessionModel{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NotFoundError("session", id)
		}
		return nil
	})
}

func loadSession(tx *gorm.DB, id string) (*domain.Session, error) {
	var model SessionModel
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "session", id)
	}
	session := sessionModelToDomain(model)
	return &session, nil
}

// checkFolderScope verifies that an optional folder exists inside the project
func checkFolderScope(tx *gorm.DB, projectID string, folderID *string) error {
	if folderID == nil {
		return nil
	}
	folder, err := loadFolder(tx, *folderID)
	if err != nil {
		if isNotFound(err) {
			return domain.NewValidationError("folder", fmt.Sprintf("folder %s does not exist", *folderID))
		}
		return err
	}
	if folder.ProjectID != projectID {
		return domain.NewValidationError("folder", "belongs to another project")
	}
	return nil
}

func nextSessionOrder(tx *gorm.DB, projectID string, folderID *string) (int, error) {
	query := tx.Model(&SessionModel{}).Where("project_id = ?", projectID)
	if folderID == nil {
		query = query.Where("folder_id IS NULL")
	} else {
		query = query.Where("folder_id = ?", *folderID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

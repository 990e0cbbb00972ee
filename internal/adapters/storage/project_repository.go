package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/renato0307/grove/internal/domain"
)

// CreateProject implements ProjectRepository.CreateProject.
// New projects are appended after the existing ones.
func (r *SQLiteRepository) CreateProject(ctx context.Context, project domain.Project) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ProjectModel{}).Count(&count).Error; err != nil {
			return err
		}

		model := domainToProjectModel(project)
		model.DisplayOrder = int(count)
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", translateError(err, "project", project.Path))
	}
	return nil
}

// DeleteProject implements ProjectRepository.DeleteProject.
// Folders, sessions and output history of the project go with it.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		sessionIDs := tx.Model(&SessionModel{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&SessionOutputModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete session output: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&SessionModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&FolderModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete folders: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&ProjectModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NotFoundError("project", id)
		}
		return nil
	})
}

// GetProject implements ProjectRepository.GetProject
func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var model ProjectModel
	err := withRetry(ctx, maxBusyRetries, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		return nil, translateError(err, "project", id)
	}

	project := projectModelToDomain(model)
	return &project, nil
}

// ListProjects implements ProjectRepository.ListProjects.
// The workspace is a single sibling scope; gaps are compacted on read.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var models []ProjectModel

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Order("display_order ASC, created_at ASC, id ASC").Find(&models).Error; err != nil {
			return fmt.Errorf("failed to load projects: %w", err)
		}

		ids := make([]string, len(models))
		orders := make([]int, len(models))
		for i, m := range models {
			ids[i], orders[i] = m.ID, m.DisplayOrder
		}
		compacted, err := compactOrder(tx, &ProjectModel{}, ids, orders)
		if err != nil {
			return err
		}
		for i := range models {
			models[i].DisplayOrder = compacted[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	projects := make([]domain.Project, len(models))
	for i, m := range models {
		projects[i] = projectModelToDomain(m)
	}
	return projects, nil
}

// ReorderProjects implements ProjectRepository.ReorderProjects
func (r *SQLiteRepository) ReorderProjects(ctx context.Context, updates []domain.OrderUpdate) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		for _, u := range updates {
			result := tx.Model(&ProjectModel{}).Where("id = ?", u.ID).UpdateColumn("display_order", u.DisplayOrder)
			if result.Error != nil {
				return fmt.Errorf("failed to reorder projects: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return domain.NotFoundError("project", u.ID)
			}
		}
		return nil
	})
}

// UpdateProject implements ProjectRepository.UpdateProject
func (r *SQLiteRepository) UpdateProject(ctx context.Context, project domain.Project) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&ProjectModel{}).
			Where("id = ?", project.ID).
			Updates(map[string]any{
				"base_branch":     project.BaseBranch,
				"build_script":    project.BuildScript,
				"ide_command":     project.IDECommand,
				"name":            project.Name,
				"run_script":      project.RunScript,
				"worktree_folder": project.WorktreeFolder,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NotFoundError("project", project.ID)
		}
		return nil
	})
}

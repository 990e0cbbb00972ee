package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
)

// CreateFolder implements FolderRepository.CreateFolder
func (r *SQLiteRepository) CreateFolder(ctx context.Context, folder domain.Folder) error {
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := requireProject(tx, folder.ProjectID); err != nil {
			return err
		}
		if folder.ParentID != nil {
			parent, err := loadFolder(tx, *folder.ParentID)
			if err != nil {
				return err
			}
			if parent.ProjectID != folder.ProjectID {
				return domain.NewValidationError("parent folder", "belongs to another project")
			}
		}

		order, err := nextFolderOrder(tx, folder.ProjectID, folder.ParentID)
		if err != nil {
			return err
		}

		model := domainToFolderModel(folder)
		model.DisplayOrder = order
		return tx.Create(&model).Error
	})
	if err != nil {
		return translateError(err, "folder", folder.ID)
	}
	return nil
}

// DeleteFolder implements FolderRepository.DeleteFolder
func (r *SQLiteRepository) DeleteFolder(ctx context.Context, id string, strategy domain.FolderDeleteStrategy) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		folder, err := loadFolder(tx, id)
		if err != nil {
			return err
		}

		var childFolders, childSessions int64
		if err := tx.Model(&FolderModel{}).Where("parent_id = ?", id).Count(&childFolders).Error; err != nil {
			return err
		}
		if err := tx.Model(&SessionModel{}).Where("folder_id = ?", id).Count(&childSessions).Error; err != nil {
			return err
		}

		hasChildren := childFolders > 0 || childSessions > 0
		switch {
		case !hasChildren:
		case strategy == domain.FolderDeleteNone:
			return domain.ConflictError("folder %s has %d folders and %d sessions; choose cascade or reparent",
				folder.Name, childFolders, childSessions)
		case strategy == domain.FolderDeleteReparent:
			if err := tx.Model(&FolderModel{}).Where("parent_id = ?", id).Update("parent_id", folder.ParentID).Error; err != nil {
				return fmt.Errorf("failed to reparent folders: %w", err)
			}
			if err := tx.Model(&SessionModel{}).Where("folder_id = ?", id).Update("folder_id", folder.ParentID).Error; err != nil {
				return fmt.Errorf("failed to reparent sessions: %w", err)
			}
		case strategy == domain.FolderDeleteCascade:
			folders, err := folderTable(tx, folder.ProjectID)
			if err != nil {
				return err
			}
			doomed := append([]string{id}, domain.Descendants(folders, id)...)
			if err := tx.Model(&SessionModel{}).Where("folder_id IN ?", doomed).Update("folder_id", nil).Error; err != nil {
				return fmt.Errorf("failed to move sessions to project root: %w", err)
			}
			if err := tx.Where("id IN ?", doomed[1:]).Delete(&FolderModel{}).Error; err != nil {
				return fmt.Errorf("failed to delete descendant folders: %w", err)
			}
			logging.Logger.Info("Cascading folder delete", "folder_id", id, "descendants", len(doomed)-1)
		default:
			return domain.NewValidationError("strategy", fmt.Sprintf("unknown delete strategy %q", strategy))
		}

		if err := tx.Where("id = ?", id).Delete(&FolderModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete folder: %w", err)
		}
		return nil
	})
}

// GetFolder implements FolderRepository.GetFolder
func (r *SQLiteRepository) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	var folder *domain.Folder
	err := withRetry(ctx, maxBusyRetries, func() error {
		f, err := loadFolder(r.db.WithContext(ctx), id)
		folder = f
		return err
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFolders implements FolderRepository.ListFolders.
// Each parent is its own sibling scope; gaps are compacted on read.
func (r *SQLiteRepository) ListFolders(ctx context.Context, projectID string) ([]domain.Folder, error) {
	var models []FolderModel

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).
			Order("display_order ASC, created_at ASC, id ASC").
			Find(&models).Error; err != nil {
			return fmt.Errorf("failed to load folders: %w", err)
		}

		scopes := make(map[string][]int)
		var keys []string
		for i, m := range models {
			key := nullableKey(m.ParentID)
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
			compacted, err := compactOrder(tx, &FolderModel{}, ids, orders)
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

	folders := make([]domain.Folder, len(models))
	for i, m := range models {
		folders[i] = folderModelToDomain(m)
	}
	return folders, nil
}

// MoveFolder implements FolderRepository.MoveFolder
func (r *SQLiteRepository) MoveFolder(ctx context.Context, id string, parentID *string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		folder, err := loadFolder(tx, id)
		if err != nil {
			return err
		}

		if parentID != nil {
			folders, err := folderTable(tx, folder.ProjectID)
			if err != nil {
				return err
			}
			parent, ok := folders[*parentID]
			if !ok {
				return domain.NotFoundError("folder", *parentID)
			}
			if parent.ProjectID != folder.ProjectID {
				return domain.NewValidationError("parent folder", "belongs to another project")
			}
			if domain.IsDescendant(folders, id, *parentID) {
				return domain.NewValidationError("parent folder", "cannot move a folder into itself or one of its descendants")
			}
		}

		if sameParent(folder.ParentID, parentID) {
			return nil
		}

		order, err := nextFolderOrder(tx, folder.ProjectID, parentID)
		if err != nil {
			return err
		}
		return tx.Model(&FolderModel{}).Where("id = ?", id).Updates(map[string]any{
			"parent_id":     parentID,
			"display_order": order,
		}).Error
	})
}

// ReorderFolders implements FolderRepository.ReorderFolders.
// Every folder in the batch must share the same parent.
func (r *SQLiteRepository) ReorderFolders(ctx context.Context, updates []domain.OrderUpdate) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var first *domain.Folder
		for _, u := range updates {
			folder, err := loadFolder(tx, u.ID)
			if err != nil {
				return err
			}
			if first == nil {
				first = folder
			} else if folder.ProjectID != first.ProjectID || !sameParent(folder.ParentID, first.ParentID) {
				return domain.NewValidationError("order", "folders in a reorder batch must be siblings")
			}

			if err := tx.Model(&FolderModel{}).Where("id = ?", u.ID).UpdateColumn("display_order", u.DisplayOrder).Error; err != nil {
				return fmt.Errorf("failed to reorder folders: %w", err)
			}
		}
		return nil
	})
}

func loadFolder(tx *gorm.DB, id string) (*domain.Folder, error) {
	var model FolderModel
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err, "folder", id)
	}
	folder := folderModelToDomain(model)
	return &folder, nil
}

// folderTable loads the flat folder table of a project keyed by id
func folderTable(tx *gorm.DB, projectID string) (map[string]domain.Folder, error) {
	var models []FolderModel
	if err := tx.Where("project_id = ?", projectID).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}
	folders := make(map[string]domain.Folder, len(models))
	for _, m := range models {
		folders[m.ID] = folderModelToDomain(m)
	}
	return folders, nil
}

func nextFolderOrder(tx *gorm.DB, projectID string, parentID *string) (int, error) {
	query := tx.Model(&FolderModel{}).Where("project_id = ?", projectID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func requireProject(tx *gorm.DB, projectID string) error {
	var count int64
	if err := tx.Model(&ProjectModel{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.NotFoundError("project", projectID)
	}
	return nil
}

// isNotFound reports whether err is a domain not-found error
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

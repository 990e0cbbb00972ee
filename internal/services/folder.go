package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// FolderService manages the folder tree sessions are grouped in
type FolderService struct {
	events ports.EventPublisher
	store  ports.Store
}

// NewFolderService creates a new FolderService
func NewFolderService(store ports.Store, events ports.EventPublisher) *FolderService {
	return &FolderService{
		events: events,
		store:  store,
	}
}

// Create adds a folder under parentID, or at the project root when parentID is nil
func (s *FolderService) Create(ctx context.Context, name, projectID string, parentID *string) (*domain.Folder, error) {
	if err := domain.ValidateFolderName(name); err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, domain.NewValidationError("projectId", "is required")
	}

	now := time.Now().UTC()
	folder := domain.Folder{
		CreatedAt: now,
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		ParentID:  parentID,
		ProjectID: projectID,
		UpdatedAt: now,
	}
	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}

	stored, err := s.store.GetFolder(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	logging.Logger.Info("Folder created", "folder_id", stored.ID, "project_id", projectID)
	s.events.Publish(ctx, domain.NewEvent(domain.EventFolderCreated, *stored))
	return stored, nil
}

// List returns the project's folders ordered within each parent
func (s *FolderService) List(ctx context.Context, projectID string) ([]domain.Folder, error) {
	return s.store.ListFolders(ctx, projectID)
}

// Move reparents a folder. Targets inside its own subtree are rejected.
func (s *FolderService) Move(ctx context.Context, id string, parentID *string) (*domain.Folder, error) {
	if err := s.store.MoveFolder(ctx, id, parentID); err != nil {
		return nil, err
	}
	return s.publish(ctx, id)
}

// Delete removes a folder. A folder with children needs the reparent or cascade strategy.
func (s *FolderService) Delete(ctx context.Context, id string, strategy domain.FolderDeleteStrategy) error {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	// Sessions whose folder changes as a side effect
	folders, err := s.store.ListFolders(ctx, folder.ProjectID)
	if err != nil {
		return err
	}
	table := make(map[string]domain.Folder, len(folders))
	for _, f := range folders {
		table[f.ID] = f
	}
	affected := map[string]bool{id: true}
	if strategy == domain.FolderDeleteCascade {
		for _, d := range domain.Descendants(table, id) {
			affected[d] = true
		}
	}
	sessions, err := s.store.ListSessions(ctx, ports.SessionFilter{IncludeArchived: true, ProjectID: folder.ProjectID})
	if err != nil {
		return err
	}

	if err := s.store.DeleteFolder(ctx, id, strategy); err != nil {
		return err
	}
	logging.Logger.Info("Folder deleted", "folder_id", id, "strategy", strategy)

	s.events.Publish(ctx, domain.NewEvent(domain.EventFolderDeleted, domain.DeletedPayload{ID: id, ProjectID: folder.ProjectID}))
	if strategy == domain.FolderDeleteReparent {
		for _, f := range folders {
			if f.ParentID != nil && *f.ParentID == id {
				if _, err := s.publish(ctx, f.ID); err != nil {
					return err
				}
			}
		}
	}
	for _, session := range sessions {
		if session.FolderID == nil || !affected[*session.FolderID] {
			continue
		}
		updated, err := s.store.GetSession(ctx, session.ID)
		if err != nil {
			return err
		}
		s.events.Publish(ctx, domain.NewEvent(domain.EventSessionUpdated, *updated))
	}
	return nil
}

// Reorder applies a sibling batch of folder display orders atomically
func (s *FolderService) Reorder(ctx context.Context, updates []domain.OrderUpdate) error {
	if err := domain.ValidateOrderUpdates(updates); err != nil {
		return err
	}
	if err := s.store.ReorderFolders(ctx, updates); err != nil {
		return err
	}
	for _, u := range updates {
		if _, err := s.publish(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *FolderService) publish(ctx context.Context, id string) (*domain.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, domain.NewEvent(domain.EventFolderUpdated, *folder))
	return folder, nil
}

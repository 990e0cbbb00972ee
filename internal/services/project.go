package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renato0307/grove/internal/config"
	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// ProjectService registers repositories and answers branch questions about them
type ProjectService struct {
	events   ports.EventPublisher
	gitRepo  ports.GitRepository
	sessions *SessionService
	store    ports.Store
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	store ports.Store,
	gitRepo ports.GitRepository,
	sessions *SessionService,
	events ports.EventPublisher,
) *ProjectService {
	return &ProjectService{
		events:   events,
		gitRepo:  gitRepo,
		sessions: sessions,
		store:    store,
	}
}

// Create registers the repository at params.Path. Fields left empty come
// from the repository's .grove.toml, then from git.
func (s *ProjectService) Create(ctx context.Context, params CreateProjectParams) (*domain.Project, error) {
	if strings.TrimSpace(params.Path) == "" {
		return nil, domain.NewValidationError("path", "is required")
	}
	path, err := filepath.Abs(config.ExpandPath(params.Path))
	if err != nil {
		return nil, domain.NewValidationError("path", err.Error())
	}

	isRepo, root := s.gitRepo.IsGitRepo(ctx, path)
	if !isRepo {
		return nil, domain.NewValidationError("path", fmt.Sprintf("%s is not a git repository", path))
	}

	defaults, err := config.LoadProjectFile(root)
	if err != nil {
		return nil, domain.NewValidationError(config.ProjectFileName, err.Error())
	}

	project := domain.Project{
		BaseBranch:     firstNonEmpty(params.BaseBranch, defaults.BaseBranch),
		BuildScript:    firstNonEmpty(params.BuildScript, defaults.BuildScript),
		CreatedAt:      time.Now().UTC(),
		ID:             uuid.New().String(),
		IDECommand:     firstNonEmpty(params.IDECommand, defaults.IDECommand),
		Name:           firstNonEmpty(strings.TrimSpace(params.Name), filepath.Base(root)),
		Path:           root,
		RunScript:      firstNonEmpty(params.RunScript, defaults.RunScript),
		WorktreeFolder: firstNonEmpty(params.WorktreeFolder, defaults.WorktreeFolder),
	}
	if project.BaseBranch == "" {
		project.BaseBranch = s.gitRepo.DetectCurrentBranch(ctx, root)
	}
	if project.BaseBranch == domain.NoBranch {
		return nil, domain.NewValidationError("baseBranch", "could not be detected, pass one explicitly")
	}

	logging.Logger.Info("Creating project", "project_id", project.ID, "path", root, "base_branch", project.BaseBranch)
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	stored, err := s.store.GetProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, domain.NewEvent(domain.EventProjectCreated, *stored))
	return stored, nil
}

// Get returns one project
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.store.GetProject(ctx, id)
}

// List returns projects in display order
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.ListProjects(ctx)
}

// Update changes the fields set in params
func (s *ProjectService) Update(ctx context.Context, id string, params UpdateProjectParams) (*domain.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "cannot be empty")
		}
		project.Name = name
	}
	if params.BaseBranch != nil {
		if strings.TrimSpace(*params.BaseBranch) == "" {
			return nil, domain.NewValidationError("baseBranch", "cannot be empty")
		}
		project.BaseBranch = *params.BaseBranch
	}
	if params.BuildScript != nil {
		project.BuildScript = *params.BuildScript
	}
	if params.RunScript != nil {
		project.RunScript = *params.RunScript
	}
	if params.WorktreeFolder != nil {
		project.WorktreeFolder = *params.WorktreeFolder
	}
	if params.IDECommand != nil {
		project.IDECommand = *params.IDECommand
	}

	if err := s.store.UpdateProject(ctx, *project); err != nil {
		return nil, err
	}
	return s.publish(ctx, id)
}

// Delete tears down every session of the project, then the project itself.
// Worktree cleanup is best-effort so one broken worktree cannot pin a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}

	sessions, err := s.store.ListSessions(ctx, ports.SessionFilter{IncludeArchived: true, ProjectID: id})
	if err != nil {
		return fmt.Errorf("failed to list project sessions: %w", err)
	}

	logging.Logger.Info("Deleting project", "project_id", id, "path", project.Path, "sessions", len(sessions))
	for _, session := range sessions {
		if err := s.sessions.delete(ctx, session.ID, true); err != nil {
			logging.Logger.Warn("Failed to tear down session", "session_id", session.ID, "error", err)
		}
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, domain.NewEvent(domain.EventProjectDeleted, domain.DeletedPayload{ID: id}))
	return nil
}

// DetectBranch returns the branch checked out at path, or domain.NoBranch
func (s *ProjectService) DetectBranch(ctx context.Context, path string) string {
	return s.gitRepo.DetectCurrentBranch(ctx, config.ExpandPath(path))
}

// ListBranches returns the project's local branches flagged with worktree and main status
func (s *ProjectService) ListBranches(ctx context.Context, id string) ([]domain.Branch, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.gitRepo.ListBranches(ctx, *project)
}

// Reorder applies a batch of project display orders atomically
func (s *ProjectService) Reorder(ctx context.Context, updates []domain.OrderUpdate) error {
	if err := domain.ValidateOrderUpdates(updates); err != nil {
		return err
	}
	if err := s.store.ReorderProjects(ctx, updates); err != nil {
		return err
	}
	for _, u := range updates {
		if _, err := s.publish(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectService) publish(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, domain.NewEvent(domain.EventProjectUpdated, *project))
	return project, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package gateway is the command and event boundary of the grove daemon.
// Commands arrive as envelopes over HTTP or SSH and are dispatched to the
// services; events and session output are streamed back out.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
	"github.com/renato0307/grove/internal/services"
)

// Error codes returned in failed responses
const (
	CodeConflict   = "conflict"
	CodeGit        = "git"
	CodeInternal   = "internal"
	CodeNotFound   = "not_found"
	CodeProcess    = "process"
	CodeUnknown    = "unknown_command"
	CodeValidation = "validation"
)

// Request is the command envelope shared by every transport
type Request struct {
	Command string          `json:"command"`
	ID      string          `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response answers one Request. Exactly one of Result and Error is set.
type Response struct {
	Error  *Error          `json:"error,omitempty"`
	ID     string          `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Error is the structured failure of a command
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Output carries raw git output for git failures
	Output string `json:"output,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SessionCommands is the session surface the gateway dispatches to
type SessionCommands interface {
	Archive(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, params services.CreateSessionParams) ([]domain.Session, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context, filter ports.SessionFilter) ([]domain.Session, error)
	ListPermissions(ctx context.Context, sessionID string) []domain.PermissionRequest
	Move(ctx context.Context, id string, folderID *string) (*domain.Session, error)
	Output(ctx context.Context, id string, afterSeq int64, limit int) ([]domain.OutputMessage, error)
	Reorder(ctx context.Context, updates []domain.OrderUpdate) error
	RequestPermission(ctx context.Context, id string, tool domain.ToolCall) (domain.PermissionDecision, error)
	RespondPermission(ctx context.Context, requestID string, decision domain.PermissionDecision) error
	RunScript(ctx context.Context, id string) error
	SendInput(ctx context.Context, id, text string) error
	Stop(ctx context.Context, id string) (domain.StopResult, error)
	Unarchive(ctx context.Context, id string) (*domain.Session, error)
	View(ctx context.Context, id string) (*domain.Session, error)
}

// ProjectCommands is the project surface the gateway dispatches to
type ProjectCommands interface {
	Create(ctx context.Context, params services.CreateProjectParams) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
	DetectBranch(ctx context.Context, path string) string
	Get(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	ListBranches(ctx context.Context, id string) ([]domain.Branch, error)
	Reorder(ctx context.Context, updates []domain.OrderUpdate) error
	Update(ctx context.Context, id string, params services.UpdateProjectParams) (*domain.Project, error)
}

// FolderCommands is the folder surface the gateway dispatches to
type FolderCommands interface {
	Create(ctx context.Context, name, projectID string, parentID *string) (*domain.Folder, error)
	Delete(ctx context.Context, id string, strategy domain.FolderDeleteStrategy) error
	List(ctx context.Context, projectID string) ([]domain.Folder, error)
	Move(ctx context.Context, id string, parentID *string) (*domain.Folder, error)
	Reorder(ctx context.Context, updates []domain.OrderUpdate) error
}

// PreferenceCommands is the preference surface the gateway dispatches to
type PreferenceCommands interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher routes command envelopes to the services
type Dispatcher struct {
	folders     FolderCommands
	handlers    map[string]handlerFunc
	preferences PreferenceCommands
	projects    ProjectCommands
	sessions    SessionCommands
}

// NewDispatcher creates a dispatcher with the full command table registered
func NewDispatcher(
	sessions SessionCommands,
	projects ProjectCommands,
	folders FolderCommands,
	preferences PreferenceCommands,
) *Dispatcher {
	d := &Dispatcher{
		folders:     folders,
		preferences: preferences,
		projects:    projects,
		sessions:    sessions,
	}
	d.handlers = map[string]handlerFunc{
		"project.create":       bind(d.projectCreate),
		"project.delete":       bind(d.projectDelete),
		"project.detectBranch": bind(d.projectDetectBranch),
		"project.get":          bind(d.projectGet),
		"project.list":         bind(d.projectList),
		"project.listBranches": bind(d.projectListBranches),
		"project.reorder":      bind(d.projectReorder),
		"project.update":       bind(d.projectUpdate),

		"session.archive":   bind(d.sessionArchive),
		"session.create":    bind(d.sessionCreate),
		"session.delete":    bind(d.sessionDelete),
		"session.get":       bind(d.sessionGet),
		"session.list":      bind(d.sessionList),
		"session.move":      bind(d.sessionMove),
		"session.output":    bind(d.sessionOutput),
		"session.reorder":   bind(d.sessionReorder),
		"session.runScript": bind(d.sessionRunScript),
		"session.sendInput": bind(d.sessionSendInput),
		"session.stop":      bind(d.sessionStop),
		"session.unarchive": bind(d.sessionUnarchive),
		"session.view":      bind(d.sessionView),

		"folder.create":  bind(d.folderCreate),
		"folder.delete":  bind(d.folderDelete),
		"folder.list":    bind(d.folderList),
		"folder.move":    bind(d.folderMove),
		"folder.reorder": bind(d.folderReorder),

		"permission.list":    bind(d.permissionList),
		"permission.respond": bind(d.permissionRespond),

		"preference.get": bind(d.preferenceGet),
		"preference.set": bind(d.preferenceSet),
	}
	return d
}

// Commands returns the registered command names in sorted order
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch executes one command. It never panics and always returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	resp.ID = req.ID

	handler, ok := d.handlers[req.Command]
	if !ok {
		resp.Error = &Error{Code: CodeUnknown, Message: fmt.Sprintf("unknown command %q", req.Command)}
		return resp
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("Command panicked", "command", req.Command, "panic", r)
			resp = Response{ID: req.ID, Error: &Error{Code: CodeInternal, Message: "internal error"}}
		}
	}()

	logging.Logger.Debug("Dispatching command", "command", req.Command, "request_id", req.ID)
	result, err := handler(ctx, req.Params)
	if err != nil {
		resp.Error = toError(err)
		logging.Logger.Info("Command failed", "command", req.Command, "code", resp.Error.Code, "error", err)
		return resp
	}

	if result == nil {
		result = struct{}{}
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		resp.Error = &Error{Code: CodeInternal, Message: fmt.Sprintf("failed to encode result: %v", err)}
		return resp
	}
	resp.OK = true
	resp.Result = encoded
	return resp
}

// toError maps the domain error taxonomy to a structured error code
func toError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	result := &Error{Code: CodeInternal, Message: err.Error()}
	switch {
	case errors.Is(err, domain.ErrValidation):
		result.Code = CodeValidation
	case errors.Is(err, domain.ErrGitCommandFailed):
		result.Code = CodeGit
	case errors.Is(err, domain.ErrNotFound):
		result.Code = CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		result.Code = CodeConflict
	case errors.Is(err, domain.ErrProcess), errors.Is(err, domain.ErrNotRunning):
		result.Code = CodeProcess
	}

	var gitErr *domain.GitOperationError
	if errors.As(err, &gitErr) {
		result.Output = gitErr.Output
	}
	return result
}

// bind adapts a typed handler to the envelope. Unknown fields are rejected.
func bind[P any](fn func(context.Context, P) (any, error)) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			dec := json.NewDecoder(bytes.NewReader(trimmed))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&params); err != nil {
				return nil, domain.NewValidationError("params", err.Error())
			}
		}
		return fn(ctx, params)
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "is required")
	}
	return nil
}

type idParams struct {
	ID string `json:"id"`
}

type noParams struct{}

type reorderParams struct {
	Updates []domain.OrderUpdate `json:"updates"`
}

type okResult struct {
	OK bool `json:"ok"`
}

// Projects

type projectCreateParams struct {
	BaseBranch     string `json:"baseBranch"`
	BuildScript    string `json:"buildScript"`
	IDECommand     string `json:"ideCommand"`
	Name           string `json:"name"`
	Path           string `json:"path"`
	RunScript      string `json:"runScript"`
	WorktreeFolder string `json:"worktreeFolder"`
}

func (d *Dispatcher) projectCreate(ctx context.Context, p projectCreateParams) (any, error) {
	project, err := d.projects.Create(ctx, services.CreateProjectParams{
		BaseBranch:     p.BaseBranch,
		BuildScript:    p.BuildScript,
		IDECommand:     p.IDECommand,
		Name:           p.Name,
		Path:           p.Path,
		RunScript:      p.RunScript,
		WorktreeFolder: p.WorktreeFolder,
	})
	if err != nil {
		return nil, err
	}
	return newProject(*project), nil
}

func (d *Dispatcher) projectGet(ctx context.Context, p idParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	project, err := d.projects.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return newProject(*project), nil
}

func (d *Dispatcher) projectList(ctx context.Context, _ noParams) (any, error) {
	projects, err := d.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return mapSlice(projects, newProject), nil
}

type projectUpdateParams struct {
	BaseBranch     *string `json:"baseBranch"`
	BuildScript    *string `json:"buildScript"`
	ID             string  `json:"id"`
	IDECommand     *string `json:"ideCommand"`
	Name           *string `json:"name"`
	RunScript      *string `json:"runScript"`
	WorktreeFolder *string `json:"worktreeFolder"`
}

func (d *Dispatcher) projectUpdate(ctx context.Context, p projectUpdateParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	project, err := d.projects.Update(ctx, p.ID, services.UpdateProjectParams{
		BaseBranch:     p.BaseBranch,
		BuildScript:    p.BuildScript,
		IDECommand:     p.IDECommand,
		Name:           p.Name,
		RunScript:      p.RunScript,
		WorktreeFolder: p.WorktreeFolder,
	})
	if err != nil {
		return nil, err
	}
	return newProject(*project), nil
}

func (d *Dispatcher) projectDelete(ctx context.Context, p idParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, d.projects.Delete(ctx, p.ID)
}

type detectBranchParams struct {
	Path string `json:"path"`
}

type detectBranchResult struct {
	// Branch is empty when it cannot be determined
	Branch string `json:"branch"`
}

func (d *Dispatcher) projectDetectBranch(ctx context.Context, p detectBranchParams) (any, error) {
	if err := required("path", p.Path); err != nil {
		return nil, err
	}
	return detectBranchResult{Branch: d.projects.DetectBranch(ctx, p.Path)}, nil
}

func (d *Dispatcher) projectListBranches(ctx context.Context, p idParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	branches, err := d.projects.ListBranches(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	return branches, nil
}

func (d *Dispatcher) projectReorder(ctx context.Context, p reorderParams) (any, error) {
	return okResult{OK: true}, d.projects.Reorder(ctx, p.Updates)
}

// Sessions

type sessionCreateParams struct {
	BaseBranch     string                `json:"baseBranch"`
	Count          int                   `json:"count"`
	FolderID       *string               `json:"folderId"`
	MainRepo       bool                  `json:"mainRepo"`
	Name           string                `json:"name"`
	PermissionMode domain.PermissionMode `json:"permissionMode"`
	ProjectID      string                `json:"projectId"`
	Prompt         string                `json:"prompt"`
}

func (d *Dispatcher) sessionCreate(ctx context.Context, p sessionCreateParams) (any, error) {
	sessions, err := d.sessions.Create(ctx, services.CreateSessionParams{
		BaseBranch:     p.BaseBranch,
		Count:          p.Count,
		FolderID:       p.FolderID,
		MainRepo:       p.MainRepo,
		Name:           p.Name,
		PermissionMode: p.PermissionMode,
		ProjectID:      p.ProjectID,
		Prompt:         p.Prompt,
	})
	if err != nil {
		return nil, err
	}
	return mapSlice(sessions, newSession), nil
}

func (d *Dispatcher) sessionGet(ctx context.Context, p idParams) (any, error) {
	return d.sessionResult(p.ID, func(id string) (*domain.Session, error) { return d.sessions.Get(ctx, id) })
}

func (d *Dispatcher) sessionView(ctx context.Context, p idParams) (any, error) {
	return d.sessionResult(p.ID, func(id string) (*domain.Session, error) { return d.sessions.View(ctx, id) })
}

func (d *Dispatcher) sessionArchive(ctx context.Context, p idParams) (any, error) {
	return d.sessionResult(p.ID, func(id string) (*domain.Session, error) { return d.sessions.Archive(ctx, id) })
}

func (d *Dispatcher) sessionUnarchive(ctx context.Context, p idParams) (any, error) {
	return d.sessionResult(p.ID, func(id string) (*domain.Session, error) { return d.sessions.Unarchive(ctx, id) })
}

func (d *Dispatcher) sessionResult(id string, fn func(string) (*domain.Session, error)) (any, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	session, err := fn(id)
	if err != nil {
		return nil, err
	}
	return newSession(*session), nil
}

type sessionListParams struct {
	IncludeArchived bool   `json:"includeArchived"`
	ProjectID       string `json:"projectId"`
}

func (d *Dispatcher) sessionList(ctx context.Context, p sessionListParams) (any, error) {
	sessions, err := d.sessions.List(ctx, ports.SessionFilter{IncludeArchived: p.IncludeArchived, ProjectID: p.ProjectID})
	if err != nil {
		return nil, err
	}
	return mapSlice(sessions, newSession), nil
}

type sessionOutputParams struct {
	AfterSeq int64  `json:"afterSeq"`
	ID       string `json:"id"`
	Limit    int    `json:"limit"`
}

func (d *Dispatcher) sessionOutput(ctx context.Context, p sessionOutputParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	msgs, err := d.sessions.Output(ctx, p.ID, p.AfterSeq, p.Limit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.OutputMessage{}
	}
	return msgs, nil
}

type sendInputParams struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (d *Dispatcher) sessionSendInput(ctx context.Context, p sendInputParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	if err := required("text", p.Text); err != nil {
		return nil, err
	}
	return okResult{OK: true}, d.sessions.SendInput(ctx, p.ID, p.Text)
}

type stopResult struct {
	Graceful bool `json:"graceful"`
}

func (d *Dispatcher) sessionStop(ctx context.Context, p idParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	result, err := d.sessions.Stop(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return stopResult{Graceful: result.Graceful}, nil
}

func (d *Dispatcher) sessionDelete(ctx context.Context, p idParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, d.sessions.Delete(ctx, p.ID)
}

type sessionMoveParams struct {
	FolderID *string `json:"folderId"`
	ID       string  `json:"id"`
}

func (d *Dispatcher) sessionMove(ctx context.Context, p sessionMoveParams) (any, error) {
	return d.sessionResult(p.ID, func(id string) (*domain.Session, error) { return d.sessions.Move(ctx, id, p.FolderID) })
}

func (d *Dispatcher) sessionReorder(ctx context.Context, p reorderParams) (any, error) {
	return okResult{OK: true}, d.sessions.Reorder(ctx, p.Updates)
}

func (d *Dispatcher) sessionRunScript(ctx context.Context, p idParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	return okResult{OK: true}, d.sessions.RunScript(ctx, p.ID)
}

// Folders

type folderCreateParams struct {
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	ProjectID string  `json:"projectId"`
}

func (d *Dispatcher) folderCreate(ctx context.Context, p folderCreateParams) (any, error) {
	if err := required("projectId", p.ProjectID); err != nil {
		return nil, err
	}
	folder, err := d.folders.Create(ctx, p.Name, p.ProjectID, p.ParentID)
	if err != nil {
		return nil, err
	}
	return newFolder(*folder), nil
}

type folderListParams struct {
	ProjectID string `json:"projectId"`
}

func (d *Dispatcher) folderList(ctx context.Context, p folderListParams) (any, error) {
	if err := required("projectId", p.ProjectID); err != nil {
		return nil, err
	}
	folders, err := d.folders.List(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}
	return mapSlice(folders, newFolder), nil
}

type folderMoveParams struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId"`
}

func (d *Dispatcher) folderMove(ctx context.Context, p folderMoveParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	folder, err := d.folders.Move(ctx, p.ID, p.ParentID)
	if err != nil {
		return nil, err
	}
	return newFolder(*folder), nil
}

type folderDeleteParams struct {
	ID       string                      `json:"id"`
	Strategy domain.FolderDeleteStrategy `json:"strategy"`
}

func (d *Dispatcher) folderDelete(ctx context.Context, p folderDeleteParams) (any, error) {
	if err := required("id", p.ID); err != nil {
		return nil, err
	}
	switch p.Strategy {
	case domain.FolderDeleteNone, domain.FolderDeleteCascade, domain.FolderDeleteReparent:
	default:
		return nil, domain.NewValidationError("strategy", "must be 'cascade' or 'reparent'")
	}
	return okResult{OK: true}, d.folders.Delete(ctx, p.ID, p.Strategy)
}

func (d *Dispatcher) folderReorder(ctx context.Context, p reorderParams) (any, error) {
	return okResult{OK: true}, d.folders.Reorder(ctx, p.Updates)
}

// Permissions

type permissionListParams struct {
	SessionID string `json:"sessionId"`
}

func (d *Dispatcher) permissionList(ctx context.Context, p permissionListParams) (any, error) {
	return mapSlice(d.sessions.ListPermissions(ctx, p.SessionID), newPermissionRequest), nil
}

type permissionRespondParams struct {
	Behavior     domain.PermissionBehavior `json:"behavior"`
	Message      string                    `json:"message"`
	RequestID    string                    `json:"requestId"`
	UpdatedInput json.RawMessage           `json:"updatedInput"`
}

func (d *Dispatcher) permissionRespond(ctx context.Context, p permissionRespondParams) (any, error) {
	if err := required("requestId", p.RequestID); err != nil {
		return nil, err
	}
	decision := domain.PermissionDecision{
		Behavior:     p.Behavior,
		Message:      p.Message,
		UpdatedInput: p.UpdatedInput,
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	return okResult{OK: true}, d.sessions.RespondPermission(ctx, p.RequestID, decision)
}

// Preferences

type preferenceParams struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type preferenceResult struct {
	Found bool   `json:"found"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (d *Dispatcher) preferenceGet(ctx context.Context, p preferenceParams) (any, error) {
	value, found, err := d.preferences.Get(ctx, p.Key)
	if err != nil {
		return nil, err
	}
	return preferenceResult{Found: found, Key: p.Key, Value: value}, nil
}

func (d *Dispatcher) preferenceSet(ctx context.Context, p preferenceParams) (any, error) {
	if err := d.preferences.Set(ctx, p.Key, p.Value); err != nil {
		return nil, err
	}
	return preferenceResult{Found: true, Key: p.Key, Value: p.Value}, nil
}

package domain

import (
	"strings"
	"time"
)

// Folder groups sessions inside a project. ParentID refers to another folder by id.
type Folder struct {
	CreatedAt    time.Time
	DisplayOrder int
	ID           string
	Name         string
	ParentID     *string
	ProjectID    string
	UpdatedAt    time.Time
}

// FolderDeleteStrategy decides what happens to a folder's children on delete
type FolderDeleteStrategy string

const (
	// FolderDeleteNone refuses to delete a folder that still has children
	FolderDeleteNone FolderDeleteStrategy = ""
	// FolderDeleteCascade removes descendant folders and moves their sessions to the project root
	FolderDeleteCascade FolderDeleteStrategy = "cascade"
	// FolderDeleteReparent moves children to the deleted folder's parent
	FolderDeleteReparent FolderDeleteStrategy = "reparent"
)

// ValidateFolderName checks a user supplied folder name
func ValidateFolderName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NewValidationError("folder name", "cannot be empty")
	}
	if len(trimmed) > 100 {
		return NewValidationError("folder name", "cannot be longer than 100 characters")
	}
	return nil
}

// IsDescendant reports whether candidate is folderID itself or sits below it.
// folders is the flat folder table of one project keyed by id.
func IsDescendant(folders map[string]Folder, folderID, candidate string) bool {
	visited := make(map[string]bool)
	current := candidate
	for current != "" {
		if current == folderID {
			return true
		}
		if visited[current] {
			// A pre-existing cycle; treat as descendant so the move is refused
			return true
		}
		visited[current] = true

		f, ok := folders[current]
		if !ok || f.ParentID == nil {
			return false
		}
		current = *f.ParentID
	}
	return false
}

// Descendants returns the ids of every folder below folderID, depth first
func Descendants(folders map[string]Folder, folderID string) []string {
	children := make(map[string][]string)
	for id, f := range folders {
		if f.ParentID != nil {
			children[*f.ParentID] = append(children[*f.ParentID], id)
		}
	}

	var result []string
	visited := map[string]bool{folderID: true}
	stack := append([]string(nil), children[folderID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		result = append(result, id)
		stack = append(stack, children[id]...)
	}
	return result
}

package domain

// NoBranch is returned by branch detection when the branch cannot be determined
const NoBranch = ""

// Branch is a local branch of a project repository
type Branch struct {
	HasWorktree bool   `json:"hasWorktree"`
	IsCurrent   bool   `json:"isCurrent"`
	IsMain      bool   `json:"isMain"`
	Name        string `json:"name"`
}

// Worktree is the result of provisioning a session worktree
type Worktree struct {
	BaseCommit string
	Branch     string
	Path       string
}

// OrderUpdate assigns a display order to one sibling
type OrderUpdate struct {
	DisplayOrder int    `json:"displayOrder"`
	ID           string `json:"id"`
}

// ValidateOrderUpdates checks a reorder batch
func ValidateOrderUpdates(updates []OrderUpdate) error {
	if len(updates) == 0 {
		return NewValidationError("order", "batch cannot be empty")
	}
	seen := make(map[string]bool, len(updates))
	for _, u := range updates {
		if u.ID == "" {
			return NewValidationError("order", "id is required")
		}
		if u.DisplayOrder < 0 {
			return NewValidationError("order", "display order cannot be negative")
		}
		if seen[u.ID] {
			return NewValidationError("order", "duplicate id "+u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}

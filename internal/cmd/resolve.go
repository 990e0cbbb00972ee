package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/gateway"
)

// Commands accept an id, a unique id prefix or a name wherever they take an
// entity reference

const minPrefixLen = 4

func pick[T any](kind, ref string, items []T, id, name func(T) string) (T, error) {
	var zero T
	for _, item := range items {
		if id(item) == ref {
			return item, nil
		}
	}

	var matches []T
	for _, item := range items {
		if name(item) == ref {
			matches = append(matches, item)
		}
	}
	if len(matches) == 0 && len(ref) >= minPrefixLen {
		for _, item := range items {
			if strings.HasPrefix(id(item), ref) {
				matches = append(matches, item)
			}
		}
	}

	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%s %q not found", kind, ref)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = id(m)
		}
		return zero, fmt.Errorf("%s %q is ambiguous, use one of: %s", kind, ref, strings.Join(ids, ", "))
	}
}

func resolveProject(ctx context.Context, client *gateway.Client, ref string) (gateway.Project, error) {
	var projects []gateway.Project
	if err := client.Do(ctx, "project.list", nil, &projects); err != nil {
		return gateway.Project{}, err
	}
	if abs, err := filepath.Abs(ref); err == nil {
		for _, p := range projects {
			if p.Path == abs {
				return p, nil
			}
		}
	}
	return pick("project", ref, projects,
		func(p gateway.Project) string { return p.ID },
		func(p gateway.Project) string { return p.Name })
}

func resolveSession(ctx context.Context, client *gateway.Client, ref string) (gateway.Session, error) {
	var sessions []gateway.Session
	if err := client.Do(ctx, "session.list", map[string]any{"includeArchived": true}, &sessions); err != nil {
		return gateway.Session{}, err
	}
	return pick("session", ref, sessions,
		func(s gateway.Session) string { return s.ID },
		func(s gateway.Session) string { return s.Name })
}

func resolveFolder(ctx context.Context, client *gateway.Client, projectID, ref string) (gateway.Folder, error) {
	var folders []gateway.Folder
	if err := client.Do(ctx, "folder.list", map[string]any{"projectId": projectID}, &folders); err != nil {
		return gateway.Folder{}, err
	}
	return pick("folder", ref, folders,
		func(f gateway.Folder) string { return f.ID },
		func(f gateway.Folder) string { return f.Name })
}

// resolveSessions resolves refs in order, for reorder commands
func resolveSessions(ctx context.Context, client *gateway.Client, refs []string) ([]gateway.Session, error) {
	resolved := make([]gateway.Session, 0, len(refs))
	for _, ref := range refs {
		s, err := resolveSession(ctx, client, ref)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, s)
	}
	return resolved, nil
}

// orderUpdates assigns display orders 0..n-1 following the argument order
func orderUpdates(ids []string) []domain.OrderUpdate {
	updates := make([]domain.OrderUpdate, len(ids))
	for i, id := range ids {
		updates[i] = domain.OrderUpdate{DisplayOrder: i, ID: id}
	}
	return updates
}

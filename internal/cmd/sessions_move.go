package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/gateway"
)

// SessionsMoveCmd moves a session into a folder
type SessionsMoveCmd struct {
	Session string `arg:"" help:"Session id or name"`
	Folder  string `arg:"" optional:"" help:"Target folder id or name (omit to move to the project root)"`
}

// Run executes the move command
func (s *SessionsMoveCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}

	params := map[string]any{"id": session.ID, "folderId": nil}
	target := "project root"
	if s.Folder != "" {
		folder, err := resolveFolder(ctx, client, session.ProjectID, s.Folder)
		if err != nil {
			return err
		}
		params["folderId"] = folder.ID
		target = folder.Name
	}

	var moved gateway.Session
	if err := client.Do(ctx, "session.move", params, &moved); err != nil {
		return fmt.Errorf("failed to move session: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Session '%s' moved to %s\n", moved.Name, target)
	return nil
}

// SessionsReorderCmd sets the display order of sibling sessions
type SessionsReorderCmd struct {
	Sessions []string `arg:"" help:"Sessions in their new order"`
}

// Run executes the reorder command
func (s *SessionsReorderCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sessions, err := resolveSessions(ctx, client, s.Sessions)
	if err != nil {
		return err
	}
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}

	if err := client.Do(ctx, "session.reorder", map[string]any{"updates": orderUpdates(ids)}, nil); err != nil {
		return fmt.Errorf("failed to reorder sessions: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Reordered %d sessions\n", len(ids))
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/logging"
)

// SessionsDelCmd deletes a session
type SessionsDelCmd struct {
	Force   bool   `help:"Force deletion without confirmation" short:"f"`
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the del command
func (s *SessionsDelCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}
	logging.Logger.Info("Executing sessions del command", "session_id", session.ID, "force", s.Force)

	if !s.Force {
		description := "Stops the agent and deletes the output history."
		if !session.IsMainRepo {
			description = fmt.Sprintf("Stops the agent and removes the worktree at %s.", session.WorktreePath)
		}
		ok, err := confirm(fmt.Sprintf("Delete session '%s'?", session.Name), description, "Delete")
		if err != nil {
			return err
		}
		if !ok {
			logging.Logger.Info("User cancelled session deletion", "session_id", session.ID)
			fmt.Fprintln(cli.stdout(), "Cancelled")
			return nil
		}
	}

	if err := client.Do(ctx, "session.delete", map[string]any{"id": session.ID}, nil); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Session '%s' deleted\n", session.Name)
	return nil
}

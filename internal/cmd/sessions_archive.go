package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/gateway"
)

// SessionsArchiveCmd archives a session
type SessionsArchiveCmd struct {
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the archive command
func (s *SessionsArchiveCmd) Run(cli *CLI) error {
	return setArchived(cli, s.Session, "session.archive", "archived")
}

// SessionsUnarchiveCmd restores an archived session
type SessionsUnarchiveCmd struct {
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the unarchive command
func (s *SessionsUnarchiveCmd) Run(cli *CLI) error {
	return setArchived(cli, s.Session, "session.unarchive", "unarchived")
}

func setArchived(cli *CLI, ref, command, verb string) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, ref)
	if err != nil {
		return err
	}

	var updated gateway.Session
	if err := client.Do(ctx, command, map[string]any{"id": session.ID}, &updated); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Session '%s' %s\n", updated.Name, verb)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"strings"
)

// SessionsSendCmd sends a user message to the agent. A session whose agent has
// exited is resumed.
type SessionsSendCmd struct {
	Session string   `arg:"" help:"Session id or name"`
	Text    []string `arg:"" help:"Message text"`
}

// Run executes the send command
func (s *SessionsSendCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}

	text := strings.Join(s.Text, " ")
	if err := client.Do(ctx, "session.sendInput", map[string]any{"id": session.ID, "text": text}, nil); err != nil {
		return fmt.Errorf("failed to send input: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Sent to '%s'\n", session.Name)
	return nil
}

// SessionsStopCmd stops the agent of a session
type SessionsStopCmd struct {
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the stop command
func (s *SessionsStopCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}

	var result struct {
		Graceful bool `json:"graceful"`
	}
	if err := client.Do(ctx, "session.stop", map[string]any{"id": session.ID}, &result); err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}
	if result.Graceful {
		fmt.Fprintf(cli.stdout(), "Session '%s' stopped\n", session.Name)
	} else {
		fmt.Fprintf(cli.stdout(), "Session '%s' stopped (agent was killed after the grace period)\n", session.Name)
	}
	return nil
}

// SessionsRunScriptCmd runs the project's run script in the session worktree
type SessionsRunScriptCmd struct {
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the run-script command
func (s *SessionsRunScriptCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}
	if err := client.Do(ctx, "session.runScript", map[string]any{"id": session.ID}, nil); err != nil {
		return fmt.Errorf("failed to run script: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Run script started in '%s'; its output is logged to the session\n", session.Name)
	return nil
}

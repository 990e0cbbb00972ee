package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/theme"
)

// SessionsViewCmd views a specific session
type SessionsViewCmd struct {
	Format  string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the view command
func (s *SessionsViewCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	ref, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}

	var session gateway.Session
	if err := client.Do(ctx, "session.view", map[string]any{"id": ref.ID}, &session); err != nil {
		return fmt.Errorf("failed to view session: %w", err)
	}
	if s.Format == "json" {
		return printJSON(cli.stdout(), session)
	}
	printSession(cli.stdout(), session)
	return nil
}

func printSession(w io.Writer, session gateway.Session) {
	label := theme.LabelStyle.Render
	fmt.Fprintf(w, "%s\n", theme.TitleStyle.Render(session.Name))
	fmt.Fprintf(w, "%s %s\n", label("ID:             "), session.ID)
	fmt.Fprintf(w, "%s %s\n", label("Status:         "), renderStatus(session.Status))
	if session.StatusMessage != "" {
		fmt.Fprintf(w, "%s %s\n", label("Status Message: "), session.StatusMessage)
	}
	fmt.Fprintf(w, "%s %s\n", label("Project:        "), session.ProjectID)
	fmt.Fprintf(w, "%s %s\n", label("Branch:         "), orDash(session.Branch))
	fmt.Fprintf(w, "%s %s\n", label("Base Branch:    "), session.BaseBranch)
	fmt.Fprintf(w, "%s %s\n", label("Base Commit:    "), orDash(session.BaseCommit))
	fmt.Fprintf(w, "%s %s\n", label("Worktree:       "), session.WorktreePath)
	fmt.Fprintf(w, "%s %t\n", label("Main Repo:      "), session.IsMainRepo)
	fmt.Fprintf(w, "%s %s\n", label("Permission Mode:"), session.PermissionMode)
	fmt.Fprintf(w, "%s %t\n", label("Archived:       "), session.Archived)
	if session.FolderID != nil {
		fmt.Fprintf(w, "%s %s\n", label("Folder:         "), *session.FolderID)
	}
	if session.PID != 0 {
		fmt.Fprintf(w, "%s %d\n", label("PID:            "), session.PID)
	}
	if session.AgentSessionID != "" {
		fmt.Fprintf(w, "%s %s\n", label("Agent Session:  "), session.AgentSessionID)
	}
	fmt.Fprintf(w, "%s %s\n", label("Created:        "), session.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%s %s\n", label("Last Activity:  "), relativeTime(session.LastActivity))
	if session.Prompt != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", label("Prompt:"), session.Prompt)
	}
	if session.RawOutput != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", label("Raw Output:"), session.RawOutput)
	}
}

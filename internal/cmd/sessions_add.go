package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/logging"
)

// SessionsAddCmd creates sessions
type SessionsAddCmd struct {
	BaseBranch     string `help:"Branch to start from (default: the project's base branch)"`
	Count          int    `help:"Number of sessions to create" short:"n" default:"1"`
	Folder         string `help:"Folder to place the sessions in"`
	Format         string `help:"Output format: table or json" enum:"table,json" default:"table"`
	MainRepo       bool   `help:"Work directly in the project checkout instead of a new worktree"`
	Name           string `help:"Session name (default: derived from the prompt)"`
	PermissionMode string `help:"approve (ask for every tool call) or ignore (allow all)" placeholder:"MODE"`
	Project        string `arg:"" help:"Project id, name or path"`
	Prompt         string `help:"Initial prompt; the agent starts right away when set" short:"m"`
}

// Run executes the add command
func (s *SessionsAddCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	project, err := resolveProject(ctx, client, s.Project)
	if err != nil {
		return err
	}

	params := map[string]any{
		"baseBranch":     s.BaseBranch,
		"count":          s.Count,
		"mainRepo":       s.MainRepo,
		"name":           s.Name,
		"permissionMode": s.PermissionMode,
		"projectId":      project.ID,
		"prompt":         s.Prompt,
	}
	if s.Folder != "" {
		folder, err := resolveFolder(ctx, client, project.ID, s.Folder)
		if err != nil {
			return err
		}
		params["folderId"] = folder.ID
	}

	logging.Logger.Info("Executing sessions add command", "project_id", project.ID, "name", s.Name, "count", s.Count)

	var created []gateway.Session
	if err := client.Do(ctx, "session.create", params, &created); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if s.Format == "json" {
		return printJSON(cli.stdout(), created)
	}

	for _, session := range created {
		fmt.Fprintf(cli.stdout(), "Session '%s' created (%s)\n", session.Name, session.ID)
	}
	fmt.Fprintf(cli.stdout(), "Follow with: grove sessions output --follow %s\n", created[len(created)-1].Name)
	return nil
}

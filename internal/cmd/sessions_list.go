package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/theme"
)

// SessionsListCmd lists sessions
type SessionsListCmd struct {
	Archived bool   `help:"Include archived sessions" short:"a"`
	Format   string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Project  string `help:"Only list sessions of this project" short:"p"`
}

// Run executes the list command
func (s *SessionsListCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	params := map[string]any{"includeArchived": s.Archived}
	projectNames := map[string]string{}
	if s.Project != "" {
		project, err := resolveProject(ctx, client, s.Project)
		if err != nil {
			return err
		}
		params["projectId"] = project.ID
		projectNames[project.ID] = project.Name
	} else {
		var projects []gateway.Project
		if err := client.Do(ctx, "project.list", nil, &projects); err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		for _, p := range projects {
			projectNames[p.ID] = p.Name
		}
	}

	var sessions []gateway.Session
	if err := client.Do(ctx, "session.list", params, &sessions); err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if s.Format == "json" {
		return printJSON(cli.stdout(), sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cli.stdout(), "No sessions found")
		return nil
	}

	w := newTableWriter(cli.stdout())
	fmt.Fprintln(w, "ID\tNAME\tPROJECT\tSTATUS\tBRANCH\tLAST ACTIVITY")
	for _, session := range sessions {
		name := session.Name
		if session.IsMainRepo {
			name += " (main)"
		}
		if session.Archived {
			name += " " + theme.MutedStyle.Render("[archived]")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(session.ID),
			name,
			orDash(projectNames[session.ProjectID]),
			renderStatus(session.Status),
			theme.BranchStyle.Render(orDash(session.Branch)),
			relativeTime(session.LastActivity),
		)
	}
	w.Flush()

	fmt.Fprintf(cli.stdout(), "\nTotal: %d sessions\n", len(sessions))
	return nil
}

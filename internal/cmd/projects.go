package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/logging"
)

// ProjectsCmd manages projects
type ProjectsCmd struct {
	Add          ProjectsAddCmd          `cmd:"add" help:"Register a git repository as a project"`
	Branches     ProjectsBranchesCmd     `cmd:"branches" help:"List the local branches of a project"`
	Del          ProjectsDelCmd          `cmd:"del" help:"Delete a project and tear down its worktrees"`
	DetectBranch ProjectsDetectBranchCmd `cmd:"detect-branch" help:"Print the branch checked out at a path"`
	List         ProjectsListCmd         `cmd:"list" help:"List all projects" default:"1"`
	Reorder      ProjectsReorderCmd      `cmd:"reorder" help:"Set the display order of projects"`
	Set          ProjectsSetCmd          `cmd:"set" help:"Update project configuration"`
}

// ProjectsAddCmd registers a project
type ProjectsAddCmd struct {
	BaseBranch     string `help:"Branch new worktrees start from (default: the current branch)"`
	BuildScript    string `help:"Script run in every new worktree before the agent starts"`
	IDECommand     string `help:"Command used to open a worktree in an editor" name:"ide-command"`
	Name           string `help:"Display name (default: directory name)"`
	Path           string `arg:"" help:"Path inside the git repository" type:"path" default:"."`
	RunScript      string `help:"Script run on demand with 'sessions run-script'"`
	WorktreeFolder string `help:"Folder holding session worktrees (default: <repo>/.grove-worktrees)"`
}

// Run executes the add command
func (p *ProjectsAddCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	logging.Logger.Info("Executing projects add command", "path", p.Path)

	var project gateway.Project
	err = client.Do(context.Background(), "project.create", map[string]any{
		"baseBranch":     p.BaseBranch,
		"buildScript":    p.BuildScript,
		"ideCommand":     p.IDECommand,
		"name":           p.Name,
		"path":           p.Path,
		"runScript":      p.RunScript,
		"worktreeFolder": p.WorktreeFolder,
	}, &project)
	if err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}

	fmt.Fprintf(cli.stdout(), "Project '%s' added (%s)\n", project.Name, project.ID)
	fmt.Fprintf(cli.stdout(), "  Base branch: %s\n", project.BaseBranch)
	fmt.Fprintf(cli.stdout(), "  Worktrees:   %s\n", project.WorktreeFolder)
	return nil
}

// ProjectsListCmd lists projects
type ProjectsListCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the list command
func (p *ProjectsListCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}

	var projects []gateway.Project
	if err := client.Do(context.Background(), "project.list", nil, &projects); err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if p.Format == "json" {
		return printJSON(cli.stdout(), projects)
	}

	if len(projects) == 0 {
		fmt.Fprintln(cli.stdout(), "No projects found")
		return nil
	}

	w := newTableWriter(cli.stdout())
	fmt.Fprintln(w, "ID\tNAME\tBASE BRANCH\tPATH\tCREATED")
	for _, project := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(project.ID), project.Name, project.BaseBranch, project.Path, relativeTime(project.CreatedAt))
	}
	w.Flush()

	fmt.Fprintf(cli.stdout(), "\nTotal: %d projects\n", len(projects))
	return nil
}

// ProjectsBranchesCmd lists the branches of a project
type ProjectsBranchesCmd struct {
	Format  string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Project string `arg:"" help:"Project id, name or path"`
}

// Run executes the branches command
func (p *ProjectsBranchesCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	project, err := resolveProject(ctx, client, p.Project)
	if err != nil {
		return err
	}

	var branches []domain.Branch
	if err := client.Do(ctx, "project.listBranches", map[string]any{"id": project.ID}, &branches); err != nil {
		return fmt.Errorf("failed to list branches: %w", err)
	}
	if p.Format == "json" {
		return printJSON(cli.stdout(), branches)
	}

	w := newTableWriter(cli.stdout())
	fmt.Fprintln(w, "BRANCH\tCURRENT\tMAIN\tWORKTREE")
	for _, b := range branches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Name, mark(b.IsCurrent), mark(b.IsMain), mark(b.HasWorktree))
	}
	w.Flush()
	return nil
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

// ProjectsDetectBranchCmd prints the checked out branch at a path
type ProjectsDetectBranchCmd struct {
	Path string `arg:"" help:"Path to inspect" type:"path" default:"."`
}

// Run executes the detect-branch command
func (p *ProjectsDetectBranchCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}

	var result struct {
		Branch string `json:"branch"`
	}
	if err := client.Do(context.Background(), "project.detectBranch", map[string]any{"path": p.Path}, &result); err != nil {
		return err
	}
	if result.Branch == "" {
		return fmt.Errorf("could not determine the branch at %s", p.Path)
	}
	fmt.Fprintln(cli.stdout(), result.Branch)
	return nil
}

// ProjectsDelCmd deletes a project
type ProjectsDelCmd struct {
	Force   bool   `help:"Force deletion without confirmation" short:"f"`
	Project string `arg:"" help:"Project id, name or path"`
}

// Run executes the del command
func (p *ProjectsDelCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	project, err := resolveProject(ctx, client, p.Project)
	if err != nil {
		return err
	}

	if !p.Force {
		ok, err := confirm(
			fmt.Sprintf("Delete project '%s'?", project.Name),
			fmt.Sprintf("Stops its agents and removes every worktree under %s.", project.WorktreeFolder),
			"Delete",
		)
		if err != nil {
			return err
		}
		if !ok {
			logging.Logger.Info("User cancelled project deletion", "project_id", project.ID)
			fmt.Fprintln(cli.stdout(), "Cancelled")
			return nil
		}
	}

	if err := client.Do(ctx, "project.delete", map[string]any{"id": project.ID}, nil); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Project '%s' deleted\n", project.Name)
	return nil
}

// ProjectsReorderCmd sets the display order of projects
type ProjectsReorderCmd struct {
	Projects []string `arg:"" help:"Projects in their new order"`
}

// Run executes the reorder command
func (p *ProjectsReorderCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	ids := make([]string, 0, len(p.Projects))
	for _, ref := range p.Projects {
		project, err := resolveProject(ctx, client, ref)
		if err != nil {
			return err
		}
		ids = append(ids, project.ID)
	}

	if err := client.Do(ctx, "project.reorder", map[string]any{"updates": orderUpdates(ids)}, nil); err != nil {
		return fmt.Errorf("failed to reorder projects: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Reordered %d projects\n", len(ids))
	return nil
}

// ProjectsSetCmd updates project configuration. Empty flags are left unchanged.
type ProjectsSetCmd struct {
	BaseBranch     string `help:"Branch new worktrees start from"`
	BuildScript    string `help:"Script run in every new worktree"`
	IDECommand     string `help:"Editor command" name:"ide-command"`
	Name           string `help:"Display name"`
	Project        string `arg:"" help:"Project id, name or path"`
	RunScript      string `help:"On-demand run script"`
	WorktreeFolder string `help:"Folder holding session worktrees" type:"path"`
}

// Run executes the set command
func (p *ProjectsSetCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	project, err := resolveProject(ctx, client, p.Project)
	if err != nil {
		return err
	}

	params := map[string]any{"id": project.ID}
	for key, value := range map[string]string{
		"baseBranch":     p.BaseBranch,
		"buildScript":    p.BuildScript,
		"ideCommand":     p.IDECommand,
		"name":           p.Name,
		"runScript":      p.RunScript,
		"worktreeFolder": p.WorktreeFolder,
	} {
		if value != "" {
			params[key] = value
		}
	}
	if len(params) == 1 {
		return fmt.Errorf("nothing to update")
	}

	var updated gateway.Project
	if err := client.Do(ctx, "project.update", params, &updated); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Project '%s' updated\n", updated.Name)
	return nil
}

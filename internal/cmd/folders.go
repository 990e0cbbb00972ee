package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/logging"
)

// FoldersCmd manages the folder tree of a project
type FoldersCmd struct {
	Add     FoldersAddCmd     `cmd:"add" help:"Create a folder"`
	Del     FoldersDelCmd     `cmd:"del" help:"Delete a folder"`
	List    FoldersListCmd    `cmd:"list" help:"Show the folder tree of a project"`
	Move    FoldersMoveCmd    `cmd:"move" aliases:"mv" help:"Move a folder under another folder"`
	Reorder FoldersReorderCmd `cmd:"reorder" help:"Set the display order of sibling folders"`
}

// FoldersAddCmd creates a folder
type FoldersAddCmd struct {
	Project string `arg:"" help:"Project id, name or path"`
	Name    string `arg:"" help:"Folder name"`
	Parent  string `help:"Parent folder id or name"`
}

// Run executes the add command
func (f *FoldersAddCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	project, err := resolveProject(ctx, client, f.Project)
	if err != nil {
		return err
	}
	params := map[string]any{"name": f.Name, "projectId": project.ID}
	if f.Parent != "" {
		parent, err := resolveFolder(ctx, client, project.ID, f.Parent)
		if err != nil {
			return err
		}
		params["parentId"] = parent.ID
	}

	var folder gateway.Folder
	if err := client.Do(ctx, "folder.create", params, &folder); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Folder '%s' created (%s)\n", folder.Name, folder.ID)
	return nil
}

// FoldersListCmd shows the folder tree
type FoldersListCmd struct {
	Format  string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Project string `arg:"" help:"Project id, name or path"`
}

// Run executes the list command
func (f *FoldersListCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	project, err := resolveProject(ctx, client, f.Project)
	if err != nil {
		return err
	}
	var folders []gateway.Folder
	if err := client.Do(ctx, "folder.list", map[string]any{"projectId": project.ID}, &folders); err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	if f.Format == "json" {
		return printJSON(cli.stdout(), folders)
	}

	if len(folders) == 0 {
		fmt.Fprintln(cli.stdout(), "No folders found")
		return nil
	}

	w := newTableWriter(cli.stdout())
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	printFolderTree(w, folders)
	w.Flush()

	fmt.Fprintf(cli.stdout(), "\nTotal: %d folders\n", len(folders))
	return nil
}

// printFolderTree writes folders depth first, indenting children under their parent.
// Folders arrive sorted by display order within each parent.
func printFolderTree(w io.Writer, folders []gateway.Folder) {
	children := make(map[string][]gateway.Folder)
	for _, folder := range folders {
		parent := ""
		if folder.ParentID != nil {
			parent = *folder.ParentID
		}
		children[parent] = append(children[parent], folder)
	}

	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, folder := range children[parent] {
			fmt.Fprintf(w, "%s\t%s%s\t%s\n",
				shortID(folder.ID), strings.Repeat("  ", depth), folder.Name, relativeTime(folder.CreatedAt))
			walk(folder.ID, depth+1)
		}
	}
	walk("", 0)
}

// FoldersMoveCmd reparents a folder
type FoldersMoveCmd struct {
	Project string `arg:"" help:"Project id, name or path"`
	Folder  string `arg:"" help:"Folder id or name"`
	Parent  string `arg:"" optional:"" help:"New parent folder (omit to move to the project root)"`
}

// Run executes the move command
func (f *FoldersMoveCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	project, err := resolveProject(ctx, client, f.Project)
	if err != nil {
		return err
	}
	folder, err := resolveFolder(ctx, client, project.ID, f.Folder)
	if err != nil {
		return err
	}

	params := map[string]any{"id": folder.ID, "parentId": nil}
	target := "project root"
	if f.Parent != "" {
		parent, err := resolveFolder(ctx, client, project.ID, f.Parent)
		if err != nil {
			return err
		}
		params["parentId"] = parent.ID
		target = parent.Name
	}

	if err := client.Do(ctx, "folder.move", params, nil); err != nil {
		return fmt.Errorf("failed to move folder: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Folder '%s' moved to %s\n", folder.Name, target)
	return nil
}

// FoldersDelCmd deletes a folder
type FoldersDelCmd struct {
	Force    bool   `help:"Force deletion without confirmation" short:"f"`
	Project  string `arg:"" help:"Project id, name or path"`
	Folder   string `arg:"" help:"Folder id or name"`
	Strategy string `help:"What happens to children: cascade or reparent (required when the folder is not empty)" enum:",cascade,reparent" default:""`
}

// Run executes the del command
func (f *FoldersDelCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	project, err := resolveProject(ctx, client, f.Project)
	if err != nil {
		return err
	}
	folder, err := resolveFolder(ctx, client, project.ID, f.Folder)
	if err != nil {
		return err
	}

	if !f.Force {
		description := "The folder must be empty."
		switch f.Strategy {
		case "cascade":
			description = "Sub-folders are deleted; their sessions move to the project root."
		case "reparent":
			description = "Children move to the folder's parent."
		}
		ok, err := confirm(fmt.Sprintf("Delete folder '%s'?", folder.Name), description, "Delete")
		if err != nil {
			return err
		}
		if !ok {
			logging.Logger.Info("User cancelled folder deletion", "folder_id", folder.ID)
			fmt.Fprintln(cli.stdout(), "Cancelled")
			return nil
		}
	}

	params := map[string]any{"id": folder.ID, "strategy": f.Strategy}
	if err := client.Do(ctx, "folder.delete", params, nil); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Folder '%s' deleted\n", folder.Name)
	return nil
}

// FoldersReorderCmd sets the display order of sibling folders
type FoldersReorderCmd struct {
	Project string   `arg:"" help:"Project id, name or path"`
	Folders []string `arg:"" help:"Folders in their new order"`
}

// Run executes the reorder command
func (f *FoldersReorderCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	project, err := resolveProject(ctx, client, f.Project)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(f.Folders))
	for _, ref := range f.Folders {
		folder, err := resolveFolder(ctx, client, project.ID, ref)
		if err != nil {
			return err
		}
		ids = append(ids, folder.ID)
	}

	if err := client.Do(ctx, "folder.reorder", map[string]any{"updates": orderUpdates(ids)}, nil); err != nil {
		return fmt.Errorf("failed to reorder folders: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Reordered %d folders\n", len(ids))
	return nil
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/renato0307/grove/internal/gateway"
)

// PermissionsCmd lists and answers pending permission requests
type PermissionsCmd struct {
	List    PermissionsListCmd    `cmd:"list" help:"List pending permission requests" default:"1"`
	Respond PermissionsRespondCmd `cmd:"respond" help:"Allow or deny a pending request"`
}

// PermissionsListCmd lists pending requests
type PermissionsListCmd struct {
	Format  string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Session string `help:"Only list requests of this session" short:"s"`
}

// Run executes the list command
func (p *PermissionsListCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	params := map[string]any{}
	if p.Session != "" {
		session, err := resolveSession(ctx, client, p.Session)
		if err != nil {
			return err
		}
		params["sessionId"] = session.ID
	}

	var requests []gateway.PermissionRequest
	if err := client.Do(ctx, "permission.list", params, &requests); err != nil {
		return fmt.Errorf("failed to list permission requests: %w", err)
	}
	if p.Format == "json" {
		return printJSON(cli.stdout(), requests)
	}

	if len(requests) == 0 {
		fmt.Fprintln(cli.stdout(), "No pending permission requests")
		return nil
	}

	w := newTableWriter(cli.stdout())
	fmt.Fprintln(w, "REQUEST\tSESSION\tTOOL\tSUMMARY\tWAITING")
	for _, r := range requests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, shortID(r.SessionID), r.ToolName, orDash(truncate(r.Summary, 60)), relativeTime(r.CreatedAt))
	}
	w.Flush()

	fmt.Fprintf(cli.stdout(), "\nTotal: %d requests\n", len(requests))
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// PermissionsRespondCmd resolves a pending request
type PermissionsRespondCmd struct {
	Behavior  string `arg:"" help:"allow or deny" enum:"allow,deny"`
	Input     string `help:"Replacement tool input as JSON (allow only)"`
	Message   string `help:"Reason shown to the agent" short:"m"`
	RequestID string `arg:"" help:"Permission request id"`
}

// Run executes the respond command
func (p *PermissionsRespondCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}

	params := map[string]any{
		"behavior":  p.Behavior,
		"message":   p.Message,
		"requestId": p.RequestID,
	}
	if p.Input != "" {
		if !json.Valid([]byte(p.Input)) {
			return fmt.Errorf("--input is not valid JSON")
		}
		params["updatedInput"] = json.RawMessage(p.Input)
	}

	if err := client.Do(context.Background(), "permission.respond", params, nil); err != nil {
		return fmt.Errorf("failed to respond: %w", err)
	}
	fmt.Fprintf(cli.stdout(), "Request %s: %s\n", p.RequestID, p.Behavior)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/logging"
)

// PermissionPromptCmd serves the MCP permission bridge on stdio. Agents launch it
// through --mcp-config together with the global --server flag.
type PermissionPromptCmd struct {
	Session string `help:"Session the bridge answers for" required:""`
}

// Run executes the permission-prompt command
func (p *PermissionPromptCmd) Run(cli *CLI) error {
	client, err := gateway.NewClient(cli.Server)
	if err != nil {
		return fmt.Errorf("invalid server address %q: %w", cli.Server, err)
	}

	logging.Logger.Info("Starting permission bridge", "session_id", p.Session, "server", cli.Server)
	if err := gateway.ServeBridge(p.Session, versionInfo.Version, client); err != nil {
		logging.Logger.Error("Permission bridge stopped", "session_id", p.Session, "error", err)
		return err
	}
	return nil
}

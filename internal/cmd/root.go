package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/renato0307/grove/internal/config"
	"github.com/renato0307/grove/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`
	Server      string           `help:"Daemon address used by client commands (host:port or URL)" env:"GROVE_SERVER"`

	Serve            ServeCmd            `cmd:"serve" help:"Run the grove daemon"`
	Projects         ProjectsCmd         `cmd:"projects" help:"Manage projects (add, list, branches, del)"`
	Sessions         SessionsCmd         `cmd:"sessions" help:"Manage sessions (add, list, view, send, stop, del)"`
	Folders          FoldersCmd          `cmd:"folders" help:"Manage session folders"`
	Permissions      PermissionsCmd      `cmd:"permissions" help:"List and answer pending permission requests"`
	Prefs            PrefsCmd            `cmd:"prefs" help:"Read and write stored preferences"`
	Events           EventsCmd           `cmd:"events" help:"Stream daemon events"`
	Settings         SettingsCmd         `cmd:"settings" help:"Show settings file location and available options"`
	Status           StatusCmd           `cmd:"status" help:"Show session status counts for status bars" hidden:""`
	PermissionPrompt PermissionPromptCmd `cmd:"permission-prompt" help:"Serve the MCP permission bridge for one session" hidden:""`

	// Internal fields (not flags)
	Container *Container       `kong:"-"`
	out       io.Writer        `kong:"-"`
	settings  *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Precedence: CLI flags > env vars > settings.json > defaults.
	// Only apply if flag is at default value and env var is not set
	if c.settings == nil {
		c.settings = &config.Settings{}
	}

	if c.MaxLogFiles == logging.DefaultMaxLogFiles {
		if _, hasEnv := os.LookupEnv(logging.EnvMaxLogFiles); !hasEnv {
			if c.settings.MaxLogFiles != nil {
				c.MaxLogFiles = *c.settings.MaxLogFiles
			}
		}
	}

	if !c.Debug {
		if _, hasEnv := os.LookupEnv(logging.EnvDebug); !hasEnv {
			if c.settings.Debug != nil && *c.settings.Debug {
				c.Debug = true
			}
		}
	}

	if c.Server == "" {
		c.Server = c.settings.ServerAddressOrDefault()
	}

	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Set AFTER initialization so the permission bridge spawned by agents
	// appends to the same log file
	if c.Debug || c.DebugFile != "" {
		os.Setenv(logging.EnvDebug, "1")
		if logFilePath != "" {
			os.Setenv(logging.EnvDebugFile, logFilePath)
		}
	}
	if c.MaxLogFiles != logging.DefaultMaxLogFiles {
		os.Setenv(logging.EnvMaxLogFiles, fmt.Sprintf("%d", c.MaxLogFiles))
	}

	// Container needs logging.Logger, so it is created last
	c.Container = NewContainer(c.settings, c.Server)
	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}

// stdout is where commands print their results
func (c *CLI) stdout() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}

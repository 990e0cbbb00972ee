package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/renato0307/grove/internal/adapters/agent"
	adapterfswatch "github.com/renato0307/grove/internal/adapters/fswatch"
	adaptergit "github.com/renato0307/grove/internal/adapters/git"
	adapterprocess "github.com/renato0307/grove/internal/adapters/process"
	adapterscript "github.com/renato0307/grove/internal/adapters/script"
	adapterstorage "github.com/renato0307/grove/internal/adapters/storage"
	"github.com/renato0307/grove/internal/config"
	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/gateway"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
	"github.com/renato0307/grove/internal/services"
)

// Container holds the dependencies shared by commands. Client commands only
// need the gateway client; serve builds a Daemon.
type Container struct {
	Settings *config.Settings

	client        *gateway.Client
	daemon        *Daemon
	serverAddress string
}

// NewContainer creates a Container for the given daemon address
func NewContainer(settings *config.Settings, serverAddress string) *Container {
	if settings == nil {
		settings = &config.Settings{}
	}
	return &Container{Settings: settings, serverAddress: serverAddress}
}

// Client returns the gateway client, creating it on first use
func (c *Container) Client() (*gateway.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	client, err := gateway.NewClient(c.serverAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", c.serverAddress, err)
	}
	c.client = client
	return client, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.daemon != nil {
		return c.daemon.Close()
	}
	return nil
}

// DaemonOptions override settings for one serve invocation
type DaemonOptions struct {
	Address            string
	AuthorizedKeysPath string
	SSHAddress         string
	WatchWorktrees     bool
}

// Daemon is the fully wired grove daemon
type Daemon struct {
	Dispatcher  *gateway.Dispatcher
	Folders     *services.FolderService
	HTTP        *gateway.HTTPServer
	Preferences *services.PreferenceService
	Projects    *services.ProjectService
	SSH         *gateway.SSHServer
	Sessions    *services.SessionService
	Streamer    *services.OutputStreamer
	Supervisor  *agent.Supervisor
	Watcher     *adapterfswatch.Watcher

	bus   *services.EventBus
	store *adapterstorage.SQLiteRepository
}

// NewDaemon wires adapters, services and gateways
func (c *Container) NewDaemon(opts DaemonOptions) (*Daemon, error) {
	settings := c.Settings

	store, err := adapterstorage.NewSQLiteRepository(config.GetDBPath())
	if err != nil {
		return nil, err
	}
	d := &Daemon{store: store}

	if opts.WatchWorktrees {
		watcher, err := adapterfswatch.NewWatcher()
		if err != nil {
			logging.Logger.Warn("Worktree watcher unavailable", "error", err)
		} else {
			d.Watcher = watcher
		}
	}

	bridge, err := os.Executable()
	if err != nil {
		bridge = "grove"
	}

	gitRepo := adaptergit.NewCLIRepository()
	protocol := agent.NewClaudeProtocol(agent.ClaudeConfig{
		Binary:        settings.AgentBinaryOrDefault(),
		BridgeCommand: bridge,
		ExtraArgs:     settings.AgentArgs,
		ServerURL:     "http://" + opts.Address,
		Transport:     settings.PermissionTransportOrDefault(),
	})
	d.Supervisor = agent.NewSupervisor(settings.StopGracePeriod())
	d.bus = services.NewEventBus(settings.EventBufferOrDefault())

	// A nil *Watcher must not end up inside the interface
	var watcher ports.WorktreeWatcher
	if d.Watcher != nil {
		watcher = d.Watcher
	}

	d.Sessions = services.NewSessionService(
		store,
		gitRepo,
		d.Supervisor,
		protocol,
		adapterscript.NewPTYRunner(),
		services.NewPermissionBroker(settings.PermissionTimeout()),
		d.bus,
		watcher,
		domain.PermissionMode(settings.PermissionModeOrDefault()),
	)
	d.Sessions.SetProcessInspector(adapterprocess.NewOSProcessInspector())
	d.Projects = services.NewProjectService(store, gitRepo, d.Sessions, d.bus)
	d.Folders = services.NewFolderService(store, d.bus)
	d.Preferences = services.NewPreferenceService(store)
	d.Streamer = services.NewOutputStreamer(d.bus, store, store)
	d.Dispatcher = gateway.NewDispatcher(d.Sessions, d.Projects, d.Folders, d.Preferences)
	d.HTTP = gateway.NewHTTPServer(opts.Address, d.Dispatcher, d.bus, d.Streamer, d.Sessions)

	if opts.SSHAddress != "" {
		sshDir := config.GetSSHDir()
		if err := gateway.EnsureHostKeyDir(sshDir); err != nil {
			d.Close()
			return nil, err
		}
		authorizedKeys := opts.AuthorizedKeysPath
		if authorizedKeys == "" {
			authorizedKeys = config.ExpandPath("~/.ssh/authorized_keys")
		}
		d.SSH, err = gateway.NewSSHServer(
			opts.SSHAddress,
			filepath.Join(sshDir, "id_ed25519"),
			authorizedKeys,
			d.Dispatcher,
			d.bus,
			d.Streamer,
		)
		if err != nil {
			d.Close()
			return nil, err
		}
	}

	c.daemon = d
	return d, nil
}

// Shutdown stops background work and every agent process in parallel
func (d *Daemon) Shutdown(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Sessions.Shutdown(gctx) })
	g.Go(func() error { return d.Supervisor.StopAll(gctx) })
	return g.Wait()
}

// Close closes the database. The watcher closes itself when Run returns.
func (d *Daemon) Close() error {
	if d.store == nil {
		return nil
	}
	err := d.store.Close()
	d.store = nil
	return err
}

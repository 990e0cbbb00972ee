package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/renato0307/grove/internal/config"
	"github.com/renato0307/grove/internal/logging"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd runs the daemon
type ServeCmd struct {
	Address        string `help:"HTTP gateway listen address (defaults to server_address or 127.0.0.1:7420)"`
	AuthorizedKeys string `help:"authorized_keys file for the SSH gateway (default ~/.ssh/authorized_keys)" type:"path"`
	NoWatch        bool   `help:"Do not watch worktree directories for external removal"`
	SSHAddress     string `help:"Enable the SSH gateway on this address (e.g. 127.0.0.1:23234)"`
}

// Run executes the serve command
func (s *ServeCmd) Run(cli *CLI) error {
	settings := cli.Container.Settings
	opts := DaemonOptions{
		Address:            s.Address,
		AuthorizedKeysPath: s.AuthorizedKeys,
		SSHAddress:         s.SSHAddress,
		WatchWorktrees:     !s.NoWatch && settings.WatchWorktreesEnabled(),
	}
	if opts.Address == "" {
		opts.Address = settings.ServerAddressOrDefault()
	}
	if opts.SSHAddress == "" {
		opts.SSHAddress = settings.SSHAddress
	}
	if opts.AuthorizedKeysPath == "" {
		opts.AuthorizedKeysPath = settings.AuthorizedKeysPath
	}

	logging.Logger.Info("Starting grove daemon",
		"address", opts.Address,
		"ssh_address", opts.SSHAddress,
		"db_path", config.GetDBPath(),
		"watch_worktrees", opts.WatchWorktrees)

	daemon, err := cli.Container.NewDaemon(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recovered, err := daemon.Sessions.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover sessions: %w", err)
	}
	if recovered > 0 {
		fmt.Fprintf(os.Stderr, "Recovered %d session(s) interrupted by the last shutdown\n", recovered)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return daemon.HTTP.Start(gctx) })
	if daemon.SSH != nil {
		g.Go(func() error { return daemon.SSH.Start(gctx) })
	}
	if daemon.Watcher != nil {
		g.Go(func() error { return daemon.Watcher.Run(gctx, daemon.Sessions.HandleWorktreeVanished) })
	}

	fmt.Fprintf(os.Stderr, "grove daemon listening on %s\n", opts.Address)
	serveErr := g.Wait()

	logging.Logger.Info("Shutting down grove daemon", "error", serveErr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := daemon.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("Daemon shutdown incomplete", "error", err)
	}

	return serveErr
}

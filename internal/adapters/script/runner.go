// Package script runs project build and run scripts under a pseudo-terminal.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// PTYRunner implements ports.ScriptRunner. Scripts see a terminal so tools
// that buffer or colour output differently behave as they do interactively.
type PTYRunner struct {
	shell string
}

// Verify interface compliance at compile time
var _ ports.ScriptRunner = (*PTYRunner)(nil)

// NewPTYRunner creates a runner that executes scripts with /bin/sh -c
func NewPTYRunner() *PTYRunner {
	return &PTYRunner{shell: "/bin/sh"}
}

// Run implements ScriptRunner.Run
func (r *PTYRunner) Run(ctx context.Context, dir, script string, onLine func(string)) (int, error) {
	if strings.TrimSpace(script) == "" {
		return 0, nil
	}

	logging.Logger.Info("Running script", "dir", dir, "script", script)
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.shell, "-c", script)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TERM=dumb")
	cmd.WaitDelay = 2 * time.Second
	// pty.Start makes the shell a session leader; cancel the whole group so
	// background children release the terminal
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 200})
	if err != nil {
		return -1, fmt.Errorf("failed to start script: %w", err)
	}
	defer ptmx.Close()

	scanner := bufio.NewScanner(ptmx)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if onLine != nil {
			onLine(line)
		}
	}
	// Linux reports EIO once the child side of the pty closes
	if err := scanner.Err(); err != nil && !isPTYClosed(err) {
		logging.Logger.Warn("Error reading script output", "error", err)
	}

	err = cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return -1, fmt.Errorf("failed to run script: %w", err)
		}
		code = exitErr.ExitCode()
	}

	logging.Logger.Info("Script finished", "dir", dir, "exit_code", code, "duration", time.Since(start))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return code, fmt.Errorf("script interrupted: %w", ctxErr)
	}
	return code, nil
}

func isPTYClosed(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr)
}

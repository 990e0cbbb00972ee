package process

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/renato0307/grove/internal/adapters/agent"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// agentCommandPattern matches the command line grove launches agents with
var agentCommandPattern = regexp.MustCompile(`--output-format\s+stream-json`)

// OSProcessInspector implements ProcessInspector using /proc and ps
type OSProcessInspector struct {
	procRoot string
}

// Compile-time interface verification
var _ ports.ProcessInspector = (*OSProcessInspector)(nil)

// NewOSProcessInspector creates a new OS process inspector
func NewOSProcessInspector() *OSProcessInspector {
	return &OSProcessInspector{procRoot: "/proc"}
}

// IsAgentProcess implements ProcessInspector.IsAgentProcess
func (i *OSProcessInspector) IsAgentProcess(pid int, sessionID string) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}

	// The environment names the session; it is only readable where /proc exists
	if found, ok := i.sessionFromEnviron(pid); ok {
		logging.Logger.Debug("Inspected process environment", "pid", pid, "session_id", found)
		return found == sessionID
	}

	commandLine, err := i.getProcessCommandLine(pid)
	if err != nil {
		logging.Logger.Debug("Failed to read process command line", "pid", pid, "error", err)
		return false
	}
	return agentCommandPattern.MatchString(commandLine)
}

// Terminate implements ProcessInspector.Terminate
func (i *OSProcessInspector) Terminate(pid int) error {
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("failed to get process group: %w", err)
	}
	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to signal process group %d: %w", pgid, err)
	}
	return nil
}

// sessionFromEnviron returns the session id recorded in the process
// environment. ok is false when the environment cannot be read.
func (i *OSProcessInspector) sessionFromEnviron(pid int) (string, bool) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/environ", i.procRoot, pid))
	if err != nil {
		return "", false
	}
	return extractSessionFromEnviron(data), true
}

func extractSessionFromEnviron(environ []byte) string {
	prefix := agent.EnvSessionID + "="
	for _, entry := range bytes.Split(environ, []byte{0}) {
		if value, found := strings.CutPrefix(string(entry), prefix); found {
			return value
		}
	}
	return ""
}

func (i *OSProcessInspector) getProcessCommandLine(pid int) (string, error) {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "command=")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to read process: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

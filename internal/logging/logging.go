package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/google/uuid"
)

// Environment variables shared with child processes so they log to the same file
const (
	EnvDebug       = "GROVE_DEBUG"
	EnvDebugFile   = "GROVE_DEBUG_FILE"
	EnvMaxLogFiles = "GROVE_MAX_LOG_FILES"
)

// DefaultMaxLogFiles is the rotation limit used when nothing else is configured
const DefaultMaxLogFiles = 1000

// Logger is the process-wide logger. It discards everything until Initialize
// enables debug output.
var Logger = discard()

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// options is the logging configuration after environment overrides
type options struct {
	debug       bool
	file        string
	inherited   bool
	maxLogFiles int
}

func resolveOptions(debug bool, debugFile string, maxLogFiles int) options {
	opts := options{debug: debug, file: debugFile, maxLogFiles: maxLogFiles}
	if os.Getenv(EnvDebug) == "1" {
		opts.debug = true
		opts.inherited = true
	}
	if opts.file == "" {
		opts.file = os.Getenv(EnvDebugFile)
	}
	if opts.maxLogFiles == DefaultMaxLogFiles {
		if n, err := strconv.Atoi(os.Getenv(EnvMaxLogFiles)); err == nil {
			opts.maxLogFiles = n
		}
	}
	return opts
}

// Initialize sets up Logger and returns the path of the log file in use. An
// empty path means output is discarded. A named debug file is appended to and
// never rotated; otherwise each run gets a fresh file in the OS log directory.
func Initialize(debug bool, debugFile string, maxLogFiles int) (string, error) {
	opts := resolveOptions(debug, debugFile, maxLogFiles)
	if !opts.debug && opts.file == "" {
		Logger = discard()
		return "", nil
	}

	path := opts.file
	if path == "" {
		dir, err := getLogDir()
		if err != nil {
			return "", fmt.Errorf("failed to get log directory: %w", err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
		if opts.maxLogFiles > 0 {
			if err := rotateLogs(dir, opts.maxLogFiles); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
			}
		}
		path = filepath.Join(dir, uuid.NewString()+".log")
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	Logger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With("pid", os.Getpid())

	// Bridge subprocesses inherit the settings and must keep stderr clean
	if !opts.inherited {
		Logger.Info("Debug logging initialized", "log_file", path)
		fmt.Fprintf(os.Stderr, "Debug mode enabled. Logs: %s\n", path)
	}
	return path, nil
}

// getLogDir returns the OS-specific log directory
func getLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "grove"), nil
	case "linux":
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			stateHome = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateHome, "grove"), nil
	default:
		return filepath.Join(homeDir, ".grove", "logs"), nil
	}
}

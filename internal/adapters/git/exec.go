package git

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/renato0307/grove/internal/domain"
)

// runGit runs a mutating git command in dir. Failures carry the args and combined output.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), &domain.GitOperationError{
			Args:   args,
			Err:    err,
			Output: string(output),
		}
	}
	return string(output), nil
}

// readGit runs a read-only git command and returns trimmed stdout
func readGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		gitErr := &domain.GitOperationError{Args: args, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			gitErr.Output = string(exitErr.Stderr)
		}
		return "", gitErr
	}
	return strings.TrimSpace(string(output)), nil
}

package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
)

// CommandRunner runs external commands. Implementations must be synchronous:
// wsnap never runs two git commands at once.
type CommandRunner interface {
	// Run executes the command in dir and discards its standard output.
	Run(ctx context.Context, dir string, name string, args ...string) error

	// Output executes the command in dir and returns its standard output.
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes commands with os/exec.
type RealCommandRunner struct {
	Verbose bool
	// Stdout receives the command's standard output for Run when Verbose
	// is set. Defaults to os.Stderr so it does not mix with program output.
	Stdout io.Writer
}

// Run implements CommandRunner.
func (r *RealCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // name is always "git"
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if r.Verbose {
		out := r.Stdout
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "+ %s %s\n", name, strings.Join(args, " "))
		cmd.Stdout = out
	}

	if err := cmd.Run(); err != nil {
		return commandError(args, dir, stderr.String(), err)
	}
	return nil
}

// Output implements CommandRunner.
func (r *RealCommandRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // name is always "git"
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), commandError(args, dir, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// commandError converts an exec failure into a GitError.
func commandError(args []string, dir, stderr string, err error) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	gitErr := wsnaperrors.NewGitError(args, exitCode, stderr, err)
	gitErr.Dir = dir
	return gitErr
}

// ExitCode returns the exit status carried by a GitError in err's chain,
// or -1 when there is none.
func ExitCode(err error) int {
	var gitErr *wsnaperrors.GitError
	if errors.As(err, &gitErr) {
		return gitErr.ExitCode
	}
	return -1
}

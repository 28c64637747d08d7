// Package errors provides typed errors for the wsnap project.
//
// This package defines domain-specific error types that provide structured
// error information for different subsystems (config, git, workspace,
// snapshot, nested repositories, daemon). All error types implement the
// standard error interface and support errors.Is() and errors.As() from the
// standard library and cockroachdb/errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// GitError represents a failed invocation of the git executable.
type GitError struct {
	Args      []string // Arguments passed to git, without the binary name
	Dir       string
	ExitCode  int // -1 when the process did not start or was killed
	Stderr    string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *GitError) Error() string {
	cmd := "git " + strings.Join(e.Args, " ")
	stderr := strings.TrimSpace(e.Stderr)
	switch {
	case e.ExitCode >= 0 && stderr != "":
		return fmt.Sprintf("%s failed (exit %d): %s", cmd, e.ExitCode, stderr)
	case e.ExitCode >= 0:
		return fmt.Sprintf("%s failed (exit %d)", cmd, e.ExitCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s failed: %v", cmd, e.Cause)
	default:
		return cmd + " failed"
	}
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *GitError) Unwrap() error {
	return e.Cause
}

// Subcommand returns the git subcommand (e.g. "commit"), skipping leading
// global options such as "-C <dir>".
func (e *GitError) Subcommand() string {
	for i := 0; i < len(e.Args); i++ {
		arg := e.Args[i]
		if arg == "-C" || arg == "-c" {
			i++
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return arg
	}
	return ""
}

// NewGitError creates a new GitError.
func NewGitError(args []string, exitCode int, stderr string, cause error) *GitError {
	e := &GitError{
		Args:     append([]string(nil), args...),
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
	e.Retryable = isRetryableGitFailure(e)
	return e
}

// WorkspaceError represents an unusable workspace path. These are the fatal
// startup errors: the agent logs them and exits without starting the loop.
type WorkspaceError struct {
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *WorkspaceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("workspace %s: %s", e.Path, e.Message)
	}
	return "workspace error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *WorkspaceError) Unwrap() error {
	return e.Cause
}

// NewWorkspaceError creates a new WorkspaceError.
func NewWorkspaceError(path, message string) *WorkspaceError {
	return &WorkspaceError{Path: path, Message: message}
}

// NewWorkspaceErrorWithCause creates a new WorkspaceError with an underlying cause.
func NewWorkspaceErrorWithCause(path, message string, cause error) *WorkspaceError {
	return &WorkspaceError{Path: path, Message: message, Cause: cause}
}

// SnapshotError represents a failure in one step of taking a snapshot or of
// the one-time repository setup.
type SnapshotError struct {
	Step    string // e.g., "stage", "commit", "push", "setup"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("snapshot step %s failed: %s", e.Step, e.Message)
	}
	return "snapshot error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *SnapshotError) Unwrap() error {
	return e.Cause
}

// NewSnapshotError creates a new SnapshotError.
func NewSnapshotError(step, message string) *SnapshotError {
	return &SnapshotError{Step: step, Message: message}
}

// NewSnapshotErrorWithCause creates a new SnapshotError with an underlying cause.
func NewSnapshotErrorWithCause(step, message string, cause error) *SnapshotError {
	return &SnapshotError{Step: step, Message: message, Cause: cause}
}

// NestedRepoError represents a failure to neutralize or restore a nested
// repository's metadata directory.
type NestedRepoError struct {
	Operation string // "neutralize", "restore", "recover"
	Path      string // The metadata directory involved
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *NestedRepoError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("nested repo %s of %s failed: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("nested repo %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *NestedRepoError) Unwrap() error {
	return e.Cause
}

// NewNestedRepoError creates a new NestedRepoError.
func NewNestedRepoError(operation, path, message string, cause error) *NestedRepoError {
	return &NestedRepoError{Operation: operation, Path: path, Message: message, Cause: cause}
}

// DaemonError represents errors related to the wsnap background agent
// process, such as a second agent on the same workspace.
type DaemonError struct {
	Operation string // e.g., "Acquire", "Release"
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *DaemonError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("daemon %s failed: %s", e.Operation, e.Message)
	}
	return "daemon error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *DaemonError) Unwrap() error {
	return e.Cause
}

// NewDaemonError creates a new DaemonError.
func NewDaemonError(operation, message string) *DaemonError {
	return &DaemonError{Operation: operation, Message: message}
}

// IsRetryable checks if an error or any error in its chain is retryable.
// Only git failures can currently be retryable (network errors during push).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return gitErr.Retryable
	}

	return false
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGitError checks if an error or any error in its chain is a GitError.
func IsGitError(err error) bool {
	var gitErr *GitError
	return errors.As(err, &gitErr)
}

// IsWorkspaceError checks if an error or any error in its chain is a WorkspaceError.
func IsWorkspaceError(err error) bool {
	var wsErr *WorkspaceError
	return errors.As(err, &wsErr)
}

// IsSnapshotError checks if an error or any error in its chain is a SnapshotError.
func IsSnapshotError(err error) bool {
	var snapErr *SnapshotError
	return errors.As(err, &snapErr)
}

// IsNestedRepoError checks if an error or any error in its chain is a NestedRepoError.
func IsNestedRepoError(err error) bool {
	var nestedErr *NestedRepoError
	return errors.As(err, &nestedErr)
}

// IsDaemonError checks if an error or any error in its chain is a DaemonError.
func IsDaemonError(err error) bool {
	var daemonErr *DaemonError
	return errors.As(err, &daemonErr)
}

// transientGitMarkers are stderr fragments git prints for network failures
// that usually go away on their own.
var transientGitMarkers = []string{
	"could not resolve host",
	"connection timed out",
	"connection reset",
	"operation timed out",
	"the remote end hung up unexpectedly",
	"early eof",
	"http 502",
	"http 503",
	"http 504",
}

// isRetryableGitFailure returns true for git failures worth retrying.
// Only network-facing subcommands qualify.
func isRetryableGitFailure(e *GitError) bool {
	switch e.Subcommand() {
	case "push", "fetch", "pull":
	default:
		return false
	}
	stderr := strings.ToLower(e.Stderr)
	for _, marker := range transientGitMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use wsnaperrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause

	// CombineErrors returns err, or, if err is nil, otherErr.
	// If both are non-nil, otherErr is attached as a secondary error.
	CombineErrors = errors.CombineErrors
)

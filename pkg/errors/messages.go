package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable guidance.
// It examines the error chain and provides context-appropriate help text.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var configErr *ConfigError
	if As(err, &configErr) {
		return formatConfigError(configErr)
	}

	var wsErr *WorkspaceError
	if As(err, &wsErr) {
		return formatWorkspaceError(wsErr)
	}

	var nestedErr *NestedRepoError
	if As(err, &nestedErr) {
		return formatNestedRepoError(nestedErr)
	}

	var gitErr *GitError
	if As(err, &gitErr) {
		return formatGitError(gitErr)
	}

	var daemonErr *DaemonError
	if As(err, &daemonErr) {
		return formatDaemonError(daemonErr)
	}

	// Default: return the error message as-is
	return err.Error()
}

// formatConfigError formats a ConfigError with actionable guidance.
func formatConfigError(err *ConfigError) string {
	var b strings.Builder

	if err.Field != "" {
		fmt.Fprintf(&b, "Configuration error in '%s': %s\n", err.Field, err.Message)
	} else {
		fmt.Fprintf(&b, "Configuration error: %s\n", err.Message)
	}

	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check your config file: ~/.config/wsnap/config.toml\n")
	b.WriteString("  • Run 'wsnap config init' to write a fresh default config\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatWorkspaceError formats a WorkspaceError with actionable guidance.
func formatWorkspaceError(err *WorkspaceError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cannot use workspace: %s\n", err.Error())
	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Pass the workspace root directory as the only argument\n")
	b.WriteString("  • Make sure it contains the configured marker directory (workspace.marker)\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatNestedRepoError formats a NestedRepoError with recovery guidance.
func formatNestedRepoError(err *NestedRepoError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", err.Error())
	b.WriteString("\nA nested repository may still be disabled. To fix this:\n")
	b.WriteString("  • Run 'wsnap recover <workspace>' to restore disabled metadata directories\n")
	if err.Path != "" {
		fmt.Fprintf(&b, "  • Or inspect %s by hand\n", err.Path)
	}

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatGitError formats a GitError, adding guidance for common failures.
func formatGitError(err *GitError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", err.Error())

	switch err.Subcommand() {
	case "commit":
		b.WriteString("\nCommit failed. To fix this:\n")
		b.WriteString("  • Check that user.name and user.email are set for the workspace\n")
		b.WriteString("  • Look for a stale .git/index.lock left by another git process\n")
	case "push":
		b.WriteString("\nPush failed. The snapshot is still committed locally.\n")
		b.WriteString("  • Check network access and credentials for remote.origin.url\n")
		b.WriteString("  • Add the remote to snapshot.push_exclude to stop pushing\n")
	}

	if err.Retryable {
		b.WriteString("\nThis error may be temporary. The operation will be retried automatically.\n")
	}

	return b.String()
}

// formatDaemonError formats a DaemonError with actionable guidance.
func formatDaemonError(err *DaemonError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", err.Error())
	b.WriteString("\nOnly one wsnap agent may watch a workspace at a time.\n")
	b.WriteString("  • Stop the other agent, or remove a stale .git/wsnap.pid\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

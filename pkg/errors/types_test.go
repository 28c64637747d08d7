package errors

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

func TestGitError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GitError
		expected string
	}{
		{
			name:     "exit code with stderr",
			err:      &GitError{Args: []string{"commit", "-m", "x"}, ExitCode: 1, Stderr: "fatal: boom\n"},
			expected: "git commit -m x failed (exit 1): fatal: boom",
		},
		{
			name:     "exit code without stderr",
			err:      &GitError{Args: []string{"add", "."}, ExitCode: 128},
			expected: "git add . failed (exit 128)",
		},
		{
			name:     "process did not start",
			err:      &GitError{Args: []string{"init"}, ExitCode: -1, Cause: errors.New("executable file not found")},
			expected: "git init failed: executable file not found",
		},
		{
			name:     "nothing known",
			err:      &GitError{Args: []string{"push"}, ExitCode: -1},
			expected: "git push failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGitError_Subcommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"commit", "-m", "x"}, "commit"},
		{[]string{"-C", "/tmp/ws", "push"}, "push"},
		{[]string{"-c", "core.quotepath=off", "--no-pager", "add", "."}, "add"},
		{nil, ""},
	}

	for _, tt := range tests {
		e := &GitError{Args: tt.args}
		if got := e.Subcommand(); got != tt.want {
			t.Errorf("Subcommand(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestNewGitError_Retryable(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
		want   bool
	}{
		{"push network failure", []string{"push"}, "fatal: Could not resolve host: example.com", true},
		{"push hangup", []string{"push"}, "fatal: the remote end hung up unexpectedly", true},
		{"push rejected", []string{"push"}, "! [rejected] main -> main (non-fast-forward)", false},
		{"commit never retryable", []string{"commit", "-m", "x"}, "Connection timed out", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewGitError(tt.args, 128, tt.stderr, nil)
			if e.Retryable != tt.want {
				t.Errorf("Retryable = %v, want %v", e.Retryable, tt.want)
			}
			if IsRetryable(errors.Wrap(e, "wrapped")) != tt.want {
				t.Errorf("IsRetryable through wrap = %v, want %v", !tt.want, tt.want)
			}
		})
	}
}

func TestTypedErrors_ErrorsAs(t *testing.T) {
	cause := errors.New("underlying cause")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"config", NewConfigErrorWithCause("snapshot.cooldown", "must be positive", cause), IsConfigError},
		{"git", NewGitError([]string{"add", "."}, 1, "", cause), IsGitError},
		{"workspace", NewWorkspaceErrorWithCause("/ws", "does not exist", cause), IsWorkspaceError},
		{"snapshot", NewSnapshotErrorWithCause("commit", "commit failed", cause), IsSnapshotError},
		{"nested", NewNestedRepoError("restore", "/ws/src/a/.git", "rename failed", cause), IsNestedRepoError},
		{"daemon", &DaemonError{Operation: "Acquire", Message: "busy", Cause: cause}, IsDaemonError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := errors.Wrap(tt.err, "operation failed")
			if !tt.check(wrapped) {
				t.Errorf("type check should find %T in wrapped chain", tt.err)
			}
			if !errors.Is(wrapped, cause) {
				t.Error("errors.Is() should find the cause through Unwrap chain")
			}
		})
	}
}

func TestTypedErrors_Messages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{NewConfigError("", "bad"), "config error: bad"},
		{NewConfigError("prompt.mode", "unknown"), "config error in prompt.mode: unknown"},
		{NewWorkspaceError("/ws", "is not a workspace"), "workspace /ws: is not a workspace"},
		{NewWorkspaceError("", "no path"), "workspace error: no path"},
		{NewSnapshotError("stage", "add failed"), "snapshot step stage failed: add failed"},
		{NewNestedRepoError("recover", "", "scan failed", nil), "nested repo recover failed: scan failed"},
		{NewDaemonError("Acquire", "held by pid 42"), "daemon Acquire failed: held by pid 42"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, want %q", got, tt.expected)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	msg := FormatUserError(errors.Wrap(NewNestedRepoError("restore", "/ws/src/a/.x", "rename failed", nil), "snapshot"))
	if !strings.Contains(msg, "wsnap recover") {
		t.Errorf("nested repo guidance should mention recover command, got %q", msg)
	}

	msg = FormatUserError(NewGitError([]string{"push"}, 128, "fatal: Could not resolve host: x", nil))
	if !strings.Contains(msg, "still committed locally") || !strings.Contains(msg, "retried automatically") {
		t.Errorf("push guidance missing, got %q", msg)
	}

	plain := errors.New("plain")
	if got := FormatUserError(plain); got != "plain" {
		t.Errorf("FormatUserError(plain) = %q, want %q", got, "plain")
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, func() error {
		calls++
		return NewGitError([]string{"push"}, 1, "! [rejected]", nil)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_RetriesTransientPush(t *testing.T) {
	calls := 0
	retries := 0
	cfg := RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		OnRetry:    func(int, error, time.Duration) { retries++ },
	}
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return NewGitError([]string{"push"}, 128, "fatal: unable to access: Could not resolve host: x", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Errorf("calls = %d retries = %d, want 3 and 2", calls, retries)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: 4 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{10, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	cfg.Jitter = 0.4
	for i := 0; i < 20; i++ {
		got := cfg.Backoff(1)
		if got < 1600*time.Millisecond || got > 2400*time.Millisecond {
			t.Fatalf("Backoff(1) with jitter = %v, want within [1.6s, 2.4s]", got)
		}
	}
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Hour,
		MaxDelay:   time.Hour,
		OnRetry:    func(int, error, time.Duration) { cancel() },
	}
	err := Retry(ctx, cfg, func() error {
		calls++
		return NewGitError([]string{"push"}, 128, "fatal: Connection timed out", nil)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

package git

import (
	"context"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// MinimumVersion is the oldest git wsnap is willing to drive.
var MinimumVersion = semver.MustParse("2.0.0")

// Client runs git against a single working tree.
type Client struct {
	Dir    string
	runner CommandRunner
}

// NewClient creates a Client that executes the real git binary in dir.
func NewClient(dir string, verbose bool) *Client {
	return &Client{
		Dir:    dir,
		runner: &RealCommandRunner{Verbose: verbose},
	}
}

// NewClientWithRunner creates a Client with a custom CommandRunner (for testing).
func NewClientWithRunner(dir string, runner CommandRunner) *Client {
	return &Client{Dir: dir, runner: runner}
}

// Init runs git init. Re-running it on an existing repository is harmless.
func (c *Client) Init(ctx context.Context) error {
	return c.runner.Run(ctx, c.Dir, "git", "init")
}

// ConfigGet reads a config value as git resolves it (local, then global,
// then system). An unset key is not an error and yields "".
func (c *Client) ConfigGet(ctx context.Context, key string) (string, error) {
	output, err := c.runner.Output(ctx, c.Dir, "git", "config", key)
	if err != nil {
		// git config exits 1 when the key is not set
		if ExitCode(err) == 1 {
			return "", nil
		}
		return "", errors.Wrapf(err, "failed to read git config %s", key)
	}
	return strings.TrimSpace(string(output)), nil
}

// ConfigSetLocal writes a value to the repository-local config.
func (c *Client) ConfigSetLocal(ctx context.Context, key, value string) error {
	if err := c.runner.Run(ctx, c.Dir, "git", "config", "--local", key, value); err != nil {
		return errors.Wrapf(err, "failed to set git config %s", key)
	}
	return nil
}

// Add stages the given pathspecs.
func (c *Client) Add(ctx context.Context, pathspecs ...string) error {
	args := append([]string{"add"}, pathspecs...)
	return c.runner.Run(ctx, c.Dir, "git", args...)
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges(ctx context.Context) (bool, error) {
	err := c.runner.Run(ctx, c.Dir, "git", "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if ExitCode(err) == 1 {
		return true, nil
	}
	return false, errors.Wrap(err, "failed to inspect staged changes")
}

// Commit records the index with message. author, when non-empty, is passed
// as --author and must have the form "Name <email>".
func (c *Client) Commit(ctx context.Context, message, author string) error {
	args := []string{"commit", "-m", message}
	if author != "" {
		args = append(args, "--author", author)
	}
	return c.runner.Run(ctx, c.Dir, "git", args...)
}

// RemoteURL returns remote.origin.url, or "" when no origin is configured.
func (c *Client) RemoteURL(ctx context.Context) (string, error) {
	return c.ConfigGet(ctx, "remote.origin.url")
}

// Push pushes the current branch to its upstream.
func (c *Client) Push(ctx context.Context) error {
	return c.runner.Run(ctx, c.Dir, "git", "push")
}

var versionRegex = regexp.MustCompile(`git version (\d+)\.(\d+)(?:\.(\d+))?`)

// Version returns the version of the git binary.
func (c *Client) Version(ctx context.Context) (*semver.Version, error) {
	output, err := c.runner.Output(ctx, c.Dir, "git", "--version")
	if err != nil {
		return nil, errors.Wrap(err, "failed to run git --version")
	}
	return ParseVersion(string(output))
}

// ParseVersion extracts the semantic version from `git --version` output.
// Vendor suffixes such as ".windows.1" or "(Apple Git-137)" are dropped.
func ParseVersion(output string) (*semver.Version, error) {
	m := versionRegex.FindStringSubmatch(output)
	if m == nil {
		return nil, errors.Newf("unrecognized git version output %q", strings.TrimSpace(output))
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return semver.NewVersion(m[1] + "." + m[2] + "." + patch)
}

// CheckVersion fails when the git binary is older than MinimumVersion.
func (c *Client) CheckVersion(ctx context.Context) error {
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	if v.LessThan(MinimumVersion) {
		return errors.Newf("git %s is too old, need at least %s", v, MinimumVersion)
	}
	return nil
}

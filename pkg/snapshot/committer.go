// Package snapshot records workspace snapshots as commits and performs the
// one-time repository setup.
package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
	"thoreinstein.com/wsnap/pkg/git"
	"thoreinstein.com/wsnap/pkg/nested"
)

// Commit messages and reasons.
const (
	MessagePrefix   = "Snapshot taken: "
	NoReason        = "No reasons provided"
	InitReason      = "First snapshot of initialization"
	AutostartReason = "Autostart snapshot"
)

// Message returns the commit message for a snapshot taken for reason.
func Message(reason string) string {
	if strings.TrimSpace(reason) == "" {
		reason = NoReason
	}
	return MessagePrefix + reason
}

// Options configure a Committer.
type Options struct {
	Push        bool     // Push after committing when origin is set
	PushExclude []string // Remotes never pushed to
	Retry       wsnaperrors.RetryConfig
}

// Committer stages the workspace with nested repositories neutralized,
// commits it and optionally pushes.
type Committer struct {
	git   *git.Client
	guard *nested.Guard
	opts  Options
}

// NewCommitter creates a Committer.
func NewCommitter(client *git.Client, guard *nested.Guard, opts Options) *Committer {
	return &Committer{git: client, guard: guard, opts: opts}
}

// Take records a snapshot. author, when set, overrides the configured
// identity for this commit only. An empty diff is not an error. Push
// failures are logged and never returned.
func (c *Committer) Take(ctx context.Context, reason, author string) error {
	log := clog.FromContext(ctx).With("snapshot", uuid.NewString())
	ctx = clog.WithLogger(ctx, log)

	err := c.guard.WithNeutralized(ctx, func(ctx context.Context) error {
		return c.git.Add(ctx, ".")
	})
	if err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("stage", "failed to stage workspace", err)
	}

	staged, err := c.git.HasStagedChanges(ctx)
	if err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("commit", "failed to inspect the index", err)
	}
	if !staged {
		log.Infof("Nothing changed since the last snapshot (%s)", reason)
		return nil
	}

	msg := Message(reason)
	if err := c.git.Commit(ctx, msg, author); err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("commit", "failed to commit snapshot", err)
	}
	log.Infof("Committed %q", msg)

	c.push(ctx)
	return nil
}

// push pushes to origin unless pushing is disabled, there is no origin or
// origin is excluded.
func (c *Committer) push(ctx context.Context) {
	log := clog.FromContext(ctx)
	if !c.opts.Push {
		return
	}

	remote, err := c.git.RemoteURL(ctx)
	if err != nil {
		log.Warnf("Could not read the remote, skipping push: %v", err)
		return
	}
	if remote == "" {
		log.Debugf("No remote configured, skipping push")
		return
	}
	if git.ParseRemoteURL(remote).MatchesAny(c.opts.PushExclude) {
		log.Debugf("Remote %s is excluded from pushes", remote)
		return
	}

	cfg := c.opts.Retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warnf("Push attempt %d failed, retrying in %s: %v", attempt, delay, err)
	}
	if err := wsnaperrors.Retry(ctx, cfg, func() error { return c.git.Push(ctx) }); err != nil {
		log.Warnf("Push failed, the snapshot is still committed locally: %v", err)
		return
	}
	log.Infof("Pushed snapshot to %s", remote)
}

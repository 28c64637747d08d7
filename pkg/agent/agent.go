// Package agent runs the watch loop: it rate-limits snapshot offers, runs
// the snapshot dialog and hands confirmed snapshots to the committer.
package agent

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
	"thoreinstein.com/wsnap/pkg/identity"
	"thoreinstein.com/wsnap/pkg/prompt"
	"thoreinstein.com/wsnap/pkg/watcher"
)

// State is carried from one batch to the next.
type State struct {
	NextAskTime     time.Time // No dialog is offered until after this time
	PendingReason   string    // Reason typed in a canceled dialog
	PendingIdentity string    // Identity typed in a canceled dialog
}

// Committer takes snapshots. *snapshot.Committer satisfies it.
type Committer interface {
	Take(ctx context.Context, reason, author string) error
}

// GitConfig reads and writes the workspace's git configuration.
// *git.Client satisfies it.
type GitConfig interface {
	identity.ConfigReader
	ConfigSetLocal(ctx context.Context, key, value string) error
}

// Source delivers batches of changes. *watcher.Batcher satisfies it.
type Source interface {
	Batches() <-chan watcher.Batch
	Errors() <-chan error
}

// Options configure an Agent.
type Options struct {
	Cooldown time.Duration    // Minimum time between two dialogs
	Now      func() time.Time // Clock; defaults to time.Now
}

// Agent offers snapshots as the workspace changes.
type Agent struct {
	dialog    *Dialog
	git       GitConfig
	committer Committer
	cooldown  time.Duration
	now       func() time.Time
}

// New creates an Agent.
func New(p prompt.Prompter, git GitConfig, committer Committer, opts Options) *Agent {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Agent{
		dialog:    NewDialog(p, git),
		git:       git,
		committer: committer,
		cooldown:  opts.Cooldown,
		now:       now,
	}
}

// InitialState is the state at startup: the first dialog is offered no
// sooner than one cool-down from now.
func (a *Agent) InitialState() State {
	return State{NextAskTime: a.now().Add(a.cooldown)}
}

// Run consumes batches until ctx is done or the source closes. It returns
// the first error that ends the loop; cancellation is not an error.
func (a *Agent) Run(ctx context.Context, src Source) error {
	log := clog.FromContext(ctx)
	state := a.InitialState()
	errs := src.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warnf("Watcher error: %v", err)

		case batch, ok := <-src.Batches():
			if !ok {
				log.Infof("Watcher stopped")
				return nil
			}
			next, err := a.HandleBatch(ctx, state, batch)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			state = next
		}
	}
}

// HandleBatch handles one batch of changes and returns the new state.
func (a *Agent) HandleBatch(ctx context.Context, state State, batch watcher.Batch) (State, error) {
	log := clog.FromContext(ctx)

	now := a.now()
	if !now.After(state.NextAskTime) {
		log.Infof("Too early to ask for a snapshot (remains %s)", state.NextAskTime.Sub(now).Round(time.Second))
		return state, nil
	}
	log.Debugf("%d paths changed, offering a snapshot", batch.Len())

	res, err := a.dialog.Run(ctx, state.PendingReason, state.PendingIdentity)
	state.NextAskTime = a.now().Add(a.cooldown)
	if err != nil {
		return state, wsnaperrors.Wrap(err, "snapshot dialog failed")
	}

	if res.State == StateCanceled {
		log.Infof("User canceled the snapshot dialog")
		state.PendingReason = res.Reason
		state.PendingIdentity = res.IdentityText
		return state, nil
	}

	log.Debugf("Parsed name: %s, parsed email: %s", res.Identity.Name, res.Identity.Email)
	if err := a.git.ConfigSetLocal(ctx, "user.name", res.Identity.Name); err != nil {
		return state, err
	}
	if err := a.git.ConfigSetLocal(ctx, "user.email", res.Identity.Email); err != nil {
		return state, err
	}
	if err := a.committer.Take(ctx, res.Reason, ""); err != nil {
		return state, err
	}

	state.PendingReason = ""
	state.PendingIdentity = ""
	return state, nil
}

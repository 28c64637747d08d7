package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"thoreinstein.com/wsnap/pkg/agent"
	"thoreinstein.com/wsnap/pkg/bootstrap"
	"thoreinstein.com/wsnap/pkg/daemon"
	"thoreinstein.com/wsnap/pkg/nested"
	"thoreinstein.com/wsnap/pkg/prompt"
	"thoreinstein.com/wsnap/pkg/snapshot"
	"thoreinstein.com/wsnap/pkg/watcher"
)

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = bootstrap.InitLogger(ctx, cmd.ErrOrStderr(), verbose)

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	ws, err := resolveWorkspace(arg, workspaceMarker())
	if err != nil {
		// A bad workspace is reported but is not a failure of the command.
		clog.ErrorContextf(ctx, "Not starting: %v", err)
		return nil
	}

	return startAgent(ctx, ws)
}

// startAgent runs the agent on the resolved workspace until ctx is done.
func startAgent(ctx context.Context, ws string) error {
	log := clog.FromContext(ctx).With("workspace", ws)
	ctx = clog.WithLogger(ctx, log)

	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}
	svc := newServices(ws, cfg)

	if err := svc.git.CheckVersion(ctx); err != nil {
		return err
	}

	pid := daemon.ForWorkspace(ws)
	if err := pid.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Release(); err != nil {
			clog.WarnContextf(ctx, "Could not remove PID file: %v", err)
		}
	}()

	// Orphaned renames from a crash are restored before anything is staged.
	restored, err := svc.guard.Recover(ctx)
	if err != nil {
		return err
	}
	for _, path := range restored {
		log.Infof("Restored nested repository %s", path)
	}

	if err := svc.setup.Ensure(ctx); err != nil {
		return err
	}
	if err := svc.committer.Take(ctx, snapshot.AutostartReason, ""); err != nil {
		return err
	}

	ignore := watcher.NewIgnore(ws, append([]string{nested.DisabledName}, cfg.Watch.IgnoreDirs...)...)
	fsw, err := watcher.NewTreeWatcher(ignore)
	if err != nil {
		return err
	}
	if err := fsw.WatchRecursive(ws); err != nil {
		_ = fsw.Close()
		return err
	}
	batcher := watcher.NewBatcher(fsw, cfg.Watch.Debounce, cfg.Watch.MaxWait)
	defer batcher.Close()

	p, err := prompt.New(cfg.Prompt.Mode)
	if err != nil {
		return err
	}

	log.Infof("Watching for changes")
	a := agent.New(p, svc.git, svc.committer, agent.Options{Cooldown: cfg.Snapshot.Cooldown})
	return a.Run(ctx, batcher)
}

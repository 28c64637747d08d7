package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"thoreinstein.com/wsnap/pkg/config"
	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
	"thoreinstein.com/wsnap/pkg/git"
	"thoreinstein.com/wsnap/pkg/identity"
	"thoreinstein.com/wsnap/pkg/nested"
	"thoreinstein.com/wsnap/pkg/snapshot"
)

// resolveWorkspace turns the command-line argument into the absolute,
// symlink-free workspace path. The directory must exist and contain marker.
func resolveWorkspace(arg, marker string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return "", wsnaperrors.NewWorkspaceError("", "no workspace path given")
	}

	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", wsnaperrors.NewWorkspaceErrorWithCause(arg, "could not expand path", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", wsnaperrors.NewWorkspaceErrorWithCause(arg, "could not resolve path", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", wsnaperrors.NewWorkspaceErrorWithCause(abs, "workspace does not exist", err)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", wsnaperrors.NewWorkspaceError(resolved, "workspace is not a directory")
	}
	if info, err := os.Stat(filepath.Join(resolved, marker)); err != nil || !info.IsDir() {
		return "", wsnaperrors.NewWorkspaceError(resolved, "workspace has no "+marker+" directory")
	}
	return resolved, nil
}

// workspaceMarker returns the configured marker directory.
func workspaceMarker() string {
	if appConfig != nil && appConfig.Workspace.Marker != "" {
		return appConfig.Workspace.Marker
	}
	return config.Default().Workspace.Marker
}

// services are the collaborators shared by the commands that touch a
// workspace.
type services struct {
	workspace string
	git       *git.Client
	guard     *nested.Guard
	committer *snapshot.Committer
	setup     *snapshot.Setup
}

func newServices(ws string, cfg *config.Config) *services {
	client := git.NewClient(ws, verbose)
	guard := nested.NewGuard(filepath.Join(ws, cfg.Workspace.SourceDir), nested.NewScanner())

	committer := snapshot.NewCommitter(client, guard, snapshot.Options{
		Push:        cfg.Snapshot.Push,
		PushExclude: cfg.Snapshot.PushExclude,
		Retry:       wsnaperrors.PushRetryConfig(),
	})

	setup := snapshot.NewSetup(ws, client, committer, snapshot.SetupOptions{
		SourceDir:     cfg.Workspace.SourceDir,
		IgnoreEntries: cfg.Snapshot.IgnoreEntries,
		Fallback: identity.Identity{
			Name:  cfg.Snapshot.FallbackName,
			Email: cfg.Snapshot.FallbackEmail,
		},
	})

	return &services{
		workspace: ws,
		git:       client,
		guard:     guard,
		committer: committer,
		setup:     setup,
	}
}

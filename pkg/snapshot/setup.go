package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
	"thoreinstein.com/wsnap/pkg/git"
	"thoreinstein.com/wsnap/pkg/identity"
)

// SentinelName is the file inside the metadata directory that marks the
// one-time setup as complete.
var SentinelName = uuid.MustParse("3134559c-8a45-4d8a-a037-71835eedc5d8").String()

// Commit messages used during setup.
const (
	CreateIgnoreMessage = "Create `.gitignore` for snapshots"
	RepairIgnoreMessage = "Remove src directory from `.gitignore`"
)

// SetupOptions configure a Setup.
type SetupOptions struct {
	SourceDir     string            // Tracked source tree, relative to the workspace
	IgnoreEntries []string          // Content of a fresh .gitignore
	Fallback      identity.Identity // Identity used when none is configured
}

// Setup performs the one-time initialization of a workspace repository.
type Setup struct {
	workspace string
	git       *git.Client
	committer *Committer
	opts      SetupOptions
}

// NewSetup creates a Setup for the workspace at dir.
func NewSetup(dir string, client *git.Client, committer *Committer, opts SetupOptions) *Setup {
	return &Setup{workspace: dir, git: client, committer: committer, opts: opts}
}

// SentinelPath returns the location of the setup sentinel.
func (s *Setup) SentinelPath() string {
	return filepath.Join(git.MetadataDir(s.workspace), SentinelName)
}

// Done reports whether setup has already completed.
func (s *Setup) Done() bool {
	_, err := os.Stat(s.SentinelPath())
	return err == nil
}

// Ensure runs the setup unless the sentinel exists. Every step tolerates
// being re-run after an interruption. The sentinel is written last.
func (s *Setup) Ensure(ctx context.Context) error {
	log := clog.FromContext(ctx)
	if s.Done() {
		log.Debugf("Workspace already set up for snapshots")
		return nil
	}

	if !git.IsGitRepo(s.workspace) {
		log.Infof("This workspace is not a Git repository, so we will set that up")
		if err := s.git.Init(ctx); err != nil {
			return wsnaperrors.NewSnapshotErrorWithCause("setup", "git init failed", err)
		}
	}

	id, ok := identity.Resolve(ctx, s.git)
	if !ok {
		id = s.opts.Fallback
	}
	if err := s.git.ConfigSetLocal(ctx, "user.name", id.Name); err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to set committer name", err)
	}
	if err := s.git.ConfigSetLocal(ctx, "user.email", id.Email); err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to set committer email", err)
	}

	if err := s.ensureIgnoreList(ctx); err != nil {
		return err
	}

	if err := s.committer.Take(ctx, InitReason, ""); err != nil {
		return err
	}

	if err := os.WriteFile(s.SentinelPath(), nil, 0o644); err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to write the setup sentinel", err)
	}
	return nil
}

// ensureIgnoreList creates .gitignore, or makes the source tree trackable
// in an existing one, and commits the result when it differs from HEAD.
func (s *Setup) ensureIgnoreList(ctx context.Context) error {
	log := clog.FromContext(ctx)
	path := filepath.Join(s.workspace, ".gitignore")

	message := CreateIgnoreMessage
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := os.WriteFile(path, []byte(IgnoreContent(s.opts.IgnoreEntries)), 0o644); err != nil {
			return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to write .gitignore", err)
		}
	case err != nil:
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to read .gitignore", err)
	default:
		log.Debugf(".gitignore found, this workspace might be a meta-repository")
		message = RepairIgnoreMessage
		content, changed := CommentOutSourceDir(string(data), s.opts.SourceDir)
		if changed {
			log.Infof("%s directory is ignored, commenting it out to make it trackable", s.opts.SourceDir)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to rewrite .gitignore", err)
			}
		}
	}

	if err := s.git.Add(ctx, ".gitignore"); err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to stage .gitignore", err)
	}
	staged, err := s.git.HasStagedChanges(ctx)
	if err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to inspect the index", err)
	}
	if !staged {
		return nil
	}
	if err := s.git.Commit(ctx, message, ""); err != nil {
		return wsnaperrors.NewSnapshotErrorWithCause("setup", "failed to commit .gitignore", err)
	}
	return nil
}

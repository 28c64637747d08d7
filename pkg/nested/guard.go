// Package nested neutralizes nested repositories while the outer workspace
// is staged, so their working files are recorded as plain content.
//
// A nested repository is neutralized by writing a total-ignore file and a
// record into its metadata directory and renaming that directory to
// DisabledName. The protocol is cooperative: it assumes a single writer per
// workspace and does not rely on rename atomicity.
package nested

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
)

// DisabledName is the name a metadata directory carries while neutralized.
var DisabledName = "." + uuid.MustParse("8a448599-fc3f-4bb8-be33-86b136748c80").String()

const (
	// IgnoreMarker is the total-ignore file written into a disabled directory.
	IgnoreMarker = ".gitignore"

	// IgnoreBackup holds a .gitignore the nested repository already had in
	// its metadata directory while the total-ignore file replaces it.
	IgnoreBackup = ".gitignore.wsnap-saved"

	// RecordFile holds the Record of a disabled directory.
	RecordFile = "neutralized.yaml"
)

// Neutralized is one entry of the neutralization record.
type Neutralized struct {
	Parent   string // Working tree of the nested repository
	Original string // Full path of the metadata directory
	Disabled string // Full path while neutralized
}

// Guard neutralizes and restores nested repositories under a source tree.
type Guard struct {
	root    string
	scanner *Scanner
	now     func() time.Time
}

// NewGuard creates a guard for the source tree at root.
func NewGuard(root string, scanner *Scanner) *Guard {
	if scanner == nil {
		scanner = NewScanner()
	}
	return &Guard{root: root, scanner: scanner, now: time.Now}
}

// Root returns the source tree the guard operates on.
func (g *Guard) Root() string {
	return g.root
}

// WithNeutralized neutralizes every nested repository, runs op, and restores
// them. Restoration always runs: after op fails, after op panics and after a
// partial neutralization. Restore failures are combined with op's error.
func (g *Guard) WithNeutralized(ctx context.Context, op func(context.Context) error) (err error) {
	log := clog.FromContext(ctx)

	found, err := g.scanner.FindMetadata(g.root)
	if err != nil {
		return wsnaperrors.NewNestedRepoError("neutralize", g.root, "scan failed", err)
	}

	var done []Neutralized
	defer func() {
		if rerr := g.restoreAll(ctx, done); rerr != nil {
			err = wsnaperrors.CombineErrors(err, rerr)
		}
	}()

	for _, path := range found {
		n, nerr := g.neutralize(path)
		if nerr != nil {
			return nerr
		}
		done = append(done, n)
	}
	if len(done) > 0 {
		log.Debugf("neutralized %d nested repositories", len(done))
	}

	return op(ctx)
}

func (g *Guard) neutralize(path string) (Neutralized, error) {
	n := Neutralized{
		Parent:   filepath.Dir(path),
		Original: path,
		Disabled: filepath.Join(filepath.Dir(path), DisabledName),
	}

	if _, err := os.Lstat(n.Disabled); err == nil {
		return n, wsnaperrors.NewNestedRepoError("neutralize", path,
			"a disabled directory already exists next to it; run 'wsnap recover'", nil)
	}

	if _, err := os.Lstat(filepath.Join(path, IgnoreBackup)); err == nil {
		return n, wsnaperrors.NewNestedRepoError("neutralize", path,
			IgnoreBackup+" already exists; run 'wsnap recover' or remove it", nil)
	}
	if _, err := os.Lstat(filepath.Join(path, IgnoreMarker)); err == nil {
		if err := os.Rename(filepath.Join(path, IgnoreMarker), filepath.Join(path, IgnoreBackup)); err != nil {
			return n, wsnaperrors.NewNestedRepoError("neutralize", path, "failed to save existing "+IgnoreMarker, err)
		}
	}

	if err := os.WriteFile(filepath.Join(path, IgnoreMarker), []byte("*\n"), 0o644); err != nil {
		removeMarkers(path)
		return n, wsnaperrors.NewNestedRepoError("neutralize", path, "failed to write ignore marker", err)
	}
	rec := Record{Original: filepath.Base(path), NeutralizedAt: g.now().UTC(), PID: os.Getpid()}
	if err := writeRecord(path, rec); err != nil {
		removeMarkers(path)
		return n, wsnaperrors.NewNestedRepoError("neutralize", path, "failed to write record", err)
	}
	if err := os.Rename(path, n.Disabled); err != nil {
		removeMarkers(path)
		return n, wsnaperrors.NewNestedRepoError("neutralize", path, "failed to rename", err)
	}
	return n, nil
}

// restoreAll restores entries in reverse order and keeps going past
// failures.
func (g *Guard) restoreAll(ctx context.Context, entries []Neutralized) error {
	var errs error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := restore(entries[i].Disabled, entries[i].Original); err != nil {
			clog.ErrorContextf(ctx, "failed to restore %s: %v", entries[i].Original, err)
			errs = wsnaperrors.CombineErrors(errs, err)
		}
	}
	return errs
}

// Recover restores every disabled directory left behind by an interrupted
// snapshot and returns the restored paths. A directory whose original name
// is taken is left in place and reported. Running it again is a no-op.
func (g *Guard) Recover(ctx context.Context) ([]string, error) {
	found, err := g.scanner.FindDisabled(g.root)
	if err != nil {
		return nil, wsnaperrors.NewNestedRepoError("recover", g.root, "scan failed", err)
	}

	var restored []string
	var errs error
	for _, disabled := range found {
		rec, rerr := readRecord(disabled)
		if rerr != nil {
			clog.WarnContextf(ctx, "ignoring unreadable record in %s: %v", disabled, rerr)
		}
		original := filepath.Join(filepath.Dir(disabled), rec.Original)

		clog.WarnContextf(ctx, "restoring interrupted neutralization at %s", original)
		if err := restore(disabled, original); err != nil {
			errs = wsnaperrors.CombineErrors(errs, err)
			continue
		}
		restored = append(restored, original)
	}
	return restored, errs
}

// restore removes the markers and renames disabled back to original,
// refusing to overwrite an existing original.
func restore(disabled, original string) error {
	if _, err := os.Lstat(original); err == nil {
		return wsnaperrors.NewNestedRepoError("restore", original,
			"original name is taken; leaving "+filepath.Base(disabled)+" in place", nil)
	}
	if err := removeMarkers(disabled); err != nil {
		return wsnaperrors.NewNestedRepoError("restore", original, "failed to remove markers", err)
	}
	if err := os.Rename(disabled, original); err != nil {
		return wsnaperrors.NewNestedRepoError("restore", original, "failed to rename", err)
	}
	return nil
}

// removeMarkers deletes the total-ignore file and the record, and puts back
// a saved .gitignore.
func removeMarkers(dir string) error {
	var errs error
	for _, name := range []string{IgnoreMarker, RecordFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			errs = wsnaperrors.CombineErrors(errs, err)
		}
	}
	if errs != nil {
		return errs
	}

	saved := filepath.Join(dir, IgnoreBackup)
	if _, err := os.Lstat(saved); err == nil {
		if err := os.Rename(saved, filepath.Join(dir, IgnoreMarker)); err != nil {
			return err
		}
	}
	return nil
}

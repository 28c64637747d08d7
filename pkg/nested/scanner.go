package nested

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
)

// MetadataName is the name of a repository metadata directory.
const MetadataName = ".git"

// Scanner finds nested repository metadata directories under a tree.
type Scanner struct {
	// Exclusions are directory names that are never descended into.
	Exclusions map[string]bool
}

// NewScanner creates a scanner with the given extra exclusions.
func NewScanner(exclude ...string) *Scanner {
	s := &Scanner{Exclusions: make(map[string]bool, len(exclude))}
	for _, name := range exclude {
		if name != "" {
			s.Exclusions[name] = true
		}
	}
	return s
}

// FindMetadata returns every directory named .git beneath root, without
// descending into them. Directories already carrying the disabled name are
// skipped. A missing root yields no results.
func (s *Scanner) FindMetadata(root string) ([]string, error) {
	return s.find(root, MetadataName)
}

// FindDisabled returns every directory carrying the disabled name beneath
// root. Each one is a leftover from an interrupted snapshot.
func (s *Scanner) FindDisabled(root string) ([]string, error) {
	return s.find(root, DisabledName)
}

func (s *Scanner) find(root, want string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to stat %s", root)
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Ignore permission errors below the root
		}
		if !d.IsDir() || path == root {
			return nil
		}

		name := d.Name()
		switch {
		case name == want:
			found = append(found, path)
			return filepath.SkipDir
		case name == MetadataName || name == DisabledName:
			return filepath.SkipDir
		case s.Exclusions[name]:
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", root)
	}

	sort.Strings(found)
	return found, nil
}

package git

import (
	"bytes"
	"os"
	"path/filepath"
)

// MetadataDir returns the metadata directory of the working tree at dir.
func MetadataDir(dir string) string {
	return filepath.Join(dir, ".git")
}

// IsGitRepo reports whether dir is the root of a working tree: either
// dir/.git is a directory holding HEAD, or it is a "gitdir:" file as
// written for worktrees and submodules. An empty .git directory left by
// an interrupted init does not count.
func IsGitRepo(dir string) bool {
	meta := MetadataDir(dir)
	info, err := os.Stat(meta)
	if err != nil {
		return false
	}

	if info.IsDir() {
		_, err := os.Stat(filepath.Join(meta, "HEAD"))
		return err == nil
	}

	data, err := os.ReadFile(meta)
	if err != nil {
		return false
	}
	return bytes.HasPrefix(data, []byte("gitdir:"))
}

package watcher

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultIgnoreDirs are directory names never watched: version control
// metadata, build outputs and tool caches.
var DefaultIgnoreDirs = []string{
	"build", "install", "log",
	".git", ".hg", ".svn",
	"__pycache__", ".mypy_cache", ".pytest_cache", ".hypothesis", ".tox", ".venv",
	".idea", "node_modules",
}

// defaultIgnoreFiles match editor and interpreter droppings.
var defaultIgnoreFiles = []*regexp.Regexp{
	regexp.MustCompile(`\.py[cod]$`),
	regexp.MustCompile(`\.___jb_\w+___$`),
	regexp.MustCompile(`\.sw.$`),
	regexp.MustCompile(`~$`),
}

// Ignore decides which paths below a root are out of scope.
type Ignore struct {
	root string
	dirs map[string]bool
}

// NewIgnore creates an Ignore for root that excludes the default directory
// names plus extra.
func NewIgnore(root string, extra ...string) *Ignore {
	ig := &Ignore{root: filepath.Clean(root), dirs: make(map[string]bool)}
	for _, name := range DefaultIgnoreDirs {
		ig.dirs[name] = true
	}
	for _, name := range extra {
		if name = strings.Trim(name, `/\`); name != "" {
			ig.dirs[name] = true
		}
	}
	return ig
}

// Match reports whether path is excluded: any of its components below the
// root is an excluded directory name, or its base name is a scratch file.
func (ig *Ignore) Match(path string) bool {
	rel, err := filepath.Rel(ig.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts {
		if ig.dirs[part] {
			return true
		}
	}

	base := parts[len(parts)-1]
	for _, re := range defaultIgnoreFiles {
		if re.MatchString(base) {
			return true
		}
	}
	return false
}

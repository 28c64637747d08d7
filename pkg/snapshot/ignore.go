package snapshot

import (
	"strings"
)

// IgnoreContent renders a fresh ignore-list, one entry per line.
func IgnoreContent(entries []string) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	return b.String()
}

// CommentOutSourceDir prefixes "# " to every line that ignores sourceDir
// itself ("/src/", "src/" or "src"). Other lines and line endings are kept
// as they are. It reports whether anything changed.
func CommentOutSourceDir(content, sourceDir string) (string, bool) {
	sourceDir = strings.Trim(sourceDir, "/")
	match := map[string]bool{
		"/" + sourceDir + "/": true,
		sourceDir + "/":       true,
		sourceDir:             true,
	}

	var b strings.Builder
	changed := false
	for _, line := range strings.SplitAfter(content, "\n") {
		if match[strings.TrimSpace(line)] {
			b.WriteString("# ")
			changed = true
		}
		b.WriteString(line)
	}
	return b.String(), changed
}

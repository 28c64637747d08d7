package git

import (
	"regexp"
	"strings"
)

// RemoteURL represents a parsed git remote URL.
type RemoteURL struct {
	Original string // Original input
	Protocol string // "ssh", "https", "http", "git", "file" or "" when unknown
	Host     string
	Path     string // owner/repo path without leading slash or .git suffix
}

// URL parsing patterns for git remote URLs
var (
	// SCP-like SSH format: git@host:owner/repo.git
	scpURLRegex = regexp.MustCompile(`^(?:[a-zA-Z0-9_.-]+@)?([a-zA-Z0-9_.-]+):([^/][^:]*?)(?:\.git)?/?$`)

	// URL format: scheme://[user@]host[:port]/owner/repo[.git]
	schemeURLRegex = regexp.MustCompile(`^(ssh|https?|git)://(?:[^@/]+@)?([a-zA-Z0-9_.-]+)(?::\d+)?/(.+?)(?:\.git)?/?$`)
)

// ParseRemoteURL parses the common git remote URL formats. Unrecognized
// inputs (local paths, exotic transports) are returned with only Original
// and a best-effort Path set; parsing never fails.
func ParseRemoteURL(input string) *RemoteURL {
	input = strings.TrimSpace(input)

	if matches := schemeURLRegex.FindStringSubmatch(input); len(matches) == 4 {
		return &RemoteURL{
			Original: input,
			Protocol: matches[1],
			Host:     strings.ToLower(matches[2]),
			Path:     matches[3],
		}
	}

	if strings.HasPrefix(input, "file://") {
		return &RemoteURL{
			Original: input,
			Protocol: "file",
			Path:     strings.TrimSuffix(strings.TrimPrefix(input, "file://"), ".git"),
		}
	}

	// Windows drive letters ("C:\repo") look like scp syntax; skip them.
	if matches := scpURLRegex.FindStringSubmatch(input); len(matches) == 3 && len(matches[1]) > 1 {
		return &RemoteURL{
			Original: input,
			Protocol: "ssh",
			Host:     strings.ToLower(matches[1]),
			Path:     matches[2],
		}
	}

	return &RemoteURL{Original: input, Path: strings.TrimSuffix(input, ".git")}
}

// MatchesAny reports whether the remote matches one of the exclusion
// patterns. A pattern matches when it equals the parsed owner/repo path
// (case-insensitive) or, failing that, is a substring of the original URL.
func (r *RemoteURL) MatchesAny(patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.EqualFold(strings.Trim(pattern, "/"), r.Path) {
			return true
		}
		if strings.Contains(r.Original, pattern) {
			return true
		}
	}
	return false
}

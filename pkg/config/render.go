package config

import (
	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// MarshalTOML renders the configuration in the layout Load reads back.
// Durations are written in their string form ("10m0s") so the file stays
// hand-editable.
func (c *Config) MarshalTOML() ([]byte, error) {
	doc := map[string]any{
		"workspace": map[string]any{
			"source_dir": c.Workspace.SourceDir,
			"marker":     c.Workspace.Marker,
		},
		"snapshot": map[string]any{
			"cooldown":       c.Snapshot.Cooldown.String(),
			"push":           c.Snapshot.Push,
			"push_exclude":   nonNil(c.Snapshot.PushExclude),
			"fallback_name":  c.Snapshot.FallbackName,
			"fallback_email": c.Snapshot.FallbackEmail,
			"ignore_entries": nonNil(c.Snapshot.IgnoreEntries),
		},
		"watch": map[string]any{
			"debounce":    c.Watch.Debounce.String(),
			"max_wait":    c.Watch.MaxWait.String(),
			"ignore_dirs": nonNil(c.Watch.IgnoreDirs),
		},
		"prompt": map[string]any{
			"mode": c.Prompt.Mode,
		},
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode config")
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
)

// Config represents the application configuration.
// The workspace path itself is a command-line argument, not configuration.
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
}

// WorkspaceConfig describes the expected workspace layout.
type WorkspaceConfig struct {
	SourceDir string `mapstructure:"source_dir"` // Tracked source tree, relative to the workspace root
	Marker    string `mapstructure:"marker"`     // Directory that must exist for the path to count as a workspace
}

// SnapshotConfig holds snapshot and bootstrap behavior.
type SnapshotConfig struct {
	Cooldown      time.Duration `mapstructure:"cooldown"`       // Minimum time between snapshot prompts
	Push          bool          `mapstructure:"push"`           // Push after committing when a remote exists
	PushExclude   []string      `mapstructure:"push_exclude"`   // Remotes that are never pushed to
	FallbackName  string        `mapstructure:"fallback_name"`  // Committer name when none is configured
	FallbackEmail string        `mapstructure:"fallback_email"` // Committer email when none is configured
	IgnoreEntries []string      `mapstructure:"ignore_entries"` // Lines written to a fresh .gitignore
}

// WatchConfig holds filesystem watch configuration.
type WatchConfig struct {
	Debounce   time.Duration `mapstructure:"debounce"`    // Quiet period that closes a batch of changes
	MaxWait    time.Duration `mapstructure:"max_wait"`    // Upper bound on how long a batch stays open
	IgnoreDirs []string      `mapstructure:"ignore_dirs"` // Extra directory names never watched
}

// PromptConfig selects the prompt collaborator.
type PromptConfig struct {
	Mode string `mapstructure:"mode"` // "auto", "terminal" or "dialog"
}

// ValidPromptModes is the list of supported prompt modes.
var ValidPromptModes = []string{"auto", "terminal", "dialog"}

// DefaultIgnoreEntries are written to .gitignore on first bootstrap.
var DefaultIgnoreEntries = []string{".vscode/", "build/", "install/", "log/", "__pycache__/"}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// Default returns the built-in configuration without consulting viper.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			SourceDir: "src",
			Marker:    filepath.Join("src", "universe"),
		},
		Snapshot: SnapshotConfig{
			Cooldown:      10 * time.Minute,
			Push:          true,
			PushExclude:   []string{"autowarefoundation/autoware"},
			FallbackName:  "wsnap",
			FallbackEmail: "<>",
			IgnoreEntries: append([]string(nil), DefaultIgnoreEntries...),
		},
		Watch: WatchConfig{
			Debounce:   1600 * time.Millisecond,
			MaxWait:    10 * time.Second,
			IgnoreDirs: []string{},
		},
		Prompt: PromptConfig{Mode: "auto"},
	}
}

// ValidatePromptMode validates that a prompt mode is supported.
func ValidatePromptMode(mode string) error {
	for _, valid := range ValidPromptModes {
		if mode == valid {
			return nil
		}
	}
	return wsnaperrors.NewConfigError("prompt.mode", "invalid prompt mode "+quote(mode)+": must be one of: auto, terminal, dialog")
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	if c.Workspace.SourceDir == "" || filepath.IsAbs(c.Workspace.SourceDir) {
		return wsnaperrors.NewConfigError("workspace.source_dir", "must be a non-empty relative path")
	}
	if c.Workspace.Marker == "" || filepath.IsAbs(c.Workspace.Marker) {
		return wsnaperrors.NewConfigError("workspace.marker", "must be a non-empty relative path")
	}
	if c.Snapshot.Cooldown < 0 {
		return wsnaperrors.NewConfigError("snapshot.cooldown", "must not be negative")
	}
	if c.Snapshot.FallbackName == "" {
		return wsnaperrors.NewConfigError("snapshot.fallback_name", "must not be empty")
	}
	if c.Watch.Debounce <= 0 {
		return wsnaperrors.NewConfigError("watch.debounce", "must be positive")
	}
	if c.Watch.MaxWait < c.Watch.Debounce {
		return wsnaperrors.NewConfigError("watch.max_wait", "must be at least watch.debounce")
	}
	return ValidatePromptMode(c.Prompt.Mode)
}

// setDefaults sets default configuration values
func setDefaults() {
	d := Default()

	// Workspace defaults
	viper.SetDefault("workspace.source_dir", d.Workspace.SourceDir)
	viper.SetDefault("workspace.marker", d.Workspace.Marker)

	// Snapshot defaults
	viper.SetDefault("snapshot.cooldown", d.Snapshot.Cooldown)
	viper.SetDefault("snapshot.push", d.Snapshot.Push)
	viper.SetDefault("snapshot.push_exclude", d.Snapshot.PushExclude)
	viper.SetDefault("snapshot.fallback_name", d.Snapshot.FallbackName)
	viper.SetDefault("snapshot.fallback_email", d.Snapshot.FallbackEmail)
	viper.SetDefault("snapshot.ignore_entries", d.Snapshot.IgnoreEntries)

	// Watch defaults
	viper.SetDefault("watch.debounce", d.Watch.Debounce)
	viper.SetDefault("watch.max_wait", d.Watch.MaxWait)
	viper.SetDefault("watch.ignore_dirs", d.Watch.IgnoreDirs)

	// Prompt defaults
	viper.SetDefault("prompt.mode", d.Prompt.Mode)
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, path[1:]), nil
}

func quote(s string) string {
	return "\"" + s + "\""
}

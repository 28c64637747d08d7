// Package bootstrap prepares configuration and logging before any command
// runs.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"thoreinstein.com/wsnap/pkg/config"
)

// WorkspaceConfigName is the per-workspace override file.
const WorkspaceConfigName = ".wsnap.toml"

var (
	lastLoadedConfig  string
	lastLoadedVerbose bool
	loadedConfig      *config.Config
)

// PreParseGlobalFlags manually scans os.Args for --config and --verbose flags
// before the main Cobra execution. This is a bootstrap step for configuration.
// It stops scanning as soon as it hits a non-flag argument or the "--" marker.
func PreParseGlobalFlags(args []string) (string, bool) {
	var cfgFile string
	var verbose bool

	for i := 1; i < len(args); i++ {
		arg := args[i]

		// Stop parsing at the standard end-of-options marker
		if arg == "--" {
			break
		}

		// Stop parsing at the first non-flag argument (the workspace or subcommand)
		if !strings.HasPrefix(arg, "-") {
			break
		}

		switch {
		case arg == "--config" || arg == "-C":
			if i+1 < len(args) {
				cfgFile = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			cfgFile = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-C="):
			cfgFile = strings.TrimPrefix(arg, "-C=")
		case strings.HasPrefix(arg, "-C") && len(arg) > 2:
			cfgFile = arg[2:]
		case arg == "--verbose" || arg == "-v":
			verbose = true
		}
	}

	return cfgFile, verbose
}

// DefaultConfigDir returns $HOME/.config/wsnap.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".config", "wsnap"), nil
}

// InitConfig reads in config file and ENV variables if set.
// It returns the loaded config and the actual verbosity state.
func InitConfig(cfgFile string, verbose bool) (*config.Config, bool, error) {
	// Skip if already loaded with same parameters (unless in test)
	if os.Getenv("GO_TEST") != "true" && loadedConfig != nil && cfgFile == lastLoadedConfig && verbose == lastLoadedVerbose {
		return loadedConfig, verbose, nil
	}

	// Reset Viper state to avoid carrying over stale settings from previous loads.
	viper.Reset()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, verbose, err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("WSNAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, verbose, errors.Wrap(err, "failed to read config file")
		}
	} else if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, verbose, err
	}

	// Update state
	lastLoadedConfig = cfgFile
	lastLoadedVerbose = verbose
	loadedConfig = cfg

	return cfg, verbose, nil
}

// LoadWorkspaceConfig merges the workspace's .wsnap.toml, if present, over
// the loaded configuration and returns the result.
func LoadWorkspaceConfig(dir string, verbose bool) (*config.Config, error) {
	path := filepath.Join(dir, WorkspaceConfigName)
	if _, err := os.Stat(path); err == nil {
		local := viper.New()
		local.SetConfigFile(path)

		if err := local.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "could not read workspace config %s", path)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Using workspace config: %s\n", path)
		}
		if err := viper.MergeConfigMap(local.AllSettings()); err != nil {
			return nil, errors.Wrap(err, "could not merge workspace config")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loadedConfig = cfg
	return cfg, nil
}

// InitLogger installs a text logger writing to w, at debug level when
// verbose, as the slog default and in the returned context.
func InitLogger(ctx context.Context, w io.Writer, verbose bool) context.Context {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return clog.WithLogger(ctx, clog.New(handler))
}

// Reset clears the cached configuration state.
func Reset() {
	lastLoadedConfig = ""
	lastLoadedVerbose = false
	loadedConfig = nil
}

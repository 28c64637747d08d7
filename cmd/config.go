package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"thoreinstein.com/wsnap/pkg/bootstrap"
	"thoreinstein.com/wsnap/pkg/config"
	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
)

var configInitForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wsnap configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the built-in defaults to $HOME/.config/wsnap/config.toml, or to
the file named by --config.

An existing file is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig == nil {
			if err := initConfig(); err != nil {
				return err
			}
		}
		data, err := appConfig.MarshalTOML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		dir, err := bootstrap.DefaultConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return wsnaperrors.Newf("%s already exists (use --force to overwrite)", path)
	}

	data, err := config.Default().MarshalTOML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wsnaperrors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wsnaperrors.Wrapf(err, "failed to write %s", path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

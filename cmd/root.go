package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thoreinstein.com/wsnap/pkg/bootstrap"
	"thoreinstein.com/wsnap/pkg/config"
	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
)

var cfgFile string
var verbose bool
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wsnap <workspace>",
	Short: "wsnap - automatic snapshots of a workspace",
	Long: `wsnap watches a workspace and keeps an automatic git history of it.

When files change it offers to take a snapshot, asking for a reason and,
when none is configured, the committer's identity. Git repositories nested
inside the workspace are captured as plain files.

The workspace must contain src/universe (see workspace.marker).`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAgent,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Pre-parse global flags so configuration errors surface before any
	// command runs.
	cfgFile, verbose = bootstrap.PreParseGlobalFlags(os.Args)

	if err := initConfig(); err != nil {
		// config init must still be able to replace a missing or broken file.
		if c, _, ferr := rootCmd.Find(os.Args[1:]); ferr != nil || c != configInitCmd {
			fail(err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, wsnaperrors.FormatUserError(err))
	os.Exit(1)
}

func init() {
	cobra.OnInitialize(func() {
		_ = initConfig()
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/wsnap/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error
	appConfig, verbose, err = bootstrap.InitConfig(cfgFile, verbose)
	return err
}

// loadConfig returns the configuration for the workspace at dir, with its
// .wsnap.toml merged in.
func loadConfig(dir string) (*config.Config, error) {
	if appConfig == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}
	return bootstrap.LoadWorkspaceConfig(dir, verbose)
}

// resetConfig clears the cached configuration.
// This is primarily used in tests to ensure each test starts with a fresh config.
func resetConfig() {
	appConfig = nil
	bootstrap.Reset()
	viper.Reset()
}

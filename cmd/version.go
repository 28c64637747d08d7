package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X thoreinstein.com/wsnap/cmd.Version=...".
var Version = ""

// GetVersion returns the build version, falling back to the module
// version recorded by the Go toolchain.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wsnap %s\n", GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

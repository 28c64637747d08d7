package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"thoreinstein.com/wsnap/pkg/bootstrap"
)

// recoverCmd represents the recover command
var recoverCmd = &cobra.Command{
	Use:   "recover <workspace>",
	Short: "Restore nested repositories left hidden by a crash",
	Long: `Scan the workspace source tree for nested git repositories whose
metadata directory was hidden during a snapshot that never finished, and
restore them.

The agent runs this scan on every start; the command is useful when the
agent is not running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecoverCommand(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecoverCommand(cmd *cobra.Command, arg string) error {
	ctx := bootstrap.InitLogger(cmd.Context(), cmd.ErrOrStderr(), verbose)

	ws, err := resolveWorkspace(arg, workspaceMarker())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}

	restored, err := newServices(ws, cfg).guard.Recover(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(restored) == 0 {
		fmt.Fprintln(out, "Nothing to recover")
		return nil
	}
	for _, path := range restored {
		fmt.Fprintf(out, "Restored %s\n", path)
	}
	return nil
}

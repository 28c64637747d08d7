package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"thoreinstein.com/wsnap/pkg/git"
	"thoreinstein.com/wsnap/pkg/snapshot"
)

var logLimit int

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log <workspace>",
	Short: "List snapshots of a workspace",
	Long: `List the snapshot commits of a workspace, newest first.

Only commits made by wsnap are shown; setup commits and commits made by
hand are skipped.

Examples:
  wsnap log ~/autoware
  wsnap log ~/autoware --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogCommand(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "maximum number of snapshots to show (0 for all)")
}

func runLogCommand(cmd *cobra.Command, arg string) error {
	ws, err := resolveWorkspace(arg, workspaceMarker())
	if err != nil {
		return err
	}

	history, err := git.OpenHistory(ws)
	if err != nil {
		return err
	}
	snaps, err := history.Snapshots(snapshot.MessagePrefix, logLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots yet")
		return nil
	}
	for _, c := range snaps {
		reason := strings.TrimPrefix(c.Subject, snapshot.MessagePrefix)
		fmt.Fprintf(out, "%s  %s  %-30s  %s\n", c.Hash[:8], c.When.Format("2006-01-02 15:04"), c.Author, reason)
	}
	return nil
}

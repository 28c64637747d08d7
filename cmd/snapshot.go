package cmd

import (
	"github.com/spf13/cobra"

	"thoreinstein.com/wsnap/pkg/bootstrap"
	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
	"thoreinstein.com/wsnap/pkg/identity"
)

var (
	snapshotReason string
	snapshotAuthor string
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot <workspace>",
	Short: "Take one snapshot now",
	Long: `Take a single snapshot of the workspace without starting the agent.

The workspace is set up first if needed. Nested git repositories are
captured as plain files, exactly as the agent does.

Examples:
  wsnap snapshot ~/autoware --reason "before rebase"
  wsnap snapshot ~/autoware --author "Ada Lovelace <ada@example.com>"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshotCommand(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotReason, "reason", "r", "", "reason recorded in the commit message")
	snapshotCmd.Flags().StringVarP(&snapshotAuthor, "author", "a", "", "commit author as \"Name <email>\"")
}

func runSnapshotCommand(cmd *cobra.Command, arg string) error {
	ctx := bootstrap.InitLogger(cmd.Context(), cmd.ErrOrStderr(), verbose)

	author := ""
	if snapshotAuthor != "" {
		id, ok := identity.Parse(snapshotAuthor)
		if !ok {
			return wsnaperrors.Newf("invalid author %q: expected \"Name <email>\"", snapshotAuthor)
		}
		author = id.String()
	}

	ws, err := resolveWorkspace(arg, workspaceMarker())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ws)
	if err != nil {
		return err
	}
	svc := newServices(ws, cfg)

	if err := svc.git.CheckVersion(ctx); err != nil {
		return err
	}
	if _, err := svc.guard.Recover(ctx); err != nil {
		return err
	}
	if err := svc.setup.Ensure(ctx); err != nil {
		return err
	}
	return svc.committer.Take(ctx, snapshotReason, author)
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scoutmcp/scoutmcp/internal/workspace"
)

// newIndexCmd creates the index command.
func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Synchronize a workspace index with the filesystem",
		Long: `Synchronize the index for a workspace. Builds the collection when it
does not exist yet; otherwise reindexes changed files, indexes new
ones, and removes chunks of deleted files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			root, err := resolveRoot(arg)
			if err != nil {
				return err
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			outcome, err := a.syncer.Sync(cmd.Context(), root, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workspace:  %s\n", root)
			fmt.Fprintf(out, "Collection: %s\n", workspace.Identify(root).String())

			if outcome.Skipped {
				fmt.Fprintf(out, "Skipped: synced recently, next pass allowed at %s (use --force to override)\n",
					a.syncer.NextAllowed(root).Format("15:04:05"))
				return nil
			}

			rep := outcome.Report
			if outcome.FullBuild {
				fmt.Fprintln(out, "Built collection from scratch.")
			}
			fmt.Fprintf(out, "Files:  %d added, %d reindexed, %d deleted\n",
				rep.FilesAdded, rep.FilesReindexed, rep.FilesDeleted)
			fmt.Fprintf(out, "Chunks: %d added, %d removed\n", rep.ChunksAdded, rep.ChunksRemoved)
			if len(rep.Failures) > 0 {
				fmt.Fprintf(out, "Failures: %d file(s) could not be processed:\n", len(rep.Failures))
				for _, f := range rep.Failures {
					fmt.Fprintf(out, "  %s: %v\n", f.Path, f.Err)
				}
			}
			fmt.Fprintf(out, "Done in %s.\n", outcome.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Bypass the sync rate limit")
	return cmd
}

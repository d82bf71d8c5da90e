package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	mcpserver "github.com/scoutmcp/scoutmcp/internal/mcp"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var limit int
	var path string
	var noSync bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a workspace from the command line",
		Long: `Run a semantic search against a workspace index. The index is
synchronized first unless --no-sync is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query must not be empty")
			}

			root, err := resolveRoot(path)
			if err != nil {
				return err
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if !noSync {
				if _, err := a.syncer.Sync(ctx, root, false); err != nil {
					return err
				}
			}

			col, err := a.syncer.Collection(ctx, root)
			if err != nil {
				return err
			}

			vector, err := a.embedder.Embed(ctx, query)
			if err != nil {
				return err
			}

			if limit <= 0 {
				limit = a.cfg.Store.TopK
			}
			results, err := col.Query(ctx, vector, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				infos, _ := a.store.List(ctx)
				fmt.Fprintln(out, mcpserver.FormatNoResults(query, infos))
				return nil
			}
			fmt.Fprintln(out, mcpserver.FormatSearchResults(query, results))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Workspace root (default: WORKSPACE_PATH or current directory)")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Search the index as-is without syncing first")
	return cmd
}

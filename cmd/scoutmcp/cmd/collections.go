package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
)

// newCollectionsCmd creates the collections command group.
func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Inspect and manage indexed collections",
	}
	cmd.AddCommand(newCollectionsListCmd())
	cmd.AddCommand(newCollectionsInfoCmd())
	cmd.AddCommand(newCollectionsDeleteCmd())
	return cmd
}

func newCollectionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			infos, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No collections indexed.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHUNKS\tROOT")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%d\t%s\n", info.Name, info.ChunkCount, info.Root)
			}
			return w.Flush()
		},
	}
}

func newCollectionsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show details for one collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			col, err := a.store.Get(ctx, args[0])
			if err != nil {
				return err
			}

			count, err := col.Count(ctx)
			if err != nil {
				return err
			}
			metas, err := col.Metadatas(ctx)
			if err != nil {
				return err
			}

			files := make(map[string]struct{})
			for _, meta := range metas {
				files[meta.FilePath] = struct{}{}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:   %s\n", col.Name())
			fmt.Fprintf(out, "Root:   %s\n", col.Root())
			fmt.Fprintf(out, "Files:  %d\n", len(files))
			fmt.Fprintf(out, "Chunks: %d\n", count)
			return nil
		},
	}
}

func newCollectionsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and all of its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete collection %q and all of its chunks? [y/N]: ", name)
				var answer string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if answer != "y" && answer != "Y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Delete(cmd.Context(), name); err != nil {
				if scouterrors.GetCode(err) == scouterrors.ErrCodeCollectionNotFound {
					return fmt.Errorf("collection %q does not exist", name)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %q.\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/index"
	"github.com/scoutmcp/scoutmcp/internal/scanner"
	"github.com/scoutmcp/scoutmcp/internal/workspace"
)

// newInvestigateCmd creates the investigate command. It answers "why
// is my file not showing up in search" without mutating anything: no
// chunks are written and the sync gate is not touched.
func newInvestigateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "investigate [path]",
		Short: "Diagnose a workspace's index state",
		Long: `Inspect a workspace without modifying its index: show the collection
identity, scan the filesystem, and report what a sync pass would do.`,
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

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			identity := workspace.Identify(root)

			fmt.Fprintf(out, "Workspace:   %s\n", root)
			fmt.Fprintf(out, "Collection:  %s\n", identity.String())
			fmt.Fprintf(out, "Fingerprint: %s\n", identity.Fingerprint)
			fmt.Fprintf(out, "Max size:    %s\n\n", humanize.IBytes(uint64(a.cfg.Indexing.MaxFileSize)))

			sc := scanner.New(root, rulesFromConfig(a.cfg), a.logger)
			files, err := sc.ScanAll(ctx)
			if err != nil {
				return err
			}
			summary := sc.Summary()

			var totalSize, estimatedChunks int64
			type extStat struct {
				count int
				size  int64
			}
			byExt := make(map[string]extStat)
			for _, f := range files {
				totalSize += f.Size
				// Rough estimate, roughly one chunk per 200 bytes.
				if est := f.Size / 200; est > 0 {
					estimatedChunks += est
				} else {
					estimatedChunks++
				}
				ext := strings.ToLower(filepath.Ext(f.Path))
				stat := byExt[ext]
				stat.count++
				stat.size += f.Size
				byExt[ext] = stat
			}
			fmt.Fprintf(out, "Eligible files:     %d (%s)\n", summary.Eligible, humanize.IBytes(uint64(totalSize)))
			fmt.Fprintf(out, "Estimated chunks:   ~%d\n", estimatedChunks)
			fmt.Fprintf(out, "Skipped extension:  %d\n", summary.SkippedExtension)
			fmt.Fprintf(out, "Skipped ignored:    %d\n", summary.SkippedIgnored)
			fmt.Fprintf(out, "Skipped too large:  %d\n", summary.SkippedTooLarge)
			fmt.Fprintf(out, "File errors:        %d\n\n", summary.FileErrors)

			if len(byExt) > 0 {
				exts := make([]string, 0, len(byExt))
				for ext := range byExt {
					exts = append(exts, ext)
				}
				sort.Slice(exts, func(i, j int) bool { return byExt[exts[i]].size > byExt[exts[j]].size })
				if len(exts) > 8 {
					exts = exts[:8]
				}
				fmt.Fprintln(out, "File breakdown:")
				for _, ext := range exts {
					stat := byExt[ext]
					fmt.Fprintf(out, "  %-8s %d file(s), %s\n", ext, stat.count, humanize.IBytes(uint64(stat.size)))
				}
				fmt.Fprintln(out)
			}

			col, err := a.store.Get(ctx, identity.String())
			if scouterrors.GetCode(err) == scouterrors.ErrCodeCollectionNotFound {
				fmt.Fprintln(out, "Collection does not exist yet; a sync would build it from scratch.")
				return nil
			}
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
			fmt.Fprintf(out, "Indexed chunks:     %d\n", count)

			plan := index.BuildPlan(root, metas, files)
			if plan.Empty() {
				fmt.Fprintln(out, "Index is in step with the filesystem.")
			} else {
				fmt.Fprintf(out, "A sync pass would touch %d file(s):\n", plan.Total())
				for _, p := range plan.New {
					fmt.Fprintf(out, "  new:      %s\n", p)
				}
				for _, p := range plan.Modified {
					fmt.Fprintf(out, "  modified: %s\n", p)
				}
				for _, p := range plan.Deleted {
					fmt.Fprintf(out, "  deleted:  %s\n", p)
				}
			}

			if next := a.syncer.NextAllowed(root); !next.IsZero() {
				fmt.Fprintf(out, "Next automatic sync allowed at %s.\n", next.Format("15:04:05"))
			}
			return nil
		},
	}
}

// Package cmd provides the CLI commands for ScoutMCP.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scoutmcp/scoutmcp/pkg/version"
)

// NewRootCmd creates the root command for the scoutmcp CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoutmcp",
		Short: "Workspace-scoped semantic code search over MCP",
		Long: `ScoutMCP indexes a workspace into a local vector store and serves
semantic search to AI coding assistants over the Model Context Protocol.

The index follows the filesystem: each search first runs a rate-limited
sync pass that picks up new, changed, and deleted files.

Running 'scoutmcp' with no arguments starts the MCP server on stdio.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			// MCP clients invoke the bare binary; stdout must carry
			// only JSON-RPC from here on.
			return runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("scoutmcp version {{.Version}}\n")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCollectionsCmd())
	cmd.AddCommand(newInvestigateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

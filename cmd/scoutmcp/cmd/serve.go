package cmd

import (
	"context"

	"github.com/spf13/cobra"

	mcpserver "github.com/scoutmcp/scoutmcp/internal/mcp"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server. The server speaks JSON-RPC on stdio, so all
logging goes to the log file; use 'scoutmcp investigate' for
diagnostics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	// Stdout belongs to JSON-RPC; logs must not reach it.
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpserver.NewServer(a.syncer, a.store, a.embedder, a.cfg, a.logger)
	return srv.Serve(ctx, a.cfg.Server.Transport)
}

// Package main provides the entry point for the scoutmcp CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scoutmcp/scoutmcp/cmd/scoutmcp/cmd"
)

func main() {
	// A .env in the working directory can carry WORKSPACE_PATH and
	// SCOUTMCP_* overrides; missing file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"log/slog"
	"os"

	"github.com/scoutmcp/scoutmcp/internal/config"
	"github.com/scoutmcp/scoutmcp/internal/embed"
	"github.com/scoutmcp/scoutmcp/internal/index"
	"github.com/scoutmcp/scoutmcp/internal/logging"
	"github.com/scoutmcp/scoutmcp/internal/scanner"
	"github.com/scoutmcp/scoutmcp/internal/store"
)

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.SQLiteStore
	embedder embed.Embedder
	syncer   *index.Syncer

	logCleanup func()
}

// newApp loads configuration, sets up logging, and opens the store.
// toStderr controls whether logs also go to stderr; the MCP server
// keeps stdout for JSON-RPC and sends logs to the file only unless
// asked otherwise.
func newApp(toStderr bool) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Server.LogLevel,
		FilePath:      cfg.Server.LogFile,
		WriteToStderr: toStderr,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	embedder := embed.NewHashEmbedder()
	st, err := store.Open(cfg.Store.DataDir, embedder.Dimensions(), cfg.Store.Metric, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	syncer := index.NewSyncer(st, rulesFromConfig(cfg), embedder, cfg.Indexing.Interval(), logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		embedder:   embedder,
		syncer:     syncer,
		logCleanup: cleanup,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", "error", err)
	}
	if a.logCleanup != nil {
		a.logCleanup()
	}
}

func rulesFromConfig(cfg *config.Config) *scanner.Rules {
	return &scanner.Rules{
		AllowedExtensions: cfg.Indexing.AllowedExtensions,
		IgnorePatterns:    cfg.Indexing.IgnorePatterns,
		MaxFileSize:       cfg.Indexing.MaxFileSize,
	}
}

// resolveRoot picks the workspace root for a command: an explicit
// argument wins, then WORKSPACE_PATH, then the current directory.
func resolveRoot(arg string) (string, error) {
	if arg != "" {
		return config.ValidateWorkspace(arg)
	}
	if root, err := config.WorkspacePath(); err == nil {
		return config.ValidateWorkspace(root)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.ValidateWorkspace(cwd)
}

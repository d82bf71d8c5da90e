package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scoutmcp/scoutmcp/internal/config"
	"github.com/scoutmcp/scoutmcp/internal/embed"
	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/index"
	"github.com/scoutmcp/scoutmcp/internal/store"
	"github.com/scoutmcp/scoutmcp/internal/workspace"
	"github.com/scoutmcp/scoutmcp/pkg/version"
)

// Server bridges MCP clients with the workspace index. Every search
// first runs a rate-gated sync pass so results reflect the workspace
// as it is on disk, not as it was when the server started.
type Server struct {
	mcp      *mcp.Server
	syncer   *index.Syncer
	store    store.Store
	embedder embed.Embedder
	config   *config.Config
	logger   *slog.Logger
}

// SearchInput is the semantic_search tool input.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"natural language or code query to search for"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results, default 5, max 50"`
	ForceSync  bool   `json:"force_sync,omitempty" jsonschema:"bypass the sync rate limit and refresh the index before searching"`
}

// SearchOutput is the semantic_search tool output.
type SearchOutput struct {
	Report  string         `json:"report" jsonschema:"markdown-formatted search results"`
	Results []SearchResult `json:"results" jsonschema:"structured search results"`
}

// SearchResult is one structured hit.
type SearchResult struct {
	FilePath   string  `json:"file_path" jsonschema:"file path relative to the workspace root"`
	ChunkIndex int     `json:"chunk_index" jsonschema:"position of the chunk within the file"`
	Content    string  `json:"content" jsonschema:"matched chunk text"`
	Similarity float64 `json:"similarity" jsonschema:"similarity score between 0 and 1"`
}

// SyncInput is the sync_workspace tool input.
type SyncInput struct {
	Force bool `json:"force,omitempty" jsonschema:"bypass the sync rate limit"`
}

// SyncOutput is the sync_workspace tool output.
type SyncOutput struct {
	Collection     string `json:"collection" jsonschema:"collection name for the workspace"`
	Skipped        bool   `json:"skipped" jsonschema:"true when the rate gate suppressed the pass"`
	FullBuild      bool   `json:"full_build" jsonschema:"true when the collection was built from scratch"`
	FilesAdded     int    `json:"files_added"`
	FilesReindexed int    `json:"files_reindexed"`
	FilesDeleted   int    `json:"files_deleted"`
	ChunksAdded    int    `json:"chunks_added"`
	ChunksRemoved  int    `json:"chunks_removed"`
	Failures       int    `json:"failures" jsonschema:"files that could not be processed"`
}

// StatusInput is the index_status tool input.
type StatusInput struct{}

// StatusOutput is the index_status tool output.
type StatusOutput struct {
	Workspace       string `json:"workspace" jsonschema:"absolute workspace root"`
	Collection      string `json:"collection" jsonschema:"collection name derived from the workspace"`
	Indexed         bool   `json:"indexed" jsonschema:"whether a collection exists for the workspace"`
	ChunkCount      int    `json:"chunk_count"`
	NextSyncAllowed string `json:"next_sync_allowed,omitempty" jsonschema:"RFC 3339 time when the gate next allows a sync, empty when allowed now"`
}

// NewServer creates the MCP server and registers its tools.
func NewServer(syncer *index.Syncer, st store.Store, embedder embed.Embedder, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		syncer:   syncer,
		store:    st,
		embedder: embedder,
		config:   cfg,
		logger:   logger.With("component", "mcp"),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "scoutmcp",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Search the current workspace by meaning. Keeps the index in step with the filesystem automatically, then returns the most similar code and text chunks.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "sync_workspace",
		Description: "Synchronize the workspace index with the filesystem now. Reports how many files were added, reindexed, or removed.",
	}, s.handleSync)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the current workspace is indexed, how many chunks it holds, and when the next automatic sync is allowed.",
	}, s.handleStatus)

	s.logger.Info("MCP tools registered", "count", 3)
}

// resolveWorkspace reads and validates the workspace root for the
// current request. It is resolved per call so a client that changes
// WORKSPACE_PATH between requests is never served a stale root.
func (s *Server) resolveWorkspace() (string, error) {
	root, err := config.WorkspacePath()
	if err != nil {
		return "", err
	}
	return config.ValidateWorkspace(root)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	start := time.Now()

	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query must not be empty")
	}

	limit := input.MaxResults
	if limit <= 0 {
		limit = s.config.Store.TopK
	}
	if limit > 50 {
		limit = 50
	}

	root, err := s.resolveWorkspace()
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	if _, err := s.syncer.Sync(ctx, root, input.ForceSync); err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	col, err := s.syncer.Collection(ctx, root)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	vector, err := s.embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, MapError(scouterrors.New(scouterrors.ErrCodeInternal, "embed query", err))
	}

	results, err := col.Query(ctx, vector, limit)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("search completed",
		"query", input.Query,
		"results", len(results),
		"duration", time.Since(start))

	if len(results) == 0 {
		infos, listErr := s.store.List(ctx)
		if listErr != nil {
			s.logger.Warn("listing collections for empty result failed", "error", listErr)
		}
		return nil, SearchOutput{Report: FormatNoResults(input.Query, infos)}, nil
	}

	output := SearchOutput{
		Report:  FormatSearchResults(input.Query, results),
		Results: make([]SearchResult, 0, len(results)),
	}
	for _, res := range results {
		output.Results = append(output.Results, SearchResult{
			FilePath:   res.Metadata.FilePath,
			ChunkIndex: res.Metadata.ChunkIndex,
			Content:    res.Text,
			Similarity: float64(res.Score),
		})
	}
	return nil, output, nil
}

func (s *Server) handleSync(ctx context.Context, _ *mcp.CallToolRequest, input SyncInput) (
	*mcp.CallToolResult,
	SyncOutput,
	error,
) {
	root, err := s.resolveWorkspace()
	if err != nil {
		return nil, SyncOutput{}, MapError(err)
	}

	outcome, err := s.syncer.Sync(ctx, root, input.Force)
	if err != nil {
		return nil, SyncOutput{}, MapError(err)
	}

	out := SyncOutput{
		Collection: outcome.Collection,
		Skipped:    outcome.Skipped,
		FullBuild:  outcome.FullBuild,
	}
	if outcome.Report != nil {
		out.FilesAdded = outcome.Report.FilesAdded
		out.FilesReindexed = outcome.Report.FilesReindexed
		out.FilesDeleted = outcome.Report.FilesDeleted
		out.ChunksAdded = outcome.Report.ChunksAdded
		out.ChunksRemoved = outcome.Report.ChunksRemoved
		out.Failures = len(outcome.Report.Failures)
	}
	return nil, out, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	root, err := s.resolveWorkspace()
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}

	name := workspace.Identify(root).String()
	out := StatusOutput{Workspace: root, Collection: name}

	col, err := s.store.Get(ctx, name)
	if scouterrors.GetCode(err) == scouterrors.ErrCodeCollectionNotFound {
		return nil, out, nil
	}
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}

	out.Indexed = true
	if count, err := col.Count(ctx); err == nil {
		out.ChunkCount = count
	}
	if next := s.syncer.NextAllowed(root); !next.IsZero() {
		out.NextSyncAllowed = next.Format(time.RFC3339)
	}
	return nil, out, nil
}

// Serve runs the server over the given transport until ctx ends.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", "transport", transport)

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", "error", err)
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/scoutmcp/scoutmcp/internal/chunk"
	"github.com/scoutmcp/scoutmcp/internal/embed"
	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/store"
)

// FileFailure records one file the reconciler could not process.
type FileFailure struct {
	Path string
	Err  error
}

// Report summarizes what a reconcile pass changed.
type Report struct {
	FilesAdded     int
	FilesReindexed int
	FilesDeleted   int
	ChunksAdded    int
	ChunksRemoved  int
	Failures       []FileFailure
}

// Changed reports whether the pass altered the collection.
func (r *Report) Changed() bool {
	return r.FilesAdded > 0 || r.FilesReindexed > 0 || r.FilesDeleted > 0
}

// Reconciler applies a SyncPlan to a collection. One file failing to
// read or embed does not abort the pass; the failure is recorded and
// the remaining files still reconcile.
type Reconciler struct {
	root     string
	col      store.Collection
	splitter chunk.Splitter
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewReconciler creates a reconciler for the collection rooted at root.
func NewReconciler(root string, col store.Collection, splitter chunk.Splitter, embedder embed.Embedder, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		root:     root,
		col:      col,
		splitter: splitter,
		embedder: embedder,
		logger:   logger.With("component", "reconciler", "collection", col.Name()),
	}
}

// Apply executes the plan: deletions first, then modified files as
// delete-and-reindex, then new files.
func (r *Reconciler) Apply(ctx context.Context, plan *SyncPlan) (*Report, error) {
	report := &Report{}

	for _, path := range plan.Deleted {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		removed, err := r.col.DeleteByFile(ctx, path)
		if err != nil {
			r.fail(report, path, err)
			continue
		}
		report.FilesDeleted++
		report.ChunksRemoved += removed
	}

	for _, path := range plan.Modified {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		removed, err := r.col.DeleteByFile(ctx, path)
		if err != nil {
			r.fail(report, path, err)
			continue
		}
		report.ChunksRemoved += removed

		added, err := r.indexFile(ctx, path)
		if err != nil {
			r.fail(report, path, err)
			continue
		}
		report.FilesReindexed++
		report.ChunksAdded += added
	}

	for _, path := range plan.New {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		added, err := r.indexFile(ctx, path)
		if err != nil {
			r.fail(report, path, err)
			continue
		}
		report.FilesAdded++
		report.ChunksAdded += added
	}

	return report, nil
}

// indexFile chunks, embeds, and stores one file. Returns the number of
// chunks added. A file whose content yields no chunks stores nothing
// and that is not an error.
//
// The indexing timestamp is taken before the content is read: a write
// landing mid-read then carries a newer mtime and the next plan picks
// the file up again.
func (r *Reconciler) indexFile(ctx context.Context, relPath string) (int, error) {
	indexedAt := time.Now()
	abs := filepath.Join(r.root, filepath.FromSlash(relPath))

	content, err := os.ReadFile(abs)
	if err != nil {
		return 0, scouterrors.New(scouterrors.ErrCodeReadFailed, "read file for indexing", err)
	}

	chunks := r.splitter.Split(string(content))
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, scouterrors.New(scouterrors.ErrCodeInternal, "embed file chunks", err)
	}

	records := make([]store.ChunkRecord, len(chunks))
	for i, ch := range chunks {
		meta, err := BuildMetadata(r.root, abs, indexedAt, ch.Index)
		if err != nil {
			return 0, err
		}
		records[i] = store.ChunkRecord{
			ID:       BuildChunkID(relPath, ch.Index, ch.Text),
			Text:     ch.Text,
			Vector:   vectors[i],
			Metadata: meta,
		}
	}

	if err := r.col.Add(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *Reconciler) fail(report *Report, path string, err error) {
	r.logger.Warn("file reconcile failed", "path", path, "error", err)
	report.Failures = append(report.Failures, FileFailure{Path: path, Err: err})
}

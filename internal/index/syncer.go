package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/scoutmcp/scoutmcp/internal/chunk"
	"github.com/scoutmcp/scoutmcp/internal/embed"
	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/scanner"
	"github.com/scoutmcp/scoutmcp/internal/store"
	"github.com/scoutmcp/scoutmcp/internal/workspace"
)

// Outcome describes what one Sync call did.
type Outcome struct {
	Collection string
	Root       string
	FullBuild  bool    // collection did not exist and was built from scratch
	Skipped    bool    // gate suppressed the pass; the index was served as-is
	Report     *Report // nil when Skipped
	Duration   time.Duration
}

// Syncer keeps collections in step with their workspaces. Concurrent
// Sync calls for the same workspace coalesce into one pass; passes for
// the same collection never overlap.
type Syncer struct {
	store    store.Store
	rules    *scanner.Rules
	splitter chunk.Splitter
	embedder embed.Embedder
	gate     *ModificationGate
	logger   *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSyncer wires a syncer over the given store and eligibility rules.
func NewSyncer(st store.Store, rules *scanner.Rules, embedder embed.Embedder, interval time.Duration, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:    st,
		rules:    rules,
		splitter: chunk.NewParagraphSplitter(),
		embedder: embedder,
		gate:     NewModificationGate(interval),
		logger:   logger.With("component", "syncer"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Sync brings the collection for root up to date. With force true the
// rate gate is bypassed; otherwise a pass inside the gate interval is
// skipped and the current index state stands. A missing collection is
// not an error: it is built from scratch.
func (s *Syncer) Sync(ctx context.Context, root string, force bool) (*Outcome, error) {
	name := workspace.Identify(root).String()

	v, err, _ := s.group.Do(name, func() (any, error) {
		return s.syncPass(ctx, root, name, force)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

// Collection opens the collection for root without syncing.
func (s *Syncer) Collection(ctx context.Context, root string) (store.Collection, error) {
	return s.store.Get(ctx, workspace.Identify(root).String())
}

// NextAllowed reports when the gate next permits a sync pass for
// root. The zero time means a pass is allowed immediately.
func (s *Syncer) NextAllowed(root string) time.Time {
	return s.gate.NextAllowed(workspace.Identify(root).String())
}

func (s *Syncer) syncPass(ctx context.Context, root, name string, force bool) (*Outcome, error) {
	lock := s.collectionLock(name)
	lock.Lock()
	defer lock.Unlock()

	outcome := &Outcome{Collection: name, Root: root}

	col, err := s.store.Get(ctx, name)
	if scouterrors.GetCode(err) == scouterrors.ErrCodeCollectionNotFound {
		// First contact with this workspace. Build the collection now
		// regardless of the gate.
		outcome.FullBuild = true
		force = true
		col, err = s.store.GetOrCreate(ctx, name, root)
	}
	if err != nil {
		return nil, err
	}

	if force {
		s.gate.Reset(name)
	}
	if !s.gate.Allow(name) {
		outcome.Skipped = true
		s.logger.Debug("sync gated", "collection", name, "next_allowed", s.gate.NextAllowed(name))
		return outcome, nil
	}

	start := time.Now()

	sc := scanner.New(root, s.rules, s.logger)
	files, err := sc.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := col.Metadatas(ctx)
	if err != nil {
		return nil, err
	}

	plan := BuildPlan(root, stored, files)
	if plan.Empty() {
		outcome.Report = &Report{}
		outcome.Duration = time.Since(start)
		s.logger.Debug("sync found nothing to do", "collection", name, "files", len(files))
		return outcome, nil
	}

	rec := NewReconciler(root, col, s.splitter, s.embedder, s.logger)
	report, err := rec.Apply(ctx, plan)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, scouterrors.New(scouterrors.ErrCodeSyncFailed, "reconcile workspace", err)
	}

	outcome.Report = report
	outcome.Duration = time.Since(start)
	s.logger.Info("sync pass complete",
		"collection", name,
		"full_build", outcome.FullBuild,
		"files_added", report.FilesAdded,
		"files_reindexed", report.FilesReindexed,
		"files_deleted", report.FilesDeleted,
		"chunks_added", report.ChunksAdded,
		"chunks_removed", report.ChunksRemoved,
		"failures", len(report.Failures),
		"duration", outcome.Duration)
	return outcome, nil
}

func (s *Syncer) collectionLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutmcp/scoutmcp/internal/embed"
	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/scanner"
	"github.com/scoutmcp/scoutmcp/internal/store"
	"github.com/scoutmcp/scoutmcp/internal/workspace"
)

func newTestSyncer(t *testing.T, interval time.Duration) (*Syncer, *store.SQLiteStore) {
	t.Helper()

	embedder := embed.NewHashEmbedder()
	st, err := store.Open(t.TempDir(), embedder.Dimensions(), "cosine", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rules := &scanner.Rules{
		AllowedExtensions: []string{".go", ".md", ".txt", ".py"},
		IgnorePatterns:    []string{".git", "node_modules"},
		MaxFileSize:       1 << 20,
	}
	return NewSyncer(st, rules, embedder, interval, nil), st
}

func write(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSyncer_FullBuildOnFirstContact(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "hello.txt", "Hello world.\n\nA second paragraph.")
	write(t, root, "main.go", "package main")

	outcome, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	assert.True(t, outcome.FullBuild)
	assert.False(t, outcome.Skipped)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 2, outcome.Report.FilesAdded)
	assert.Equal(t, 3, outcome.Report.ChunksAdded)
	assert.Empty(t, outcome.Report.Failures)

	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)
	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSyncer_SearchFindsIndexedContent(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "greeting.txt", "Hello world from the greeting file.")
	write(t, root, "animals.txt", "zebra giraffe elephant")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)

	embedder := embed.NewHashEmbedder()
	vec, err := embedder.Embed(ctx, "hello world greeting")
	require.NoError(t, err)

	results, err := col.Query(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "greeting.txt", results[0].Metadata.FilePath)
}

func TestSyncer_GateSuppressesSecondPass(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "a.txt", "alpha")

	first, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	write(t, root, "b.txt", "beta")

	second, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Report)

	// The skipped pass left b.txt unindexed.
	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)
	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncer_ForceBypassesGate(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "a.txt", "alpha")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	write(t, root, "b.txt", "beta")

	forced, err := syncer.Sync(ctx, root, true)
	require.NoError(t, err)
	assert.False(t, forced.Skipped)
	assert.Equal(t, 1, forced.Report.FilesAdded)
}

func TestSyncer_DetectsModification(t *testing.T) {
	syncer, _ := newTestSyncer(t, 0)
	ctx := context.Background()

	root := t.TempDir()
	path := write(t, root, "doc.txt", "original content")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	// Rewrite with a strictly newer mtime.
	require.NoError(t, os.WriteFile(path, []byte("changed content"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	outcome, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 1, outcome.Report.FilesReindexed)
	assert.Equal(t, 1, outcome.Report.ChunksRemoved)
	assert.Equal(t, 1, outcome.Report.ChunksAdded)
}

func TestSyncer_DetectsDeletion(t *testing.T) {
	syncer, _ := newTestSyncer(t, 0)
	ctx := context.Background()

	root := t.TempDir()
	path := write(t, root, "doomed.txt", "short lived")
	write(t, root, "stays.txt", "still here")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	outcome, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 1, outcome.Report.FilesDeleted)
	assert.Equal(t, 1, outcome.Report.ChunksRemoved)

	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)
	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncer_DetectsNewFile(t *testing.T) {
	syncer, _ := newTestSyncer(t, 0)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "first.txt", "first file")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	write(t, root, "second.txt", "second file")

	outcome, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Report)
	assert.Equal(t, 1, outcome.Report.FilesAdded)
	assert.Equal(t, 0, outcome.Report.FilesReindexed)
	assert.Equal(t, 0, outcome.Report.FilesDeleted)
}

func TestSyncer_NoWorkWhenUnchanged(t *testing.T) {
	syncer, _ := newTestSyncer(t, 0)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "a.txt", "alpha")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	outcome, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Report)
	assert.False(t, outcome.Report.Changed())
}

func TestSyncer_MissingWorkspaceIsRetryable(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := filepath.Join(t.TempDir(), "vanished")
	_, err := syncer.Sync(ctx, root, false)
	require.Error(t, err)
}

func TestSyncer_UnreadableRootLeavesIndexIntact(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}

	syncer, _ := newTestSyncer(t, 0)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "keep.txt", "important knowledge")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	// Root still stats fine but can no longer be enumerated. The sync
	// must fail outright instead of treating every indexed file as gone.
	require.NoError(t, os.Chmod(root, 0o111))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err = syncer.Sync(ctx, root, true)
	require.Error(t, err)
	assert.Equal(t, scouterrors.ErrCodeWorkspaceUnavailable, scouterrors.GetCode(err))

	require.NoError(t, os.Chmod(root, 0o755))
	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)
	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncer_ConcurrentCallsCoalesce(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := t.TempDir()
	for i := 0; i < 5; i++ {
		write(t, root, filepath.Join("pkg", "file"+string(rune('a'+i))+".txt"), "some text body")
	}

	var wg sync.WaitGroup
	outcomes := make([]*Outcome, 8)
	errs := make([]error, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = syncer.Sync(ctx, root, false)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// All callers observed a consistent index with every file present.
	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)
	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	for _, out := range outcomes {
		require.NotNil(t, out)
	}
}

func TestSyncer_ReindexReplacesSearchableContent(t *testing.T) {
	syncer, _ := newTestSyncer(t, time.Hour)
	ctx := context.Background()
	embedder := embed.NewHashEmbedder()

	root := t.TempDir()
	path := write(t, root, "main.py", "hello world")

	_, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)

	col, err := syncer.Collection(ctx, root)
	require.NoError(t, err)

	vec, err := embedder.Embed(ctx, "hello world")
	require.NoError(t, err)
	results, err := col.Query(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.py", results[0].Metadata.FilePath)
	assert.Equal(t, "hello world", results[0].Text)

	require.NoError(t, os.WriteFile(path, []byte("zebra migration patterns"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	outcome, err := syncer.Sync(ctx, root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Report.FilesReindexed)

	vec, err = embedder.Embed(ctx, "zebra migration")
	require.NoError(t, err)
	results, err = col.Query(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "zebra migration patterns", results[0].Text)
}

func TestSyncer_CollectionNameMatchesWorkspaceIdentity(t *testing.T) {
	syncer, st := newTestSyncer(t, time.Hour)
	ctx := context.Background()

	root := t.TempDir()
	write(t, root, "a.txt", "alpha")

	outcome, err := syncer.Sync(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, workspace.Identify(root).String(), outcome.Collection)

	infos, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, infos[0].Root)
}

package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutmcp/scoutmcp/internal/chunk"
	"github.com/scoutmcp/scoutmcp/internal/embed"
	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/store"
)

func newTestReconciler(t *testing.T, root string) (*Reconciler, store.Collection) {
	t.Helper()

	embedder := embed.NewHashEmbedder()
	st, err := store.Open(t.TempDir(), embedder.Dimensions(), "cosine", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	col, err := st.GetOrCreate(context.Background(), "test_00000000", root)
	require.NoError(t, err)

	return NewReconciler(root, col, chunk.NewParagraphSplitter(), embedder, nil), col
}

func TestReconciler_IndexesNewFiles(t *testing.T) {
	root := t.TempDir()
	write(t, root, "doc.txt", "para one\n\npara two")
	rec, col := newTestReconciler(t, root)

	start := time.Now()
	report, err := rec.Apply(context.Background(), &SyncPlan{New: []string{"doc.txt"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesAdded)
	assert.Equal(t, 2, report.ChunksAdded)
	assert.Empty(t, report.Failures)

	metas, err := col.Metadatas(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 2)
	for _, meta := range metas {
		assert.Equal(t, "doc.txt", meta.FilePath)
		assert.Equal(t, root, meta.CollectionRoot)
		assert.GreaterOrEqual(t, meta.LastModified, start.UnixNano())
	}
}

func TestReconciler_EmptyFileStoresNothing(t *testing.T) {
	root := t.TempDir()
	write(t, root, "empty.txt", "   \n\n  ")
	rec, col := newTestReconciler(t, root)

	report, err := rec.Apply(context.Background(), &SyncPlan{New: []string{"empty.txt"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesAdded)
	assert.Equal(t, 0, report.ChunksAdded)

	count, err := col.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReconciler_MissingFileIsRecordedNotFatal(t *testing.T) {
	root := t.TempDir()
	write(t, root, "good.txt", "real content")
	rec, col := newTestReconciler(t, root)

	report, err := rec.Apply(context.Background(), &SyncPlan{New: []string{"good.txt", "missing.txt"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesAdded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "missing.txt", report.Failures[0].Path)
	assert.Equal(t, scouterrors.ErrCodeReadFailed, scouterrors.GetCode(report.Failures[0].Err))

	count, err := col.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReconciler_ModifiedReplacesChunks(t *testing.T) {
	root := t.TempDir()
	write(t, root, "doc.txt", "one\n\ntwo\n\nthree")
	rec, col := newTestReconciler(t, root)
	ctx := context.Background()

	_, err := rec.Apply(ctx, &SyncPlan{New: []string{"doc.txt"}})
	require.NoError(t, err)

	write(t, root, "doc.txt", "only one paragraph now")

	report, err := rec.Apply(ctx, &SyncPlan{Modified: []string{"doc.txt"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesReindexed)
	assert.Equal(t, 3, report.ChunksRemoved)
	assert.Equal(t, 1, report.ChunksAdded)

	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReconciler_DeletedRemovesChunks(t *testing.T) {
	root := t.TempDir()
	write(t, root, "doc.txt", "a\n\nb")
	rec, col := newTestReconciler(t, root)
	ctx := context.Background()

	_, err := rec.Apply(ctx, &SyncPlan{New: []string{"doc.txt"}})
	require.NoError(t, err)

	report, err := rec.Apply(ctx, &SyncPlan{Deleted: []string{"doc.txt"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesDeleted)
	assert.Equal(t, 2, report.ChunksRemoved)

	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReport_Changed(t *testing.T) {
	assert.False(t, (&Report{}).Changed())
	assert.True(t, (&Report{FilesAdded: 1}).Changed())
	assert.True(t, (&Report{FilesReindexed: 1}).Changed())
	assert.True(t, (&Report{FilesDeleted: 1}).Changed())
}

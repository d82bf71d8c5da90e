package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutmcp/scoutmcp/internal/scanner"
	"github.com/scoutmcp/scoutmcp/internal/store"
)

var planBase = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func storedChunk(path string, mod time.Time, idx int) store.ChunkMetadata {
	return store.ChunkMetadata{
		FilePath:       path,
		CollectionRoot: "/ws",
		LastModified:   mod.UnixNano(),
		ChunkIndex:     idx,
	}
}

func diskFile(path string, mod time.Time) *scanner.FileInfo {
	return &scanner.FileInfo{Path: path, AbsPath: "/ws/" + path, ModTime: mod}
}

func TestBuildPlan_NothingChanged(t *testing.T) {
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("a.go", planBase, 0),
	}
	current := []*scanner.FileInfo{diskFile("a.go", planBase)}

	plan := BuildPlan("/ws", stored, current)
	assert.True(t, plan.Empty())
}

func TestBuildPlan_ModifiedFile(t *testing.T) {
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("a.go", planBase, 0),
		"c2": storedChunk("a.go", planBase, 1),
	}
	current := []*scanner.FileInfo{diskFile("a.go", planBase.Add(time.Second))}

	plan := BuildPlan("/ws", stored, current)
	assert.Equal(t, []string{"a.go"}, plan.Modified)
	assert.Empty(t, plan.Deleted)
	assert.Empty(t, plan.New)
}

func TestBuildPlan_OlderDiskMtimeIsNotModified(t *testing.T) {
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("a.go", planBase, 0),
	}
	current := []*scanner.FileInfo{diskFile("a.go", planBase.Add(-time.Hour))}

	plan := BuildPlan("/ws", stored, current)
	assert.True(t, plan.Empty())
}

func TestBuildPlan_DeletedFile(t *testing.T) {
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("gone.go", planBase, 0),
	}

	plan := BuildPlan("/ws", stored, nil)
	assert.Equal(t, []string{"gone.go"}, plan.Deleted)
	assert.Empty(t, plan.Modified)
	assert.Empty(t, plan.New)
}

func TestBuildPlan_UnscannedButPresentFileKeepsChunks(t *testing.T) {
	// A file can be absent from the scan while still on disk, for
	// example when its directory failed to read. It must not be
	// planned as deleted; only a confirmed-missing file is.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.go"), []byte("package kept\n"), 0o644))

	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("kept.go", planBase, 0),
		"c2": storedChunk("gone.go", planBase, 0),
	}

	plan := BuildPlan(dir, stored, nil)
	assert.Equal(t, []string{"gone.go"}, plan.Deleted)
	assert.Empty(t, plan.Modified)
	assert.Empty(t, plan.New)
}

func TestBuildPlan_NewFile(t *testing.T) {
	current := []*scanner.FileInfo{diskFile("fresh.go", planBase)}

	plan := BuildPlan("/ws", map[string]store.ChunkMetadata{}, current)
	assert.Equal(t, []string{"fresh.go"}, plan.New)
	assert.Empty(t, plan.Modified)
	assert.Empty(t, plan.Deleted)
}

func TestBuildPlan_NewestChunkMtimeWins(t *testing.T) {
	// Chunks of one file can carry different indexing times after a
	// partial pass; the newest one decides whether the file changed.
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("a.go", planBase.Add(-time.Hour), 0),
		"c2": storedChunk("a.go", planBase, 1),
	}
	current := []*scanner.FileInfo{diskFile("a.go", planBase)}

	plan := BuildPlan("/ws", stored, current)
	assert.True(t, plan.Empty())
}

func TestBuildPlan_MixedScenario(t *testing.T) {
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("stale.go", planBase, 0),
		"c2": storedChunk("gone.go", planBase, 0),
		"c3": storedChunk("same.go", planBase, 0),
	}
	current := []*scanner.FileInfo{
		diskFile("stale.go", planBase.Add(time.Minute)),
		diskFile("same.go", planBase),
		diskFile("brand-new.go", planBase),
	}

	plan := BuildPlan("/ws", stored, current)
	assert.Equal(t, []string{"stale.go"}, plan.Modified)
	assert.Equal(t, []string{"gone.go"}, plan.Deleted)
	assert.Equal(t, []string{"brand-new.go"}, plan.New)
	assert.Equal(t, 3, plan.Total())
}

func TestBuildPlan_SetsAreDisjoint(t *testing.T) {
	stored := map[string]store.ChunkMetadata{
		"c1": storedChunk("a.go", planBase, 0),
		"c2": storedChunk("b.go", planBase, 0),
	}
	current := []*scanner.FileInfo{
		diskFile("a.go", planBase.Add(time.Minute)),
		diskFile("c.go", planBase),
	}

	plan := BuildPlan("/ws", stored, current)

	seen := make(map[string]int)
	for _, p := range plan.Modified {
		seen[p]++
	}
	for _, p := range plan.Deleted {
		seen[p]++
	}
	for _, p := range plan.New {
		seen[p]++
	}
	for path, n := range seen {
		require.Equal(t, 1, n, "path %s appears in more than one set", path)
	}
}

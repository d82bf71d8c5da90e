package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex_AddAndSearch(t *testing.T) {
	idx := newVectorIndex(3, "cosine")

	require.NoError(t, idx.add("x", []float32{1, 0, 0}))
	require.NoError(t, idx.add("y", []float32{0, 1, 0}))
	require.NoError(t, idx.add("diag", []float32{1, 1, 0}))

	hits, err := idx.search([]float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].id)
	assert.Greater(t, hits[0].score, hits[1].score)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	idx := newVectorIndex(3, "cosine")

	err := idx.add("bad", []float32{1, 0})
	require.Error(t, err)
	assert.ErrorContains(t, err, "dimension")

	_, err = idx.search([]float32{1, 0, 0, 0}, 1)
	require.Error(t, err)
}

func TestVectorIndex_ReplaceKeepsOneLiveEntry(t *testing.T) {
	idx := newVectorIndex(3, "cosine")

	require.NoError(t, idx.add("a", []float32{1, 0, 0}))
	require.NoError(t, idx.add("a", []float32{0, 1, 0}))

	assert.Len(t, idx.idMap, 1)

	hits, err := idx.search([]float32{0, 1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].id)
	assert.InDelta(t, 1.0, float64(hits[0].score), 0.01)
}

func TestVectorIndex_RemoveFiltersHits(t *testing.T) {
	idx := newVectorIndex(3, "cosine")

	require.NoError(t, idx.add("keep", []float32{1, 0, 0}))
	require.NoError(t, idx.add("drop", []float32{0.9, 0.1, 0}))

	idx.remove([]string{"drop"})
	assert.Len(t, idx.idMap, 1)

	hits, err := idx.search([]float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "keep", hits[0].id)
}

func TestVectorIndex_SearchEmpty(t *testing.T) {
	idx := newVectorIndex(3, "cosine")

	hits, err := idx.search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, float64(distanceToScore(0, "cosine")), 1e-6)
	assert.InDelta(t, 0.5, float64(distanceToScore(1, "cosine")), 1e-6)
	assert.InDelta(t, 0.0, float64(distanceToScore(2, "cosine")), 1e-6)

	assert.InDelta(t, 1.0, float64(distanceToScore(0, "l2")), 1e-6)
	assert.InDelta(t, 0.5, float64(distanceToScore(1, "l2")), 1e-6)
}

// Package store persists chunk records and serves vector similarity
// queries. Rows live in SQLite; an in-memory HNSW graph per collection
// is rebuilt from the rows on open and answers nearest-neighbor
// searches.
package store

import (
	"context"
	"fmt"
)

// ChunkMetadata is the per-chunk bookkeeping the sync planner reads.
// FilePath is relative to CollectionRoot (slash-separated), so joining
// the two recovers the absolute path. LastModified is the indexing
// time in Unix nanoseconds, not the file's mtime; sync planning
// compares it against current mtimes.
type ChunkMetadata struct {
	FilePath       string `json:"file_path"`
	CollectionRoot string `json:"collection_root"`
	LastModified   int64  `json:"last_modified"`
	ChunkIndex     int    `json:"chunk_index"`
}

// ChunkRecord is one stored chunk: identity, text, vector, metadata.
type ChunkRecord struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata ChunkMetadata
}

// QueryResult is one similarity search hit.
type QueryResult struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
	Distance float32
	Score    float32 // 0..1, higher is more similar
}

// CollectionInfo summarizes a collection without opening it.
type CollectionInfo struct {
	Name       string
	Root       string
	ChunkCount int
}

// Collection is one workspace's indexed chunk set.
type Collection interface {
	Name() string
	Root() string

	// Add inserts records, replacing any existing record with the
	// same ID.
	Add(ctx context.Context, records []ChunkRecord) error

	// DeleteByFile removes every chunk whose stored file path equals
	// filePath and returns how many were removed.
	DeleteByFile(ctx context.Context, filePath string) (int, error)

	// Metadatas returns the metadata of every stored chunk keyed by
	// chunk ID.
	Metadatas(ctx context.Context) (map[string]ChunkMetadata, error)

	// Query returns up to k nearest chunks to the query vector.
	Query(ctx context.Context, vector []float32, k int) ([]QueryResult, error)

	Count(ctx context.Context) (int, error)
}

// Store manages collections within a single data directory.
type Store interface {
	// Get opens an existing collection. Returns a collection-not-found
	// error when no collection with that name exists.
	Get(ctx context.Context, name string) (Collection, error)

	// GetOrCreate opens a collection, creating it for root when
	// missing.
	GetOrCreate(ctx context.Context, name, root string) (Collection, error)

	List(ctx context.Context) ([]CollectionInfo, error)
	Delete(ctx context.Context, name string) error

	Close() error
}

// ErrDimensionMismatch reports a vector whose width differs from the
// store's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
)

const (
	dbFileName   = "scout.db"
	lockFileName = "scout.lock"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		root       TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chunks (
		collection      TEXT NOT NULL,
		id              TEXT NOT NULL,
		file_path       TEXT NOT NULL,
		collection_root TEXT NOT NULL,
		last_modified   INTEGER NOT NULL,
		chunk_index     INTEGER NOT NULL,
		content         TEXT NOT NULL,
		vector          BLOB NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks (collection, file_path)`,
}

// SQLiteStore is the Store implementation backed by a single SQLite
// database under a data directory. A file lock guards the directory so
// two processes cannot mutate the same index concurrently.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	lock   *flock.Flock
	dims   int
	metric string
	logger *slog.Logger

	open   map[string]*sqliteCollection
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// Open creates or opens the store in dataDir. The directory is created
// when missing. Returns a retryable locked error when another process
// holds the directory lock.
func Open(dataDir string, dims int, metric string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, scouterrors.StoreError("create data directory", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, scouterrors.StoreError("acquire data directory lock", err)
	}
	if !locked {
		return nil, scouterrors.New(scouterrors.ErrCodeStoreLocked,
			"data directory is locked by another process", nil).
			WithDetail("data_dir", dataDir)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, scouterrors.StoreError("open database", err)
	}

	// Single writer keeps SQLite lock contention out of the picture.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores some DSN parameters, so pragmas are
	// applied with explicit statements.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, scouterrors.StoreError("set pragma", err)
		}
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, scouterrors.StoreError("create schema", err)
		}
	}

	return &SQLiteStore{
		db:     db,
		lock:   lock,
		dims:   dims,
		metric: metric,
		logger: logger.With("component", "store"),
		open:   make(map[string]*sqliteCollection),
	}, nil
}

// Get opens an existing collection and rebuilds its vector index from
// the stored rows.
func (s *SQLiteStore) Get(ctx context.Context, name string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, scouterrors.New(scouterrors.ErrCodeStoreUnavailable, "store is closed", nil)
	}
	if col, ok := s.open[name]; ok {
		return col, nil
	}

	var root string
	var dims int
	err := s.db.QueryRowContext(ctx,
		`SELECT root, dimensions FROM collections WHERE name = ?`, name).Scan(&root, &dims)
	if err == sql.ErrNoRows {
		return nil, scouterrors.CollectionNotFound(name)
	}
	if err != nil {
		return nil, scouterrors.StoreError("look up collection", err)
	}
	if dims != s.dims {
		return nil, scouterrors.StoreError(
			fmt.Sprintf("collection %q was built with %d dimensions, store configured for %d", name, dims, s.dims), nil)
	}

	return s.load(ctx, name, root)
}

// GetOrCreate opens a collection, registering it for root when it does
// not exist yet.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, name, root string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, scouterrors.New(scouterrors.ErrCodeStoreUnavailable, "store is closed", nil)
	}
	if col, ok := s.open[name]; ok {
		return col, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, root, dimensions, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		name, root, s.dims, time.Now().Unix())
	if err != nil {
		return nil, scouterrors.StoreError("register collection", err)
	}

	return s.load(ctx, name, root)
}

// load builds the in-memory vector index from stored rows. Caller
// holds s.mu.
func (s *SQLiteStore) load(ctx context.Context, name, root string) (*sqliteCollection, error) {
	col := &sqliteCollection{
		name:  name,
		root:  root,
		db:    s.db,
		index: newVectorIndex(s.dims, s.metric),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vector FROM chunks WHERE collection = ?`, name)
	if err != nil {
		return nil, scouterrors.StoreError("load collection vectors", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, scouterrors.StoreError("scan vector row", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, scouterrors.StoreError("decode vector for chunk "+id, err)
		}
		if err := col.index.add(id, vec); err != nil {
			return nil, scouterrors.StoreError("rebuild vector index", err)
		}
		loaded++
	}
	if err := rows.Err(); err != nil {
		return nil, scouterrors.StoreError("iterate vector rows", err)
	}

	s.logger.Debug("collection opened", "collection", name, "chunks", loaded, "index", col.index.String())
	s.open[name] = col
	return col, nil
}

// List returns every registered collection with its chunk count.
func (s *SQLiteStore) List(ctx context.Context) ([]CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, scouterrors.New(scouterrors.ErrCodeStoreUnavailable, "store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name, c.root, COUNT(k.id)
		 FROM collections c
		 LEFT JOIN chunks k ON k.collection = c.name
		 GROUP BY c.name, c.root
		 ORDER BY c.name`)
	if err != nil {
		return nil, scouterrors.StoreError("list collections", err)
	}
	defer rows.Close()

	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Root, &info.ChunkCount); err != nil {
			return nil, scouterrors.StoreError("scan collection row", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a collection and all of its chunks.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return scouterrors.StoreError("delete collection", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return scouterrors.CollectionNotFound(name)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name); err != nil {
		return scouterrors.StoreError("delete collection chunks", err)
	}
	delete(s.open, name)
	return nil
}

// Close closes the database and releases the directory lock.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.open = nil

	dbErr := s.db.Close()
	if err := s.lock.Unlock(); err != nil {
		return scouterrors.StoreError("release data directory lock", err)
	}
	if dbErr != nil {
		return scouterrors.StoreError("close database", dbErr)
	}
	return nil
}

// sqliteCollection implements Collection over the shared database plus
// a per-collection vector index.
type sqliteCollection struct {
	name  string
	root  string
	db    *sql.DB
	index *vectorIndex
}

var _ Collection = (*sqliteCollection)(nil)

func (c *sqliteCollection) Name() string { return c.name }
func (c *sqliteCollection) Root() string { return c.root }

func (c *sqliteCollection) Add(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return scouterrors.StoreError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks
		 (collection, id, file_path, collection_root, last_modified, chunk_index, content, vector)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return scouterrors.StoreError("prepare insert", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			c.name, rec.ID,
			rec.Metadata.FilePath, rec.Metadata.CollectionRoot,
			rec.Metadata.LastModified, rec.Metadata.ChunkIndex,
			rec.Text, encodeVector(rec.Vector))
		if err != nil {
			return scouterrors.StoreError("insert chunk "+rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return scouterrors.StoreError("commit insert", err)
	}

	// Rows are committed; mirror them into the vector index.
	for _, rec := range records {
		if err := c.index.add(rec.ID, rec.Vector); err != nil {
			return scouterrors.StoreError("index chunk "+rec.ID, err)
		}
	}
	return nil
}

func (c *sqliteCollection) DeleteByFile(ctx context.Context, filePath string) (int, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE collection = ? AND file_path = ?`, c.name, filePath)
	if err != nil {
		return 0, scouterrors.StoreError("select chunks for file", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, scouterrors.StoreError("scan chunk id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, scouterrors.StoreError("iterate chunk ids", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND file_path = ?`, c.name, filePath); err != nil {
		return 0, scouterrors.StoreError("delete chunks for file", err)
	}
	c.index.remove(ids)
	return len(ids), nil
}

func (c *sqliteCollection) Metadatas(ctx context.Context) (map[string]ChunkMetadata, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, file_path, collection_root, last_modified, chunk_index
		 FROM chunks WHERE collection = ?`, c.name)
	if err != nil {
		return nil, scouterrors.StoreError("load chunk metadata", err)
	}
	defer rows.Close()

	metas := make(map[string]ChunkMetadata)
	for rows.Next() {
		var id string
		var meta ChunkMetadata
		if err := rows.Scan(&id, &meta.FilePath, &meta.CollectionRoot, &meta.LastModified, &meta.ChunkIndex); err != nil {
			return nil, scouterrors.StoreError("scan metadata row", err)
		}
		metas[id] = meta
	}
	return metas, rows.Err()
}

func (c *sqliteCollection) Query(ctx context.Context, vector []float32, k int) ([]QueryResult, error) {
	hits, err := c.index.search(vector, k)
	if err != nil {
		return nil, scouterrors.StoreError("vector search", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	stmt, err := c.db.PrepareContext(ctx,
		`SELECT content, file_path, collection_root, last_modified, chunk_index
		 FROM chunks WHERE collection = ? AND id = ?`)
	if err != nil {
		return nil, scouterrors.StoreError("prepare chunk lookup", err)
	}
	defer stmt.Close()

	results := make([]QueryResult, 0, len(hits))
	for _, hit := range hits {
		var res QueryResult
		res.ID = hit.id
		res.Distance = hit.distance
		res.Score = hit.score
		err := stmt.QueryRowContext(ctx, c.name, hit.id).Scan(
			&res.Text, &res.Metadata.FilePath, &res.Metadata.CollectionRoot,
			&res.Metadata.LastModified, &res.Metadata.ChunkIndex)
		if err == sql.ErrNoRows {
			// Index ahead of rows; skip the stale hit.
			continue
		}
		if err != nil {
			return nil, scouterrors.StoreError("load chunk "+hit.id, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *sqliteCollection) Count(ctx context.Context) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, c.name).Scan(&count)
	if err != nil {
		return 0, scouterrors.StoreError("count chunks", err)
	}
	return count, nil
}

// encodeVector packs float32s as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

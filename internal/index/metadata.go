// Package index implements incremental synchronization between a
// workspace's files and its chunk collection. A sync pass scans the
// workspace, diffs filesystem state against stored chunk metadata,
// and reconciles the differences.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
	"github.com/scoutmcp/scoutmcp/internal/store"
)

// chunkIDLength is the hex length of a chunk ID.
const chunkIDLength = 16

// BuildMetadata constructs chunk metadata for a file under root. The
// stored path is relative to root and slash-separated, so joining it
// back onto the collection root always recovers the absolute path. A
// file outside root is rejected rather than silently attributed to the
// wrong collection.
//
// indexedAt becomes the metadata timestamp. Sync planning compares
// this indexing-time snapshot against current file mtimes, so it must
// be taken before the file's content is read.
func BuildMetadata(root, filePath string, indexedAt time.Time, chunkIndex int) (store.ChunkMetadata, error) {
	rel, err := filepath.Rel(root, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return store.ChunkMetadata{}, scouterrors.New(
			scouterrors.ErrCodePathNotUnderRoot,
			fmt.Sprintf("file %s is not under workspace root %s", filePath, root), err)
	}

	return store.ChunkMetadata{
		FilePath:       filepath.ToSlash(rel),
		CollectionRoot: root,
		LastModified:   indexedAt.UnixNano(),
		ChunkIndex:     chunkIndex,
	}, nil
}

// BuildChunkID derives a chunk's identity from its content and
// position. Re-indexing unchanged content produces the same IDs, so
// chunk identity is stable across sync passes and machines.
func BuildChunkID(relPath string, chunkIndex int, text string) string {
	h := sha256.New()
	h.Write([]byte(relPath))
	h.Write([]byte{0})
	h.Write([]byte(fmt.Sprintf("%d", chunkIndex)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:chunkIDLength]
}

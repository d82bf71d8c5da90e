package index

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/scoutmcp/scoutmcp/internal/scanner"
	"github.com/scoutmcp/scoutmcp/internal/store"
)

// SyncPlan lists the file-level work a sync pass must perform. Paths
// are relative to the workspace root, matching stored chunk metadata.
// The three sets are disjoint: a path appears in at most one of them.
type SyncPlan struct {
	Modified []string // on disk and indexed, but touched since indexing
	Deleted  []string // indexed but no longer present on disk
	New      []string // eligible on disk but never indexed
}

// Empty reports whether the plan requires no work.
func (p *SyncPlan) Empty() bool {
	return len(p.Modified) == 0 && len(p.Deleted) == 0 && len(p.New) == 0
}

// Total returns the number of files the plan touches.
func (p *SyncPlan) Total() int {
	return len(p.Modified) + len(p.Deleted) + len(p.New)
}

// BuildPlan diffs stored chunk metadata against the files currently
// eligible on disk.
//
// Stored metadata is first collapsed to one entry per file keeping the
// newest recorded timestamp; every chunk of a file normally carries the
// same indexing-time snapshot. A file is modified when its on-disk
// mtime is strictly newer than the time it was last indexed; new when
// it is on disk with no stored chunks. A file missing from the scan is
// deleted only after a stat under root confirms it no longer exists;
// one that still exists but was not scanned, because its directory
// failed to read or it stopped matching the eligibility rules, keeps
// its chunks untouched.
func BuildPlan(root string, stored map[string]store.ChunkMetadata, current []*scanner.FileInfo) *SyncPlan {
	indexedAt := make(map[string]int64)
	for _, meta := range stored {
		if prev, ok := indexedAt[meta.FilePath]; !ok || meta.LastModified > prev {
			indexedAt[meta.FilePath] = meta.LastModified
		}
	}

	onDisk := make(map[string]int64, len(current))
	for _, file := range current {
		onDisk[file.Path] = file.ModTime.UnixNano()
	}

	plan := &SyncPlan{}
	for path, lastIndexed := range indexedAt {
		diskMtime, scanned := onDisk[path]
		switch {
		case !scanned:
			if fileGone(root, path) {
				plan.Deleted = append(plan.Deleted, path)
			}
		case diskMtime > lastIndexed:
			plan.Modified = append(plan.Modified, path)
		}
	}
	for path := range onDisk {
		if _, indexed := indexedAt[path]; !indexed {
			plan.New = append(plan.New, path)
		}
	}

	sort.Strings(plan.Modified)
	sort.Strings(plan.Deleted)
	sort.Strings(plan.New)
	return plan
}

// fileGone reports whether a deletion candidate is confirmed absent.
// Any stat outcome other than a definite not-exist keeps the file's
// chunks, so a transient read failure never cascades into deletions.
func fileGone(root, relPath string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(relPath)))
	return errors.Is(err, fs.ErrNotExist)
}

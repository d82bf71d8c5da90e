// Package scanner discovers indexable files in a workspace.
// It walks the directory tree and applies the eligibility rules
// (extension allowlist, ignore patterns, size ceiling) to every candidate.
package scanner

import (
	"time"
)

// FileInfo contains metadata about a discovered eligible file.
type FileInfo struct {
	Path    string    // Relative to workspace root
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// Result is returned from the scanner channel.
// Exactly one of File and Err is set; a terminal walk failure arrives
// as the final Result before the channel closes.
type Result struct {
	File *FileInfo
	Err  error
}

// Summary aggregates skip counters from one walk. Skips are an
// observability signal, not errors.
type Summary struct {
	Eligible         int
	SkippedTooLarge  int
	SkippedIgnored   int
	SkippedExtension int
	FileErrors       int
}

// Rules holds the eligibility configuration for one scan.
type Rules struct {
	// AllowedExtensions is the lowercased extension allowlist (with dot).
	AllowedExtensions []string

	// IgnorePatterns are the path patterns excluded from indexing.
	IgnorePatterns []string

	// MaxFileSize is the size ceiling in bytes.
	MaxFileSize int64

	allowed map[string]struct{}
}

// extensionAllowed reports whether the lowercased extension is in the
// allowlist. The lookup set is built lazily from AllowedExtensions.
func (r *Rules) extensionAllowed(ext string) bool {
	if r.allowed == nil {
		r.allowed = make(map[string]struct{}, len(r.AllowedExtensions))
		for _, e := range r.AllowedExtensions {
			r.allowed[e] = struct{}{}
		}
	}
	_, ok := r.allowed[ext]
	return ok
}

package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
)

// Scanner walks a workspace root and streams eligible files.
type Scanner struct {
	root   string
	rules  *Rules
	logger *slog.Logger

	summary Summary
}

// New creates a Scanner for root with the given rules.
func New(root string, rules *Rules, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		root:   root,
		rules:  rules,
		logger: logger.With("component", "scanner"),
	}
}

// Summary returns counters from the most recent scan. Only valid after
// the result channel from Scan has been drained.
func (s *Scanner) Summary() Summary {
	return s.summary
}

// Scan walks the workspace and sends a Result for each eligible file.
// The channel is closed when the walk finishes or ctx is cancelled.
// If the root itself cannot be read, a single Result carrying a
// workspace-unavailable error is sent before the channel closes.
func (s *Scanner) Scan(ctx context.Context) <-chan Result {
	results := make(chan Result, 64)

	go func() {
		defer close(results)
		s.summary = Summary{}

		if _, err := os.Stat(s.root); err != nil {
			results <- Result{Err: scouterrors.WorkspaceUnavailable(s.root, err)}
			return
		}

		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				// An error on the root itself means the workspace cannot
				// be enumerated at all. Skipping it would make the scan
				// report zero files and plan every indexed file as gone.
				if path == s.root {
					return scouterrors.WorkspaceUnavailable(s.root, err)
				}
				s.summary.FileErrors++
				s.logger.Warn("walk error, skipping entry", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != s.root && s.pruneDir(d.Name()) {
					return fs.SkipDir
				}
				return nil
			}

			s.visit(ctx, path, results)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			if scouterrors.GetCode(err) == scouterrors.ErrCodeWorkspaceUnavailable {
				results <- Result{Err: err}
				return
			}
			results <- Result{Err: scouterrors.New(scouterrors.ErrCodeSyncFailed, "workspace walk aborted", err)}
		}
	}()

	return results
}

// ScanAll drains a full scan into a slice, returning the first fatal
// error encountered. Per-file ineligibility is counted, not returned.
func (s *Scanner) ScanAll(ctx context.Context) ([]*FileInfo, error) {
	var files []*FileInfo
	for res := range s.Scan(ctx) {
		if res.Err != nil {
			return nil, res.Err
		}
		files = append(files, res.File)
	}
	return files, ctx.Err()
}

func (s *Scanner) visit(ctx context.Context, path string, results chan<- Result) {
	if err := CheckEligible(path, s.rules); err != nil {
		s.count(err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		s.summary.FileErrors++
		s.logger.Warn("stat failed after eligibility check", "path", path, "error", err)
		return
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		s.summary.FileErrors++
		s.logger.Warn("relative path computation failed", "path", path, "error", err)
		return
	}

	s.summary.Eligible++
	select {
	case results <- Result{File: &FileInfo{
		Path:    filepath.ToSlash(rel),
		AbsPath: path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}}:
	case <-ctx.Done():
	}
}

func (s *Scanner) count(err error) {
	var ie *IneligibleError
	if !errors.As(err, &ie) {
		s.summary.FileErrors++
		return
	}
	switch ie.Reason {
	case ReasonExtensionNotAllowed:
		s.summary.SkippedExtension++
	case ReasonPathIgnored:
		s.summary.SkippedIgnored++
	case ReasonTooLarge:
		s.summary.SkippedTooLarge++
	case ReasonStatError:
		s.summary.FileErrors++
		s.logger.Warn("size check failed", "path", ie.Path, "error", ie.Err)
	}
}

// pruneDir reports whether an entire directory can be skipped because
// its name alone matches a simple ignore pattern. Wildcard and
// path-qualified patterns still apply per file and are not pruned here.
func (s *Scanner) pruneDir(name string) bool {
	for _, pattern := range s.rules.IgnorePatterns {
		if strings.HasPrefix(pattern, "*") || strings.Contains(pattern, "/") {
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}

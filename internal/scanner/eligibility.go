package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reason explains why a path was rejected for indexing.
type Reason int

const (
	// ReasonNotAFile means the path does not reference a regular file.
	ReasonNotAFile Reason = iota
	// ReasonExtensionNotAllowed means the extension is not in the allowlist.
	ReasonExtensionNotAllowed
	// ReasonPathIgnored means the path matched an ignore pattern.
	ReasonPathIgnored
	// ReasonTooLarge means the file exceeds the size ceiling.
	ReasonTooLarge
	// ReasonStatError means the size check itself failed.
	ReasonStatError
)

// String returns a human-readable description of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNotAFile:
		return "not a file"
	case ReasonExtensionNotAllowed:
		return "extension not allowed"
	case ReasonPathIgnored:
		return "path matches ignore pattern"
	case ReasonTooLarge:
		return "file too large"
	case ReasonStatError:
		return "stat error"
	default:
		return "unknown"
	}
}

// IneligibleError reports that a path failed an eligibility check.
type IneligibleError struct {
	Path   string
	Reason Reason
	Err    error // underlying cause for ReasonStatError
}

// Error implements the error interface.
func (e *IneligibleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *IneligibleError) Unwrap() error {
	return e.Err
}

// CheckEligible decides whether path should participate in indexing.
// Checks short-circuit in order: regular file, extension allowlist,
// ignore patterns, size ceiling. Returns nil when the file is eligible,
// or an *IneligibleError naming the first failed check.
func CheckEligible(path string, rules *Rules) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return &IneligibleError{Path: path, Reason: ReasonNotAFile, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !rules.extensionAllowed(ext) {
		return &IneligibleError{Path: path, Reason: ReasonExtensionNotAllowed}
	}

	if ShouldIgnore(path, rules.IgnorePatterns) {
		return &IneligibleError{Path: path, Reason: ReasonPathIgnored}
	}

	// Re-stat for the size check: the file may have changed or vanished
	// since the regular-file check, and a stat failure here is its own
	// reason rather than "not a file".
	sized, err := os.Stat(path)
	if err != nil {
		return &IneligibleError{Path: path, Reason: ReasonStatError, Err: err}
	}
	if sized.Size() > rules.MaxFileSize {
		return &IneligibleError{Path: path, Reason: ReasonTooLarge}
	}

	return nil
}

// ShouldIgnore reports whether path matches any ignore pattern.
//
// A pattern starting with '*' is a suffix match against the lowercased
// full path (so "*.log" matches any path ending in ".log"). Any other
// pattern matches when it equals a single path segment exactly, equals
// the base name, or, when the pattern contains a path separator, occurs
// as a substring of the lowercased path. Any one rule matching suffices.
func ShouldIgnore(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	lowered := strings.ToLower(slashed)
	segments := strings.Split(slashed, "/")
	base := filepath.Base(path)

	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "*") {
			if strings.HasSuffix(lowered, strings.ToLower(pattern[1:])) {
				return true
			}
			continue
		}

		if base == pattern {
			return true
		}
		for _, seg := range segments {
			if seg == pattern {
				return true
			}
		}
		if strings.Contains(pattern, "/") && strings.Contains(lowered, strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}

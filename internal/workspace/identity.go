// Package workspace derives stable collection identities from workspace paths.
//
// Every workspace maps to exactly one collection in the store. The identity
// is a sanitized directory-name slug plus a short fingerprint of the full
// absolute path, so same-named directories at different locations never
// share a collection.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// FingerprintLength is the number of hex characters kept from the path hash.
const FingerprintLength = 8

// Identity identifies the collection backing one workspace.
type Identity struct {
	// Slug is the sanitized workspace directory name.
	Slug string

	// Fingerprint disambiguates same-named workspaces at different paths.
	Fingerprint string
}

// String returns the full collection identifier, slug_fingerprint.
// The result contains only alphanumerics and underscores and is never empty.
func (id Identity) String() string {
	return id.Slug + "_" + id.Fingerprint
}

// Identify derives the collection identity for a workspace path.
// It is a pure function: identical absolute paths always yield identical
// identities, and the path is not required to exist.
func Identify(workspacePath string) Identity {
	abs, err := filepath.Abs(workspacePath)
	if err != nil {
		// filepath.Abs only fails when the working directory is gone;
		// fall back to the raw path so identity stays deterministic.
		abs = workspacePath
	}

	sum := sha256.Sum256([]byte(abs))

	return Identity{
		Slug:        slugify(filepath.Base(abs)),
		Fingerprint: hex.EncodeToString(sum[:])[:FingerprintLength],
	}
}

// slugify lowercases the directory name, maps '-' and ' ' to '_', and
// strips every other character that is not alphanumeric or underscore.
func slugify(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r == '-' || r == ' ':
			b.WriteRune('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}

	return b.String()
}

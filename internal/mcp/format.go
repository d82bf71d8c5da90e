package mcp

import (
	"fmt"
	"strings"

	"github.com/scoutmcp/scoutmcp/internal/store"
)

// maxSnippetLength bounds how much chunk text a result shows.
const maxSnippetLength = 1200

// FormatSearchResults renders hits as markdown for the client. File
// paths are shown as stored: relative to the workspace root.
func FormatSearchResults(query string, results []store.QueryResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Found %d results for query: %q\n\n", len(results), query)
	for i, res := range results {
		fmt.Fprintf(&sb, "## Result %d (similarity: %.1f%%)\n", i+1, res.Score*100)
		fmt.Fprintf(&sb, "**File:** %s\n", res.Metadata.FilePath)
		fmt.Fprintf(&sb, "**Chunk:** %d\n\n", res.Metadata.ChunkIndex)
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", snippet(res.Text))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatNoResults explains an empty result set and lists what is
// indexed so the caller can tell "nothing matched" from "nothing is
// indexed".
func FormatNoResults(query string, collections []store.CollectionInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "No results found for query: %q\n", query)
	if len(collections) == 0 {
		sb.WriteString("\nNo collections are indexed yet.")
		return sb.String()
	}

	sb.WriteString("\nIndexed collections:\n")
	for _, info := range collections {
		fmt.Fprintf(&sb, "- %s (%d chunks, root: %s)\n", info.Name, info.ChunkCount, info.Root)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func snippet(text string) string {
	if len(text) <= maxSnippetLength {
		return text
	}
	return text[:maxSnippetLength] + "\n... (truncated)"
}

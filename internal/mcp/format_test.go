package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scoutmcp/scoutmcp/internal/store"
)

func TestFormatSearchResults(t *testing.T) {
	results := []store.QueryResult{
		{
			ID:   "aaaa",
			Text: "func main() {}",
			Metadata: store.ChunkMetadata{
				FilePath:   "cmd/main.go",
				ChunkIndex: 0,
			},
			Score: 0.923,
		},
		{
			ID:   "bbbb",
			Text: "helper notes",
			Metadata: store.ChunkMetadata{
				FilePath:   "docs/notes.md",
				ChunkIndex: 2,
			},
			Score: 0.514,
		},
	}

	out := FormatSearchResults("main entry", results)

	assert.Contains(t, out, `Found 2 results for query: "main entry"`)
	assert.Contains(t, out, "## Result 1 (similarity: 92.3%)")
	assert.Contains(t, out, "## Result 2 (similarity: 51.4%)")
	assert.Contains(t, out, "**File:** cmd/main.go")
	assert.Contains(t, out, "**File:** docs/notes.md")
	assert.Contains(t, out, "**Chunk:** 2")
	assert.Contains(t, out, "```\nfunc main() {}\n```")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestFormatSearchResults_SnippetTruncation(t *testing.T) {
	long := strings.Repeat("x", maxSnippetLength+100)
	results := []store.QueryResult{
		{Text: long, Metadata: store.ChunkMetadata{FilePath: "big.txt"}},
	}

	out := FormatSearchResults("q", results)

	assert.Contains(t, out, "... (truncated)")
	assert.NotContains(t, out, long)
}

func TestFormatNoResults_EmptyStore(t *testing.T) {
	out := FormatNoResults("nothing", nil)

	assert.Contains(t, out, `No results found for query: "nothing"`)
	assert.Contains(t, out, "No collections are indexed yet.")
}

func TestFormatNoResults_ListsCollections(t *testing.T) {
	collections := []store.CollectionInfo{
		{Name: "proj_abcd1234", Root: "/ws/proj", ChunkCount: 42},
	}

	out := FormatNoResults("nothing", collections)

	assert.Contains(t, out, "Indexed collections:")
	assert.Contains(t, out, "- proj_abcd1234 (42 chunks, root: /ws/proj)")
}

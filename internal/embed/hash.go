package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
)

// HashEmbedder produces deterministic embeddings from token and
// character-trigram hashing. It needs no network and no model files,
// trading semantic quality for reproducibility: the same text always
// maps to the same vector across runs and machines.
type HashEmbedder struct{}

const (
	tokenWeight   = 0.7
	trigramWeight = 0.3
	trigramSize   = 3
)

// codeStopWords are language keywords that carry no search signal.
var codeStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

var wordRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewHashEmbedder creates the default embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed generates a unit-length vector for text. Empty or
// whitespace-only text yields the zero vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, Dimensions), nil
	}

	vector := make([]float32, Dimensions)

	for _, token := range tokenize(trimmed) {
		if codeStopWords[token] {
			continue
		}
		vector[bucket(token)] += tokenWeight
	}

	flat := flatten(trimmed)
	for i := 0; i+trigramSize <= len(flat); i++ {
		vector[bucket(flat[i:i+trigramSize])] += trigramWeight
	}

	return normalize(vector), nil
}

// EmbedBatch embeds texts in order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		results[i] = emb
	}
	return results, nil
}

// Dimensions returns the vector width.
func (e *HashEmbedder) Dimensions() int {
	return Dimensions
}

// ModelName returns the model identifier.
func (e *HashEmbedder) ModelName() string {
	return "hash-v1"
}

// tokenize splits text into lowercase word parts, breaking camelCase
// and snake_case identifiers so "parseJSONFile" and "parse_json_file"
// produce the same tokens.
func tokenize(text string) []string {
	var tokens []string
	for _, word := range wordRegex.FindAllString(text, -1) {
		for _, part := range strings.Split(word, "_") {
			for _, sub := range splitCamel(part) {
				tokens = append(tokens, strings.ToLower(sub))
			}
		}
	}
	return tokens
}

// splitCamel splits on lower-to-upper transitions and acronym
// boundaries ("HTTPServer" becomes "HTTP", "Server").
func splitCamel(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if (prevIsLower || nextIsLower) && current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// flatten lowercases text and strips everything but letters and digits
// so trigrams cross token boundaries consistently.
func flatten(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func bucket(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(Dimensions))
}

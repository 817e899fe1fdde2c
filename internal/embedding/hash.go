package embedding

import (
	"context"
	"hash/fnv"
)

const (
	// DefaultDimensions matches the vector store collection size.
	DefaultDimensions = 1536
	// DefaultWindow is the width, in characters, of each hashed sample.
	DefaultWindow = 10
)

// HashEmbedder derives vectors from the text itself without any network call.
//
// For a text of L runes and D dimensions it takes n = min(L, D) windows.
// Window i starts at rune i*step, where step = max(1, L/D), and spans up to
// Window runes. Each window's UTF-8 bytes are hashed with 64-bit FNV-1a and
// the entry is (hash mod 1000) / 1000. Entries n..D-1 stay zero.
type HashEmbedder struct {
	dimensions int
	window     int
}

// NewHashEmbedder returns a deterministic embedder. Non-positive arguments use the defaults.
func NewHashEmbedder(dimensions, window int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &HashEmbedder{dimensions: dimensions, window: window}
}

// Embed returns the hash-derived vector of text.
func (e *HashEmbedder) Embed(_ context.Context, text string) []float32 {
	return e.Vector(text)
}

// Vector is Embed without a context.
func (e *HashEmbedder) Vector(text string) []float32 {
	vec := make([]float32, e.dimensions)
	runes := []rune(text)
	n := min(len(runes), e.dimensions)
	step := max(1, len(runes)/e.dimensions)
	h := fnv.New64a()
	for i := 0; i < n; i++ {
		start := i * step
		end := min(start+e.window, len(runes))
		h.Reset()
		_, _ = h.Write([]byte(string(runes[start:end])))
		vec[i] = float32(h.Sum64()%1000) / 1000
	}
	return vec
}

// EmbedBatch embeds each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

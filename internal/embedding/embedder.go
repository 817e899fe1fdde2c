// Package embedding turns passages and queries into fixed-length vectors.
package embedding

import "context"

// Embedder produces vector embeddings for text. Embedding never fails: every
// implementation returns a vector of exactly Dimensions() entries.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
	EmbedBatch(ctx context.Context, texts []string) [][]float32
	Dimensions() int
	Close() error
}

// embedEach embeds texts one at a time, in order.
func embedEach(ctx context.Context, e Embedder, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.Embed(ctx, text)
	}
	return out
}

// Package indexer splits documents into passages and feeds them through the
// embedding and vector storage pipeline.
package indexer

import (
	"unicode/utf8"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// DefaultChunkSize is the passage width in characters.
const DefaultChunkSize = 500

// Chunker splits text into fixed-width, non-overlapping passages.
// Width is measured in runes and the text is never normalised, so joining
// the passages in order reproduces the input exactly.
type Chunker struct {
	chunkSize int
}

// NewChunker creates a chunker with the given size in characters.
// A size <= 0 falls back to DefaultChunkSize.
func NewChunker(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{chunkSize: chunkSize}
}

// Size returns the configured chunk width.
func (c *Chunker) Size() int {
	return c.chunkSize
}

// Chunk splits text into passages belonging to sourceID. Empty text yields nil.
func (c *Chunker) Chunk(sourceID, text string) []models.Passage {
	if text == "" {
		return nil
	}
	passages := make([]models.Passage, 0, utf8.RuneCountInString(text)/c.chunkSize+1)
	start, runes := 0, 0
	for i := range text {
		if runes == c.chunkSize {
			passages = append(passages, newPassage(sourceID, text[start:i], len(passages), runes))
			start, runes = i, 0
		}
		runes++
	}
	return append(passages, newPassage(sourceID, text[start:], len(passages), runes))
}

func newPassage(sourceID, text string, index, size int) models.Passage {
	return models.Passage{Text: text, SourceID: sourceID, Index: index, Size: size}
}

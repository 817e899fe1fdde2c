// Package models defines core data structures for passages, vector records, jobs and answers.
package models

import "time"

// ProcessingCompleted is the only status recorded for a document, since ingestion
// either stores every record or fails as a whole.
const ProcessingCompleted = "completed"

// Document is the metadata row kept for every successfully ingested upload.
type Document struct {
	ID               string    `json:"id" db:"id"`
	FileName         string    `json:"file_name" db:"file_name"`
	FileSize         int64     `json:"file_size" db:"file_size"`
	ContentType      string    `json:"content_type" db:"content_type"`
	SourceID         string    `json:"source_id" db:"source_id"`
	ChunksCount      int       `json:"chunks_count" db:"chunks_count"`
	ProcessingStatus string    `json:"processing_status" db:"processing_status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Passage is a bounded slice of a source document; the unit of retrieval.
type Passage struct {
	Text     string
	SourceID string
	Index    int
	Size     int
}

// Payload is the metadata stored next to each vector.
type Payload struct {
	Text     string `json:"text"`
	SourceID string `json:"source"`
	Index    int    `json:"chunk_index"`
	Size     int    `json:"chunk_size"`
}

// PayloadOf converts a passage into its stored payload.
func PayloadOf(p Passage) Payload {
	return Payload{Text: p.Text, SourceID: p.SourceID, Index: p.Index, Size: p.Size}
}

// VectorRecord is one stored passage vector. Records with the same ID overwrite each other.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	Payload Payload `json:"payload"`
	Score   float64 `json:"score"`
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	SourceID          string    `json:"source_id"`
	ChunksProcessed   int       `json:"chunks_processed"`
	EmbeddingsCreated int       `json:"embeddings_created"`
	Document          *Document `json:"document,omitempty"`
}

// Package storage persists ingestion metadata and user feedback.
package storage

import (
	"context"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// DocumentStore records which uploads have been ingested.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
}

// FeedbackSink is an append-only store of feedback entries.
type FeedbackSink interface {
	AppendFeedback(ctx context.Context, entry *models.FeedbackEntry) error
}

// FeedbackStore is a FeedbackSink that can also be read back.
type FeedbackStore interface {
	FeedbackSink
	ListFeedback(ctx context.Context, offset, limit int) ([]*models.FeedbackEntry, error)
	CountFeedback(ctx context.Context) (int64, error)
}

// Storage is the full metadata store.
type Storage interface {
	DocumentStore
	FeedbackStore
	Close() error
}

package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/embedding"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/extract"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/ids"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Indexer runs the ingestion pipeline: chunk, embed, store.
type Indexer struct {
	chunker   *Chunker
	embedder  embedding.Embedder
	store     vector.Store
	documents storage.DocumentStore
	extractor *extract.Extractor
	logger    *zap.Logger
	now       func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithDocumentStore records a metadata row for every ingested upload.
func WithDocumentStore(docs storage.DocumentStore) IndexerOption {
	return func(idx *Indexer) { idx.documents = docs }
}

// WithExtractor sets the extractor used by IngestFile and IngestPath.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer writing chunkSize-wide passages to store.
func NewIndexer(chunkSize int, embedder embedding.Embedder, store vector.Store, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		chunker:   NewChunker(chunkSize),
		embedder:  embedder,
		store:     store,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// Ingest chunks text, embeds every passage in order and upserts all records in
// one batch. Blank text is replaced by the sample catalogue. A rejected batch
// fails the whole ingestion.
func (idx *Indexer) Ingest(ctx context.Context, sourceID, text string) (*models.IngestResult, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, fmt.Errorf("%w: source id is required", models.ErrValidation)
	}
	text, substituted := textOrFallback(text)
	if substituted {
		idx.logger.Info("extracted text empty, using sample catalogue", zap.String("source_id", sourceID))
	}

	passages := idx.chunker.Chunk(sourceID, text)
	records := make([]models.VectorRecord, 0, len(passages))
	for _, p := range passages {
		records = append(records, models.VectorRecord{
			ID:      ids.ChunkID(sourceID, p.Index),
			Vector:  idx.embedder.Embed(ctx, p.Text),
			Payload: models.PayloadOf(p),
		})
	}
	if err := idx.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("%w: failed to store %d vectors for %s: %w", models.ErrStorage, len(records), sourceID, err)
	}
	idx.logger.Debug("source ingested", zap.String("source_id", sourceID), zap.Int("chunks", len(records)))
	return &models.IngestResult{
		SourceID:          sourceID,
		ChunksProcessed:   len(passages),
		EmbeddingsCreated: len(records),
	}, nil
}

// IngestFile extracts an uploaded file and ingests it under its file name.
// On success a metadata row is recorded when a document store is configured;
// failing to record it does not undo the ingestion.
func (idx *Indexer) IngestFile(ctx context.Context, fileName string, content []byte, contentType string) (*models.IngestResult, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: no file selected", models.ErrValidation)
	}
	text, err := idx.extractor.ExtractBytes(content, fileName, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrExtraction, fileName, err)
	}
	res, err := idx.Ingest(ctx, fileName, text)
	if err != nil {
		return nil, err
	}
	res.Document = &models.Document{
		ID:               uuid.New().String(),
		FileName:         fileName,
		FileSize:         int64(len(content)),
		ContentType:      contentType,
		SourceID:         res.SourceID,
		ChunksCount:      res.ChunksProcessed,
		ProcessingStatus: models.ProcessingCompleted,
		CreatedAt:        idx.now(),
	}
	if idx.documents != nil {
		if err := idx.documents.CreateDocument(ctx, res.Document); err != nil {
			idx.logger.Warn("failed to record document metadata",
				zap.String("file_name", fileName), zap.Error(err))
		}
	}
	return res, nil
}

// IngestPath reads a file from disk and ingests it like an upload of the same name.
func (idx *Indexer) IngestPath(ctx context.Context, path string, allowedExts []string) (*models.IngestResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("%w: extension %q not in allowed list", models.ErrValidation, ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", models.ErrValidation, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return idx.IngestFile(ctx, ids.SourceID(path), content, "")
}

// Supports reports whether the configured extractor can read name.
func (idx *Indexer) Supports(name string) bool {
	return idx.extractor.Supports(name)
}

// ChunkSize returns the passage width.
func (idx *Indexer) ChunkSize() int {
	return idx.chunker.Size()
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

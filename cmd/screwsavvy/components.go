package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/embedding"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/feedback"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/indexer"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/inference"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/poller"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/search"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"go.uber.org/zap"
)

// Components is the wired application.
type Components struct {
	Storage   *storage.SQLiteStorage
	Feedback  storage.FeedbackStore
	Vectors   vector.Store
	Embedder  embedding.Embedder
	Engine    *search.Engine
	Indexer   *indexer.Indexer
	Recorder  *feedback.Recorder
	jsonSink  *storage.JSONFileSink
	closed    bool
}

// Close releases every component that holds a resource.
func (c *Components) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Vectors != nil {
		_ = c.Vectors.Close()
	}
	if c.jsonSink != nil {
		_ = c.jsonSink.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, Feedback: store}

	switch cfg.Storage.FeedbackSink {
	case "json":
		sink, err := storage.NewJSONFileSink(cfg.Storage.FeedbackPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize feedback file: %w", err)
		}
		c.jsonSink = sink
		c.Feedback = sink
	case "sqlite", "":
	default:
		c.Close()
		return nil, fmt.Errorf("unknown feedback sink: %s (supported: sqlite, json)", cfg.Storage.FeedbackSink)
	}

	vectors, err := vector.NewStore(cfg.Vector, cfg.Embedding.Dimensions)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	c.Vectors = vectors
	if q, ok := vectors.(*vector.QdrantStore); ok {
		bootCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Vector.TimeoutSecs)*time.Second)
		if err := q.EnsureCollection(bootCtx); err != nil {
			logger.Warn("vector collection bootstrap failed",
				zap.String("collection", cfg.Vector.Collection), zap.Error(err))
		}
		cancel()
	}
	logger.Info("vector store initialized",
		zap.String("type", vector.TypeOf(vectors)),
		zap.String("collection", cfg.Vector.Collection),
		zap.Int("dimensions", cfg.Embedding.Dimensions))

	if cfg.Inference.APIToken == "" {
		logger.Warn("no inference API token configured; answers will fail and embeddings use the local hash")
	}
	client := inference.NewClient(inference.Config{
		BaseURL:      cfg.Inference.BaseURL,
		APIToken:     cfg.Inference.APIToken,
		ModelVersion: cfg.Inference.ModelVersion,
		Timeout:      time.Duration(cfg.Inference.TimeoutSecs) * time.Second,
	})
	runner := poller.New(client,
		poller.WithInterval(time.Duration(cfg.Inference.PollIntervalMs)*time.Millisecond),
		poller.WithLogger(logger),
	)

	embedder := embedding.NewInferenceEmbedder(
		embedding.NewHashEmbedder(cfg.Embedding.Dimensions, cfg.Embedding.Window),
		runner,
		embedding.InferenceConfig{
			PromptChars: cfg.Embedding.PromptChars,
			MaxLength:   cfg.Embedding.MaxLength,
			Temperature: cfg.Embedding.Temperature,
			MaxAttempts: cfg.Inference.EmbeddingMaxAttempts,
		},
		embedding.WithLogger(logger),
	)
	c.Embedder = embedder

	c.Engine = search.NewEngine(embedder, vectors, runner, search.SettingsFromConfig(cfg), search.WithLogger(logger))
	c.Indexer = indexer.NewIndexer(cfg.Chunking.ChunkSize, embedder, vectors,
		indexer.WithDocumentStore(store),
		indexer.WithLogger(logger),
	)
	c.Recorder = feedback.NewRecorder(c.Feedback, feedback.WithLogger(logger))
	return c, nil
}

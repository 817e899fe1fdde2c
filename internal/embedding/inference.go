package embedding

import (
	"context"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/poller"
	"go.uber.org/zap"
)

// PromptPrefix introduces the passage in the embedding side-call prompt.
const PromptPrefix = "Convert this text to numerical representation for similarity search: "

// JobRunner runs one inference job to a terminal outcome.
type JobRunner interface {
	Run(ctx context.Context, req *models.GenerationRequest, maxAttempts int) poller.Outcome
}

// InferenceConfig tunes the side call made for every embedding.
type InferenceConfig struct {
	PromptChars int
	MaxLength   int
	Temperature float64
	MaxAttempts int
}

// InferenceEmbedder submits every text to the inference service and waits for
// the job, then returns the hash-derived vector of the text. The model output
// is never read into the vector; the job outcome only decides what gets logged.
type InferenceEmbedder struct {
	hash   *HashEmbedder
	runner JobRunner
	cfg    InferenceConfig
	logger *zap.Logger
}

// InferenceOption configures an InferenceEmbedder.
type InferenceOption func(*InferenceEmbedder)

// WithLogger sets a logger for degraded-path warnings.
func WithLogger(l *zap.Logger) InferenceOption {
	return func(e *InferenceEmbedder) { e.logger = l }
}

// NewInferenceEmbedder wraps hash with an inference side call run by runner.
func NewInferenceEmbedder(hash *HashEmbedder, runner JobRunner, cfg InferenceConfig, opts ...InferenceOption) *InferenceEmbedder {
	if cfg.PromptChars <= 0 {
		cfg.PromptChars = 500
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	e := &InferenceEmbedder{hash: hash, runner: runner, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Embed runs the side call and returns the hash-derived vector of text.
func (e *InferenceEmbedder) Embed(ctx context.Context, text string) []float32 {
	out := e.runner.Run(ctx, e.request(text), e.cfg.MaxAttempts)
	switch out.Kind {
	case poller.Succeeded:
		e.logger.Debug("embedding job succeeded", zap.String("job_id", out.JobID), zap.Int("attempts", out.Attempts))
	case poller.Failed, poller.TimedOut, poller.SubmissionFailed:
		e.logger.Warn("embedding degraded to local hash",
			zap.String("outcome", out.Kind.String()),
			zap.String("job_id", out.JobID),
			zap.Error(out.Err()),
		)
	}
	return e.hash.Vector(text)
}

func (e *InferenceEmbedder) request(text string) *models.GenerationRequest {
	runes := []rune(text)
	if len(runes) > e.cfg.PromptChars {
		runes = runes[:e.cfg.PromptChars]
	}
	return &models.GenerationRequest{
		Prompt:      PromptPrefix + string(runes),
		MaxLength:   e.cfg.MaxLength,
		Temperature: e.cfg.Temperature,
	}
}

// EmbedBatch embeds each text sequentially.
func (e *InferenceEmbedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *InferenceEmbedder) Dimensions() int {
	return e.hash.Dimensions()
}

// Close releases the underlying hash embedder.
func (e *InferenceEmbedder) Close() error {
	return e.hash.Close()
}

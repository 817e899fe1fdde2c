// Package search answers questions from retrieved catalogue passages.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/embedding"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/poller"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"go.uber.org/zap"
)

// State is a step of the per-query state machine.
type State string

const (
	StateReceived       State = "received"
	StateEmbeddingReady State = "embedding_ready"
	StateRetrieved      State = "retrieved"
	StatePromptBuilt    State = "prompt_built"
	StateGenerating     State = "generating"
	StateAnswered       State = "answered"
	StateFailed         State = "failed"
)

// JobRunner runs one generation job to a terminal outcome.
type JobRunner interface {
	Run(ctx context.Context, req *models.GenerationRequest, maxAttempts int) poller.Outcome
}

// Settings are the retrieval and generation parameters of every query.
type Settings struct {
	Limit             int
	ScoreThreshold    float64
	MaxLength         int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
	MaxAttempts       int
}

// SettingsFromConfig picks the query settings out of the application config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Limit:             cfg.Retrieval.Limit,
		ScoreThreshold:    cfg.Retrieval.ScoreThreshold,
		MaxLength:         cfg.Generation.MaxLength,
		Temperature:       cfg.Generation.Temperature,
		TopP:              cfg.Generation.TopP,
		RepetitionPenalty: cfg.Generation.RepetitionPenalty,
		MaxAttempts:       cfg.Inference.AnswerMaxAttempts,
	}
}

// DefaultSettings returns the settings of a config with only defaults applied.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

// Engine runs the query pipeline: embed, retrieve, prompt, generate.
type Engine struct {
	embedder embedding.Embedder
	store    vector.Store
	runner   JobRunner
	settings Settings
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for state transitions and failures.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine with the given dependencies.
func NewEngine(embedder embedding.Embedder, store vector.Store, runner JobRunner, settings Settings, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder: embedder,
		store:    store,
		runner:   runner,
		settings: settings,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Settings returns the engine's query settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

type query struct {
	text   string
	state  State
	logger *zap.Logger
}

func (q *query) advance(to State) {
	q.logger.Debug("query state", zap.String("from", string(q.state)), zap.String("to", string(to)))
	q.state = to
}

func (q *query) fail(err error, fallback string) *AnswerError {
	stage := q.state
	q.advance(StateFailed)
	return &AnswerError{Stage: stage, Err: err, FallbackMessage: fallback}
}

// Answer runs the full pipeline for question. Every failure is an *AnswerError;
// a blank question fails with models.ErrValidation before any external call.
func (e *Engine) Answer(ctx context.Context, question string) (*models.Answer, error) {
	q := &query{text: question, state: StateReceived, logger: e.logger}
	if strings.TrimSpace(question) == "" {
		return nil, q.fail(fmt.Errorf("%w: query is required", models.ErrValidation), "")
	}

	vec := e.embedder.Embed(ctx, question)
	q.advance(StateEmbeddingReady)

	results, err := e.store.Search(ctx, vec, e.settings.Limit, e.settings.ScoreThreshold)
	if err != nil {
		e.logger.Error("retrieval failed", zap.Error(err))
		return nil, q.fail(asStorageError(err), StorageFallbackMessage)
	}
	q.advance(StateRetrieved)

	req := &models.GenerationRequest{
		Prompt:            BuildPrompt(results, question),
		MaxLength:         e.settings.MaxLength,
		Temperature:       e.settings.Temperature,
		TopP:              e.settings.TopP,
		RepetitionPenalty: e.settings.RepetitionPenalty,
	}
	q.advance(StatePromptBuilt)

	q.advance(StateGenerating)
	out := e.runner.Run(ctx, req, e.settings.MaxAttempts)
	switch out.Kind {
	case poller.Succeeded:
		text := out.Text()
		if strings.TrimSpace(text) == "" {
			text = EmptyAnswerMessage
		}
		q.advance(StateAnswered)
		return &models.Answer{Answer: text, ContextChunksUsed: len(results), Query: question}, nil
	case poller.Failed, poller.TimedOut, poller.SubmissionFailed:
		e.logger.Error("generation failed",
			zap.String("outcome", out.Kind.String()),
			zap.String("job_id", out.JobID),
			zap.Int("attempts", out.Attempts),
			zap.Error(out.Err()),
		)
		return nil, q.fail(out.Err(), InferenceFallbackMessage)
	default:
		return nil, q.fail(out.Err(), InferenceFallbackMessage)
	}
}

// Retrieve embeds text and returns the matching passages without generating
// an answer. Non-positive limit and threshold fall back to the engine settings.
func (e *Engine) Retrieve(ctx context.Context, text string, limit int, threshold float64) ([]models.SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query is required", models.ErrValidation)
	}
	if limit <= 0 {
		limit = e.settings.Limit
	}
	if threshold <= 0 {
		threshold = e.settings.ScoreThreshold
	}
	results, err := e.store.Search(ctx, e.embedder.Embed(ctx, text), limit, threshold)
	if err != nil {
		return nil, asStorageError(err)
	}
	return results, nil
}

func asStorageError(err error) error {
	if errors.Is(err, models.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrStorage, err)
}

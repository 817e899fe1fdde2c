package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/cli"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/feedback"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/search"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"github.com/Srikanthmvtsc/screw-savvy-bot/pkg/utils"
	"github.com/spf13/cobra"
)

// statusKeys is the print order of the status command.
var statusKeys = []string{
	"documents", "feedback", "vector_records", "vector_error",
	"vector_store_type", "collection", "embedding_dimensions", "chunk_size",
	"retrieval_limit", "score_threshold", "database_path", "feedback_sink", "disk_usage_bytes",
}

// buildQuery joins the positional arguments into one question.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// runLocal loads config, wires the components and runs fn against them.
func runLocal(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, cfg *config.Config, c *Components, format cli.OutputFormat) error) error {
	format, err := cli.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || opts.debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Close()
	return fn(ctx, cfg, components, format)
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest catalogue files (pdf, docx, xlsx, txt, md)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.serverURL != "" {
				format, err := cli.ParseFormat(opts.format)
				if err != nil {
					return err
				}
				api := newAPIClient(opts.serverURL)
				for _, path := range args {
					res, err := api.upload(cmd.Context(), path)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", path, err)
					}
					if err := cli.WriteIngestResult(cmd.OutOrStdout(), res, format); err != nil {
						return err
					}
				}
				return nil
			}
			return runLocal(cmd, opts, func(ctx context.Context, _ *config.Config, c *Components, format cli.OutputFormat) error {
				for _, path := range args {
					abs, err := filepath.Abs(path)
					if err != nil {
						return err
					}
					res, err := c.Indexer.IngestPath(ctx, abs, nil)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", path, err)
					}
					if err := cli.WriteIngestResult(cmd.OutOrStdout(), res, format); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "upload through a running server at this URL instead of ingesting locally")
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a fastener question",
		Long: `Ask embeds the question, retrieves matching catalogue passages and
generates an answer. The question is all arguments joined by spaces.

Examples:
  screwsavvy ask which screw for a pine deck
  screwsavvy ask --server http://localhost:5000 "drywall screws for metal studs?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := buildQuery(args)
			if question == "" {
				return errors.New("question is required")
			}
			if opts.serverURL != "" {
				format, err := cli.ParseFormat(opts.format)
				if err != nil {
					return err
				}
				answer, failure, err := newAPIClient(opts.serverURL).ask(cmd.Context(), question)
				if err != nil {
					return err
				}
				if failure != nil {
					_ = cli.WriteFailure(cmd.OutOrStdout(), errors.New(failure.Error), failure.Fallback, format)
					return errors.New(failure.Error)
				}
				return cli.WriteAnswer(cmd.OutOrStdout(), answer, format)
			}
			return runLocal(cmd, opts, func(ctx context.Context, _ *config.Config, c *Components, format cli.OutputFormat) error {
				answer, err := c.Engine.Answer(ctx, question)
				if err != nil {
					var ae *search.AnswerError
					if errors.As(err, &ae) && ae.FallbackMessage != "" {
						_ = cli.WriteFailure(cmd.OutOrStdout(), ae.Err, ae.FallbackMessage, format)
					}
					return err
				}
				return cli.WriteAnswer(cmd.OutOrStdout(), answer, format)
			})
		},
	}
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "ask a running server at this URL instead of answering locally")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit     int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the catalogue passages a question retrieves, without generating an answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := buildQuery(args)
			if opts.serverURL != "" {
				format, err := cli.ParseFormat(opts.format)
				if err != nil {
					return err
				}
				results, err := newAPIClient(opts.serverURL).search(cmd.Context(), query, limit, threshold)
				if err != nil {
					return err
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), query, results, format)
			}
			return runLocal(cmd, opts, func(ctx context.Context, _ *config.Config, c *Components, format cli.OutputFormat) error {
				results, err := c.Engine.Retrieve(ctx, query, limit, threshold)
				if err != nil {
					return err
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), query, results, format)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of passages (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity score (default from config)")
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "search through a running server at this URL")
	return cmd
}

func newFeedbackCmd(opts *rootOptions) *cobra.Command {
	var sub feedback.Submission
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record a correction to an answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocal(cmd, opts, func(ctx context.Context, _ *config.Config, c *Components, format cli.OutputFormat) error {
				entry, err := c.Recorder.Record(ctx, sub)
				if err != nil {
					return err
				}
				if format == cli.OutputJSON {
					return cli.WriteStatus(cmd.OutOrStdout(), nil, map[string]interface{}{
						"success": true, "message": feedback.ThankYouMessage, "feedback_id": entry.ID,
					}, format)
				}
				cmd.Printf("%s\nFeedback ID: %s\n", feedback.ThankYouMessage, entry.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&sub.Question, "question", "q", "", "the question that was asked (required)")
	cmd.Flags().StringVar(&sub.Note, "note", "", "what was wrong with the answer (required)")
	cmd.Flags().StringVar(&sub.WrongAnswer, "wrong", "", "the answer that was given")
	cmd.Flags().StringVar(&sub.CorrectAnswer, "correct", "", "the answer that should have been given")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show document, feedback and vector store status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.serverURL != "" {
				format, err := cli.ParseFormat(opts.format)
				if err != nil {
					return err
				}
				status, err := newAPIClient(opts.serverURL).status(cmd.Context())
				if err != nil {
					return err
				}
				return cli.WriteStatus(cmd.OutOrStdout(), statusKeys, status, format)
			}
			return runLocal(cmd, opts, func(ctx context.Context, cfg *config.Config, c *Components, format cli.OutputFormat) error {
				status, err := localStatus(ctx, cfg, c)
				if err != nil {
					return err
				}
				return cli.WriteStatus(cmd.OutOrStdout(), statusKeys, status, format)
			})
		},
	}
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "query a running server at this URL")
	return cmd
}

// localStatus mirrors GET /api/v1/status flattened into one map.
func localStatus(ctx context.Context, cfg *config.Config, c *Components) (map[string]interface{}, error) {
	docs, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	fb, err := c.Feedback.CountFeedback(ctx)
	if err != nil {
		return nil, err
	}
	status := map[string]interface{}{
		"documents":            docs,
		"feedback":             fb,
		"vector_store_type":    vector.TypeOf(c.Vectors),
		"collection":           cfg.Vector.Collection,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"chunk_size":           cfg.Chunking.ChunkSize,
		"retrieval_limit":      cfg.Retrieval.Limit,
		"score_threshold":      cfg.Retrieval.ScoreThreshold,
		"database_path":        cfg.Storage.DatabasePath,
		"feedback_sink":        cfg.Storage.FeedbackSink,
	}
	if n, err := c.Vectors.Count(ctx); err != nil {
		status["vector_error"] = err.Error()
	} else {
		status["vector_records"] = n
	}
	if size, err := storage.DatabaseFootprint(cfg.Storage.DatabasePath); err == nil {
		status["disk_usage_bytes"] = size
	}
	return status, nil
}

// flattenStatus merges the nested config block of the server's status response.
func flattenStatus(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]interface{}); ok && k == "config" {
			for nk, nv := range nested {
				out[nk] = nv
			}
			continue
		}
		out[k] = v
	}
	return out
}

// Package feedback validates and records user corrections to answers.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ThankYouMessage is returned to the user after a successful submission.
const ThankYouMessage = "Thank you for your feedback! This will help improve our recommendations."

// Submission is the user-provided part of a feedback entry.
type Submission struct {
	Question      string `json:"question"`
	WrongAnswer   string `json:"wrong_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Note          string `json:"user_feedback"`
}

// Recorder assigns ids and timestamps and appends entries to a sink.
type Recorder struct {
	sink   storage.FeedbackSink
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(gen func() string) Option {
	return func(r *Recorder) { r.newID = gen }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder returns a recorder writing to sink.
func NewRecorder(sink storage.FeedbackSink, opts ...Option) *Recorder {
	r := &Recorder{
		sink:   sink,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Record validates sub and appends it. Question and note are required.
func (r *Recorder) Record(ctx context.Context, sub Submission) (*models.FeedbackEntry, error) {
	if strings.TrimSpace(sub.Question) == "" || strings.TrimSpace(sub.Note) == "" {
		return nil, fmt.Errorf("%w: question and feedback are required", models.ErrValidation)
	}
	entry := &models.FeedbackEntry{
		ID:            r.newID(),
		Question:      sub.Question,
		WrongAnswer:   sub.WrongAnswer,
		CorrectAnswer: sub.CorrectAnswer,
		Note:          sub.Note,
		Timestamp:     r.now(),
		Processed:     false,
	}
	if err := r.sink.AppendFeedback(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: failed to save feedback: %v", models.ErrStorage, err)
	}
	r.logger.Info("feedback recorded", zap.String("feedback_id", entry.ID))
	return entry, nil
}

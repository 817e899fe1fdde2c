// Package poller drives the submit-then-poll protocol of asynchronous inference
// jobs with a bounded number of status checks.
package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"go.uber.org/zap"
)

// DefaultInterval is the wait between two status checks.
const DefaultInterval = time.Second

// Service is an external job runner.
type Service interface {
	// Submit starts a job. The returned job carries its id and initial status.
	Submit(ctx context.Context, req *models.GenerationRequest) (*models.AsyncJob, error)
	// Poll returns the current state of a job.
	Poll(ctx context.Context, jobID string) (*models.AsyncJob, error)
}

// OutcomeKind tags how a run ended.
type OutcomeKind int

const (
	Succeeded OutcomeKind = iota
	Failed
	TimedOut
	SubmissionFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case SubmissionFailed:
		return "submission_failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the terminal result of a run. Output is set only when Kind is Succeeded.
type Outcome struct {
	Kind     OutcomeKind
	JobID    string
	Output   []string
	Attempts int
	Cause    error
}

// Text joins the output fragments.
func (o Outcome) Text() string {
	return strings.Join(o.Output, "")
}

// Err maps the outcome to one of the inference sentinel errors, or nil on success.
func (o Outcome) Err() error {
	switch o.Kind {
	case Succeeded:
		return nil
	case Failed:
		return fmt.Errorf("%w: job %s: %v", models.ErrInferenceFailed, o.JobID, o.Cause)
	case TimedOut:
		return fmt.Errorf("%w: job %s not finished after %d attempts", models.ErrInferenceTimeout, o.JobID, o.Attempts)
	case SubmissionFailed:
		return fmt.Errorf("%w: %v", models.ErrInferenceSubmission, o.Cause)
	default:
		return fmt.Errorf("unknown outcome %s", o.Kind)
	}
}

// Poller submits jobs and waits for them.
type Poller struct {
	service  Service
	interval time.Duration
	sleep    func(time.Duration)
	logger   *zap.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the wait between status checks.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithSleep replaces time.Sleep, letting tests run without real delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *Poller) { p.sleep = sleep }
}

// WithLogger sets a logger for per-attempt debug output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New returns a poller for service.
func New(service Service, opts ...Option) *Poller {
	p := &Poller{
		service:  service,
		interval: DefaultInterval,
		sleep:    time.Sleep,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Run submits req and polls until the job is terminal or maxAttempts status
// checks have been spent. A check that fails at the transport level still
// counts as an attempt. The wait is never cut short by ctx: once a job is
// submitted only the attempt budget ends it.
func (p *Poller) Run(ctx context.Context, req *models.GenerationRequest, maxAttempts int) Outcome {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	ctx = context.WithoutCancel(ctx)

	job, err := p.service.Submit(ctx, req)
	if err != nil {
		return Outcome{Kind: SubmissionFailed, Cause: err}
	}
	if job == nil || job.ID == "" {
		return Outcome{Kind: SubmissionFailed, Cause: errors.New("service returned no job id")}
	}
	if job.Status.Terminal() {
		return terminal(job, 0)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := p.service.Poll(ctx, job.ID)
		switch {
		case err != nil:
			p.logger.Debug("poll failed",
				zap.String("job_id", job.ID), zap.Int("attempt", attempt), zap.Error(err))
		case current == nil:
			p.logger.Debug("poll returned no job", zap.String("job_id", job.ID), zap.Int("attempt", attempt))
		case current.Status.Terminal():
			return terminal(current, attempt)
		default:
			p.logger.Debug("job not finished",
				zap.String("job_id", job.ID), zap.Int("attempt", attempt), zap.String("status", string(current.Status)))
		}
		if attempt < maxAttempts {
			p.sleep(p.interval)
		}
	}
	return Outcome{Kind: TimedOut, JobID: job.ID, Attempts: maxAttempts}
}

func terminal(job *models.AsyncJob, attempts int) Outcome {
	if job.Status == models.JobSucceeded {
		return Outcome{Kind: Succeeded, JobID: job.ID, Output: job.Output, Attempts: attempts}
	}
	cause := job.Error
	if cause == "" {
		cause = "no error detail"
	}
	return Outcome{Kind: Failed, JobID: job.ID, Attempts: attempts, Cause: errors.New(cause)}
}

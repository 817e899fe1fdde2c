package poller

import (
	"context"
	"errors"
	"sync"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// scriptedService replays a fixed sequence of poll responses; once exhausted it
// keeps returning the last one.
type scriptedService struct {
	mu        sync.Mutex
	submitJob *models.AsyncJob
	submitErr error
	polls     []pollStep
	pollCalls int
	submits   int
	lastReq   *models.GenerationRequest
}

type pollStep struct {
	job *models.AsyncJob
	err error
}

func (s *scriptedService) Submit(_ context.Context, req *models.GenerationRequest) (*models.AsyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	s.lastReq = req
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	if s.submitJob != nil {
		return s.submitJob, nil
	}
	return &models.AsyncJob{ID: "job-1", Status: models.JobPending}, nil
}

func (s *scriptedService) Poll(_ context.Context, id string) (*models.AsyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollCalls++
	if len(s.polls) == 0 {
		return &models.AsyncJob{ID: id, Status: models.JobRunning}, nil
	}
	i := s.pollCalls - 1
	if i >= len(s.polls) {
		i = len(s.polls) - 1
	}
	step := s.polls[i]
	return step.job, step.err
}

var errTransport = errors.New("connection reset")

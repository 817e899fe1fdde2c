package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	outcome     poller.Outcome
	requests    []*models.GenerationRequest
	maxAttempts []int
}

func (r *stubRunner) Run(_ context.Context, req *models.GenerationRequest, maxAttempts int) poller.Outcome {
	r.requests = append(r.requests, req)
	r.maxAttempts = append(r.maxAttempts, maxAttempts)
	return r.outcome
}

func TestInferenceEmbedder_IgnoresModelOutput(t *testing.T) {
	hash := NewHashEmbedder(64, 10)
	text := "Drywall screws have a bugle head."
	want := hash.Vector(text)

	outcomes := []poller.Outcome{
		{Kind: poller.Succeeded, JobID: "j", Output: []string{"[0.1, 0.2, 0.3]"}},
		{Kind: poller.Failed, JobID: "j", Cause: errors.New("boom")},
		{Kind: poller.TimedOut, JobID: "j", Attempts: 10},
		{Kind: poller.SubmissionFailed, Cause: errors.New("no token")},
	}
	for _, out := range outcomes {
		t.Run(out.Kind.String(), func(t *testing.T) {
			runner := &stubRunner{outcome: out}
			e := NewInferenceEmbedder(hash, runner, InferenceConfig{Temperature: 0.1})
			got := e.Embed(context.Background(), text)
			assert.Equal(t, want, got)
			require.Len(t, runner.requests, 1)
			assert.Equal(t, 10, runner.maxAttempts[0])
		})
	}
}

func TestInferenceEmbedder_PromptUsesFirst500Chars(t *testing.T) {
	runner := &stubRunner{outcome: poller.Outcome{Kind: poller.Succeeded}}
	e := NewInferenceEmbedder(NewHashEmbedder(16, 10), runner, InferenceConfig{Temperature: 0.1})

	e.Embed(context.Background(), strings.Repeat("é", 800))

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	require.True(t, strings.HasPrefix(req.Prompt, PromptPrefix))
	assert.Equal(t, 500, utf8.RuneCountInString(strings.TrimPrefix(req.Prompt, PromptPrefix)))
	assert.Equal(t, 50, req.MaxLength)
	assert.Equal(t, 0.1, req.Temperature)
}

func TestInferenceEmbedder_Batch(t *testing.T) {
	runner := &stubRunner{outcome: poller.Outcome{Kind: poller.TimedOut}}
	e := NewInferenceEmbedder(NewHashEmbedder(16, 10), runner, InferenceConfig{MaxAttempts: 3})
	vecs := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	assert.Len(t, vecs, 3)
	assert.Equal(t, []int{3, 3, 3}, runner.maxAttempts)
	assert.Equal(t, 16, e.Dimensions())
}

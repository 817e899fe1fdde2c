package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// JobBehaviour scripts how the fake predictions service treats a kind of job.
type JobBehaviour int

const (
	// Succeed finishes on the first poll.
	Succeed JobBehaviour = iota
	// Fail reports failure on the first poll.
	Fail
	// Hang never leaves "processing".
	Hang
)

// FakeReplicate is an in-process predictions API. Jobs whose prompt starts with
// EmbedPrefix follow Embed; all other jobs follow Answer.
type FakeReplicate struct {
	Server      *httptest.Server
	EmbedPrefix string
	Embed       JobBehaviour
	Answer      JobBehaviour
	AnswerText  []string

	mu      sync.Mutex
	jobs    map[string]JobBehaviour
	prompts []string
	polls   int
}

// NewFakeReplicate starts the fake. Close it with f.Server.Close.
func NewFakeReplicate(embedPrefix string) *FakeReplicate {
	f := &FakeReplicate{
		EmbedPrefix: embedPrefix,
		AnswerText:  []string{"Use a ", "#8 wood screw."},
		jobs:        make(map[string]JobBehaviour),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predictions", f.submit)
	mux.HandleFunc("GET /predictions/{id}", f.poll)
	f.Server = httptest.NewServer(mux)
	return f
}

// URL is the base URL to configure the inference client with.
func (f *FakeReplicate) URL() string { return f.Server.URL }

func (f *FakeReplicate) submit(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, `{"detail":"unauthenticated"}`, http.StatusUnauthorized)
		return
	}
	var body struct {
		Input struct {
			Prompt string `json:"prompt"`
		} `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	id := fmt.Sprintf("pred-%d", len(f.prompts)+1)
	f.prompts = append(f.prompts, body.Input.Prompt)
	if strings.HasPrefix(body.Input.Prompt, f.EmbedPrefix) {
		f.jobs[id] = f.Embed
	} else {
		f.jobs[id] = f.Answer
	}
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "starting"})
}

func (f *FakeReplicate) poll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	behaviour, ok := f.jobs[id]
	f.polls++
	answer := f.AnswerText
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	resp := map[string]any{"id": id}
	switch behaviour {
	case Succeed:
		resp["status"] = "succeeded"
		resp["output"] = answer
	case Fail:
		resp["status"] = "failed"
		resp["error"] = "model crashed"
	default:
		resp["status"] = "processing"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Prompts returns every submitted prompt in order.
func (f *FakeReplicate) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// AnswerPrompts returns the prompts of answer-generation jobs.
func (f *FakeReplicate) AnswerPrompts() []string {
	var out []string
	for _, p := range f.Prompts() {
		if !strings.HasPrefix(p, f.EmbedPrefix) {
			out = append(out, p)
		}
	}
	return out
}

// Polls returns the number of status requests served.
func (f *FakeReplicate) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

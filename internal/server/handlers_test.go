package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/embedding"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/feedback"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/indexer"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/poller"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/search"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"go.uber.org/zap"
)

const testDims = 32

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type stubRunner struct {
	outcome poller.Outcome
	calls   int
}

func (r *stubRunner) Run(context.Context, *models.GenerationRequest, int) poller.Outcome {
	r.calls++
	return r.outcome
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *storage.SQLiteStorage
	vectors *vector.MemoryStore
	runner  *stubRunner
	cfg     *config.Config
}

func newTestEnv(t *testing.T, watch WatchService, configPath string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "db.sqlite")
	cfg.Vector.Type = string(vector.StoreTypeMemory)
	cfg.Embedding.Dimensions = testDims

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	vectors, err := vector.NewMemoryStore(testDims)
	if err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewHashEmbedder(testDims, embedding.DefaultWindow)
	runner := &stubRunner{outcome: poller.Outcome{Kind: poller.Succeeded, JobID: "job-1", Output: []string{"Use a ", "#8 wood screw."}}}

	logger := zap.NewNop()
	engine := search.NewEngine(embedder, vectors, runner, search.SettingsFromConfig(cfg))
	idx := indexer.NewIndexer(cfg.Chunking.ChunkSize, embedder, vectors, indexer.WithDocumentStore(store))
	srv := NewServer(Deps{
		Engine:        engine,
		Indexer:       idx,
		Documents:     store,
		Feedback:      feedback.NewRecorder(store),
		FeedbackStore: store,
		Vectors:       vectors,
		Watch:         watch,
		Config:        cfg,
		ConfigPath:    configPath,
		Logger:        logger,
	})
	return &testEnv{srv: srv, handler: srv.Routes(), store: store, vectors: vectors, runner: runner, cfg: cfg}
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	r := httptest.NewRequest(method, target, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func uploadRequest(t *testing.T, target, field, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	} else {
		_ = mw.WriteField("note", "no file here")
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	out := decode(t, w)
	if out["status"] != "healthy" || out["message"] != healthMessage {
		t.Errorf("body: got %v", out)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil, "")
	r := httptest.NewRequest(http.MethodOptions, "/chat-query", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := env.do(r)
	if w.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin: got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
		t.Errorf("allow headers: got %q", got)
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	h := cors([]string{"https://shop.example"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Errorf("allowed origin: got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin: got %q, want none", got)
	}
}

func TestHandleUpload(t *testing.T) {
	env := newTestEnv(t, nil, "")
	content := []byte(strings.Repeat("Wood screw #8 x 1-1/4 inch, zinc plated. ", 20))
	w := env.do(uploadRequest(t, "/api/v1/documents", "file", "catalog.txt", content))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["success"] != true {
		t.Errorf("success: got %v", out["success"])
	}
	if out["chunks_processed"] != float64(2) || out["embeddings_created"] != float64(2) {
		t.Errorf("counts: got %v / %v", out["chunks_processed"], out["embeddings_created"])
	}
	doc, ok := out["document"].(map[string]interface{})
	if !ok || doc["file_name"] != "catalog.txt" || doc["processing_status"] != models.ProcessingCompleted {
		t.Errorf("document: got %v", out["document"])
	}
	n, _ := env.vectors.Count(context.Background())
	if n != 2 {
		t.Errorf("vector records: got %d, want 2", n)
	}
}

func TestHandleUpload_LegacyRoute(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(uploadRequest(t, "/process-pdf", "file", "notes.txt", []byte("drywall screws")))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(uploadRequest(t, "/api/v1/documents", "", "", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if out := decode(t, w); out["error"] != "No file provided" {
		t.Errorf("error: got %v", out["error"])
	}
}

func TestHandleUpload_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(uploadRequest(t, "/api/v1/documents", "file", "drawing.dwg", []byte{0x01, 0x02}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", w.Code)
	}
}

func TestHandleDocuments_ListAndGet(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(uploadRequest(t, "/api/v1/documents", "file", "catalog.txt", []byte("sheet metal screws")))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status: got %d", w.Code)
	}
	id := decode(t, w)["document"].(map[string]interface{})["id"].(string)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}
	docs, _ := decode(t, w)["documents"].([]interface{})
	if len(docs) != 1 {
		t.Errorf("documents: got %d, want 1", len(docs))
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil))
	if w.Code != http.StatusOK {
		t.Errorf("get status: got %d", w.Code)
	}
	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status: got %d, want 404", w.Code)
	}
}

func TestHandleChat(t *testing.T) {
	env := newTestEnv(t, nil, "")
	text := "Wood screw #8 for softwood framing"
	if w := env.do(uploadRequest(t, "/api/v1/documents", "file", "catalog.txt", []byte(text))); w.Code != http.StatusOK {
		t.Fatalf("upload status: got %d", w.Code)
	}

	w := env.do(jsonRequest(http.MethodPost, "/api/v1/chat", map[string]string{"query": text}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["success"] != true || out["response"] != "Use a #8 wood screw." || out["query"] != text {
		t.Errorf("body: got %v", out)
	}
	if out["context_chunks_used"] != float64(1) {
		t.Errorf("context_chunks_used: got %v", out["context_chunks_used"])
	}
}

func TestHandleChat_MissingQuery(t *testing.T) {
	env := newTestEnv(t, nil, "")
	for _, body := range []map[string]string{{}, {"query": "   "}} {
		w := env.do(jsonRequest(http.MethodPost, "/chat-query", body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status: got %d", w.Code)
		}
		if out := decode(t, w); out["error"] != "Query is required" {
			t.Errorf("error: got %v", out["error"])
		}
	}
	if env.runner.calls != 0 {
		t.Errorf("runner called %d times", env.runner.calls)
	}
}

func TestHandleChat_InferenceFailure(t *testing.T) {
	env := newTestEnv(t, nil, "")
	env.runner.outcome = poller.Outcome{Kind: poller.Failed, JobID: "job-9"}

	w := env.do(jsonRequest(http.MethodPost, "/api/v1/chat", map[string]string{"query": "which screw for drywall?"}))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", w.Code)
	}
	out := decode(t, w)
	if out["fallback_response"] != search.InferenceFallbackMessage {
		t.Errorf("fallback_response: got %v", out["fallback_response"])
	}
	if out["error_kind"] != "inference_failed" {
		t.Errorf("error_kind: got %v", out["error_kind"])
	}
	if _, ok := out["error"].(string); !ok {
		t.Errorf("error missing: %v", out)
	}
}

func TestHandleSearch(t *testing.T) {
	env := newTestEnv(t, nil, "")
	text := "Drywall screw coarse thread"
	if w := env.do(uploadRequest(t, "/api/v1/documents", "file", "catalog.txt", []byte(text))); w.Code != http.StatusOK {
		t.Fatalf("upload status: got %d", w.Code)
	}
	w := env.do(jsonRequest(http.MethodPost, "/api/v1/search", map[string]interface{}{"query": text, "limit": 3}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	out := decode(t, w)
	results, _ := out["results"].([]interface{})
	if len(results) != 1 || out["total"] != float64(1) {
		t.Fatalf("results: got %v", out)
	}
	payload := results[0].(map[string]interface{})["payload"].(map[string]interface{})
	if payload["text"] != text || payload["source"] != "catalog.txt" {
		t.Errorf("payload: got %v", payload)
	}
	if env.runner.calls != 0 {
		t.Errorf("search must not generate, runner called %d times", env.runner.calls)
	}

	w = env.do(jsonRequest(http.MethodPost, "/api/v1/search", map[string]string{"query": ""}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank query status: got %d", w.Code)
	}
}

func TestHandleFeedback(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(jsonRequest(http.MethodPost, "/save-feedback", map[string]string{
		"question":       "Screw for oak?",
		"wrong_answer":   "drywall screw",
		"correct_answer": "#10 wood screw with pilot hole",
		"user_feedback":  "oak splits without a pilot hole",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["success"] != true || out["message"] != feedback.ThankYouMessage {
		t.Errorf("body: got %v", out)
	}
	if id, _ := out["feedback_id"].(string); id == "" {
		t.Error("feedback_id missing")
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/feedback", nil))
	entries, _ := decode(t, w)["feedback"].([]interface{})
	if len(entries) != 1 {
		t.Errorf("feedback entries: got %d, want 1", len(entries))
	}
}

func TestHandleFeedback_MissingFields(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(jsonRequest(http.MethodPost, "/api/v1/feedback", map[string]string{"question": "Screw for oak?"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if out := decode(t, w); out["error"] != "Question and feedback are required" {
		t.Errorf("error: got %v", out["error"])
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t, nil, "")
	if w := env.do(uploadRequest(t, "/api/v1/documents", "file", "catalog.txt", []byte("wood screws"))); w.Code != http.StatusOK {
		t.Fatalf("upload status: got %d", w.Code)
	}
	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	out := decode(t, w)
	if out["documents"] != float64(1) || out["feedback"] != float64(0) || out["vector_records"] != float64(1) {
		t.Errorf("counts: got %v", out)
	}
	if _, ok := out["disk_usage_bytes"]; !ok {
		t.Error("disk_usage_bytes missing")
	}
	cfgInfo, _ := out["config"].(map[string]interface{})
	if cfgInfo["vector_store_type"] != "memory" || cfgInfo["embedding_dimensions"] != float64(testDims) {
		t.Errorf("config: got %v", cfgInfo)
	}
}

func TestHandleWatchDirectoriesList(t *testing.T) {
	env := newTestEnv(t, &mockWatchService{dirs: []string{"/tmp/inbox"}}, "")
	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/inbox" {
		t.Errorf("directories: got %v", out.Directories)
	}
}

func TestHandleWatchDirectoriesList_NotEnabled(t *testing.T) {
	env := newTestEnv(t, nil, "")
	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleWatchDirectoriesAddRemove_Persists(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	mock := &mockWatchService{}
	env := newTestEnv(t, mock, cfgPath)
	inbox := t.TempDir()

	w := env.do(jsonRequest(http.MethodPost, "/api/v1/watch/directories", map[string]string{"path": inbox}))
	if w.Code != http.StatusCreated {
		t.Fatalf("add status: got %d body=%s", w.Code, w.Body.String())
	}
	saved, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Watch.Directories) != 1 || saved.Watch.Directories[0] != inbox {
		t.Errorf("persisted directories: got %v", saved.Watch.Directories)
	}
	if len(env.cfg.Watch.Directories) != 0 {
		t.Errorf("runtime config mutated: %v", env.cfg.Watch.Directories)
	}

	w = env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/watch/directories?path="+inbox, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("remove status: got %d", w.Code)
	}
	if len(mock.dirs) != 0 {
		t.Errorf("directories after remove: got %v", mock.dirs)
	}
}

func TestHandleWatchDirectoriesAdd_InvalidPath(t *testing.T) {
	env := newTestEnv(t, &mockWatchService{}, "")
	w := env.do(jsonRequest(http.MethodPost, "/api/v1/watch/directories", map[string]string{"path": "/nonexistent/inbox/xyz"}))
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	w = env.do(jsonRequest(http.MethodPost, "/api/v1/watch/directories", map[string]string{"path": file}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("file path status: got %d, want 400", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrValidation, http.StatusBadRequest},
		{models.ErrExtraction, http.StatusUnprocessableEntity},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrStorage, http.StatusInternalServerError},
		{&search.AnswerError{Stage: search.StateGenerating, Err: models.ErrInferenceTimeout}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

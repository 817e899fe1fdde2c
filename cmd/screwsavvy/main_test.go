package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"drywall"}, "drywall"},
		{"multiple words", []string{"screw", "for", "oak"}, "screw for oak"},
		{"quoted phrase", []string{"screw for oak"}, "screw for oak"},
		{"blank args", []string{"  ", "  "}, ""},
		{"empty", []string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_DefaultsWhenDefaultFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QDRANT_URL", "https://qdrant.example:6333")
	cfg, path, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("resolved path: got %q, want empty", path)
	}
	if cfg.Vector.URL != "https://qdrant.example:6333" {
		t.Errorf("env override not applied: %q", cfg.Vector.URL)
	}
	if cfg.Chunking.ChunkSize != 500 {
		t.Errorf("defaults not applied: chunk size %d", cfg.Chunking.ChunkSize)
	}
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := "vector:\n  type: memory\nretrieval:\n  limit: 3\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved path: got %q, want %q", resolved, path)
	}
	if cfg.Vector.Type != "memory" || cfg.Retrieval.Limit != 3 {
		t.Errorf("config: %+v", cfg.Vector)
	}
}

func TestFlattenStatus(t *testing.T) {
	in := map[string]interface{}{
		"documents": 2.0,
		"config":    map[string]interface{}{"chunk_size": 500.0},
	}
	out := flattenStatus(in)
	if out["documents"] != 2.0 || out["chunk_size"] != 500.0 {
		t.Errorf("flattenStatus() = %v", out)
	}
	if _, ok := out["config"]; ok {
		t.Error("config block should be flattened")
	}
}

func TestAPIClient_AskFailureCarriesFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "inference failed",
			"error_kind":        "inference_failed",
			"fallback_response": "try later",
		})
	}))
	defer ts.Close()

	answer, failure, err := newAPIClient(ts.URL+"/").ask(context.Background(), "screw for oak?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != nil || failure == nil {
		t.Fatalf("answer=%v failure=%v", answer, failure)
	}
	if failure.Fallback != "try later" || failure.Kind != "inference_failed" {
		t.Errorf("failure: %+v", failure)
	}
}

func TestAPIClient_Upload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, `{"error":"No file provided"}`, http.StatusBadRequest)
			return
		}
		file.Close()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "source_id": header.Filename, "chunks_processed": 1, "embeddings_created": 1,
		})
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "catalog.txt")
	if err := os.WriteFile(path, []byte("wood screws"), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := newAPIClient(ts.URL).upload(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.SourceID != "catalog.txt" || res.ChunksProcessed != 1 {
		t.Errorf("result: %+v", res)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "screwsavvy version") {
		t.Errorf("output: %q", out.String())
	}
}

func TestSearchCommand_LocalMemoryStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "vector:\n  type: memory\nstorage:\n  database_path: ./db.sqlite\ninference:\n  base_url: http://127.0.0.1:1\n  embedding_max_attempts: 1\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPLICATE_API_TOKEN", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgPath, "--output", "json", "search", "coarse", "thread"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out.String())
	}
	if decoded["query"] != "coarse thread" || decoded["total"] != 0.0 {
		t.Errorf("decoded: %v", decoded)
	}
}

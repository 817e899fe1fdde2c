package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

func TestJSONFileSink_AppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "feedback_data.json")
	sink, err := NewJSONFileSink(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if n, _ := sink.CountFeedback(ctx); n != 0 {
		t.Errorf("empty sink count = %d", n)
	}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		if err := sink.AppendFeedback(ctx, &models.FeedbackEntry{ID: id, Question: "q", Note: "n", Timestamp: ts}); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Error("file should be indented with two spaces")
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 3 || raw[0]["id"] != "a" || raw[0]["processed"] != false || raw[0]["user_feedback"] != "n" {
		t.Errorf("unexpected file contents: %v", raw)
	}

	page, err := sink.ListFeedback(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("page: %+v", page)
	}
	if past, _ := sink.ListFeedback(ctx, 10, 5); len(past) != 0 {
		t.Errorf("offset past end: %+v", past)
	}
}

func TestJSONFileSink_ConcurrentAppends(t *testing.T) {
	sink, _ := NewJSONFileSink(filepath.Join(t.TempDir(), "fb.json"))
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.AppendFeedback(ctx, &models.FeedbackEntry{Question: "q", Note: "n"})
		}()
	}
	wg.Wait()
	if n, _ := sink.CountFeedback(ctx); n != 20 {
		t.Errorf("expected 20 entries, got %d", n)
	}
}

func TestJSONFileSink_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fb.json")
	_ = os.WriteFile(path, []byte("{not json"), 0600)
	sink, _ := NewJSONFileSink(path)
	if err := sink.AppendFeedback(context.Background(), &models.FeedbackEntry{ID: "x"}); err == nil {
		t.Error("expected error for corrupt file")
	}
}

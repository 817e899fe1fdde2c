// Package integration runs the pipeline against live services. Tests skip
// unless QDRANT_URL is set.
package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/embedding"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/indexer"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
)

const integrationDims = 128

func liveQdrant(t *testing.T) *vector.QdrantStore {
	t.Helper()
	url := os.Getenv("QDRANT_URL")
	if url == "" {
		t.Skip("QDRANT_URL not set")
	}
	apiKey := os.Getenv("QDRANT_API_KEY")
	collection := fmt.Sprintf("screwsavvy_it_%d", time.Now().UnixNano())
	store, err := vector.NewQdrantStore(vector.QdrantConfig{
		URL:        url,
		APIKey:     apiKey,
		Collection: collection,
		Dimensions: integrationDims,
		Timeout:    10 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		req, err := http.NewRequest(http.MethodDelete, strings.TrimRight(url, "/")+"/collections/"+collection, nil)
		if err == nil {
			if apiKey != "" {
				req.Header.Set("api-key", apiKey)
			}
			if resp, err := http.DefaultClient.Do(req); err == nil {
				resp.Body.Close()
			}
		}
		store.Close()
	})
	if err := store.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	return store
}

func TestIntegration_QdrantRoundTrip(t *testing.T) {
	store := liveQdrant(t)
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(integrationDims, embedding.DefaultWindow)
	idx := indexer.NewIndexer(40, emb, store)

	text := "Hex washer head self-drilling screw, #12 x 3/4 inch, for steel framing up to 3 mm."
	res, err := idx.Ingest(ctx, "self-drilling.txt", text)
	if err != nil {
		t.Fatal(err)
	}
	// Re-ingesting overwrites the same point ids.
	if _, err := idx.Ingest(ctx, "self-drilling.txt", text); err != nil {
		t.Fatal(err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != res.ChunksProcessed {
		t.Errorf("count: got %d, want %d", n, res.ChunksProcessed)
	}

	first := []rune(text)[:40]
	results, err := store.Search(ctx, emb.Vector(string(first)), 3, 0.99)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Payload.Index != 0 || results[0].Payload.SourceID != "self-drilling.txt" {
		t.Errorf("round trip: got %+v", results)
	}
}

func TestIntegration_QdrantRejectsWrongDimensions(t *testing.T) {
	store := liveQdrant(t)
	_, err := store.Search(context.Background(), make([]float32, integrationDims/2), 1, 0)
	if err == nil {
		t.Error("expected a dimension mismatch error")
	}
}

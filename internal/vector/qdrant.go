package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// QdrantConfig holds connection settings for a Qdrant collection.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// QdrantStore is a REST client scoped to one Qdrant collection using cosine
// distance. Every failure is returned wrapped in models.ErrStorage; nothing is retried.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// NewQdrantStore returns a client. It does not contact the server.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Type returns the store type identifier.
func (s *QdrantStore) Type() string {
	return string(StoreTypeQdrant)
}

func (s *QdrantStore) collectionURL(suffix string) string {
	return s.baseURL + "/collections/" + url.PathEscape(s.collection) + suffix
}

// EnsureCollection creates the collection when it does not exist yet.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	status, err := s.send(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	if _, err := s.send(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return err
	}
	return nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload models.Payload `json:"payload"`
}

// Upsert writes every record in one request and waits for it to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if err := ValidateRecords(records, s.dimensions); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	points := make([]qdrantPoint, len(records))
	for i, r := range records {
		points[i] = qdrantPoint{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	}
	body := map[string]any{"points": points}
	_, err := s.send(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
	return err
}

// Search runs a filtered nearest-neighbour query.
func (s *QdrantStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]models.SearchResult, error) {
	if err := validateQuery(query, s.dimensions); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector":          query,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": threshold,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload models.Payload `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.send(ctx, http.MethodPost, s.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, models.SearchResult{Payload: r.Payload, Score: r.Score})
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if _, err := s.send(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases idle connections.
func (s *QdrantStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// send performs one JSON request. It returns the HTTP status (0 on transport
// failure) and an error wrapping models.ErrStorage for anything but 2xx.
func (s *QdrantStore) send(ctx context.Context, method, target string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to marshal request: %v", models.ErrStorage, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create request: %v", models.ErrStorage, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant %s %s: %v", models.ErrStorage, method, target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("%w: qdrant %s %s failed: %s: %s",
			models.ErrStorage, method, target, resp.Status, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: failed to parse qdrant response: %v", models.ErrStorage, err)
		}
	}
	return resp.StatusCode, nil
}

package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// MemoryStore is an in-process Store using brute-force cosine similarity.
// Suitable for tests and single-process development runs.
type MemoryStore struct {
	dimensions int
	order      []string
	records    map[string]models.VectorRecord
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		records:    make(map[string]models.VectorRecord),
	}, nil
}

// Type returns the store type identifier.
func (m *MemoryStore) Type() string {
	return string(StoreTypeMemory)
}

// Upsert validates the whole batch, then stores copies of every record.
func (m *MemoryStore) Upsert(_ context.Context, records []models.VectorRecord) error {
	if err := ValidateRecords(records, m.dimensions); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		vec := make([]float32, m.dimensions)
		copy(vec, r.Vector)
		if _, exists := m.records[r.ID]; !exists {
			m.order = append(m.order, r.ID)
		}
		m.records[r.ID] = models.VectorRecord{ID: r.ID, Vector: vec, Payload: r.Payload}
	}
	return nil
}

// Search scores every record against query.
func (m *MemoryStore) Search(_ context.Context, query []float32, limit int, threshold float64) ([]models.SearchResult, error) {
	if err := validateQuery(query, m.dimensions); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]models.SearchResult, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		score := CosineSimilarity(query, r.Vector)
		if score < threshold {
			continue
		}
		results = append(results, models.SearchResult{Payload: r.Payload, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Get returns the record stored under id.
func (m *MemoryStore) Get(id string) (models.VectorRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// Count returns the number of stored records.
func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

package vector

import (
	"fmt"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
)

// StoreType represents the type of vector store to use.
type StoreType string

const (
	// StoreTypeQdrant talks to a Qdrant server over REST.
	StoreTypeQdrant StoreType = "qdrant"
	// StoreTypeMemory keeps vectors in process memory; contents are lost on exit.
	StoreTypeMemory StoreType = "memory"
)

// NewStore creates a vector store of the configured type.
func NewStore(cfg config.VectorConfig, dimensions int) (Store, error) {
	switch StoreType(cfg.Type) {
	case StoreTypeQdrant, "":
		return NewQdrantStore(QdrantConfig{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Dimensions: dimensions,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		})
	case StoreTypeMemory:
		return NewMemoryStore(dimensions)
	default:
		return nil, fmt.Errorf("unknown vector store type: %s (supported: qdrant, memory)", cfg.Type)
	}
}

// TypeOf returns the type identifier of s, or "unknown".
func TypeOf(s Store) string {
	if t, ok := s.(interface{ Type() string }); ok {
		return t.Type()
	}
	return "unknown"
}

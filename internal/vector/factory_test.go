package vector

import (
	"testing"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
)

func TestNewStore_Memory(t *testing.T) {
	store, err := NewStore(config.VectorConfig{Type: "memory"}, 3)
	if err != nil {
		t.Fatalf("NewStore(memory): %v", err)
	}
	defer store.Close()
	if TypeOf(store) != "memory" {
		t.Errorf("TypeOf=%s", TypeOf(store))
	}
}

func TestNewStore_Qdrant(t *testing.T) {
	store, err := NewStore(config.VectorConfig{Type: "qdrant", URL: "http://localhost:6333", Collection: "screws"}, 1536)
	if err != nil {
		t.Fatalf("NewStore(qdrant): %v", err)
	}
	defer store.Close()
	if TypeOf(store) != "qdrant" {
		t.Errorf("TypeOf=%s", TypeOf(store))
	}
}

func TestNewStore_QdrantRequiresURL(t *testing.T) {
	if _, err := NewStore(config.VectorConfig{Type: "qdrant", Collection: "screws"}, 4); err == nil {
		t.Error("expected error without url")
	}
}

func TestNewStore_Unknown(t *testing.T) {
	if _, err := NewStore(config.VectorConfig{Type: "pinecone"}, 3); err == nil {
		t.Error("expected error for unknown type")
	}
}

// Package ids derives deterministic identifiers for sources and stored records.
package ids

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// recordNamespace scopes record ids so they never collide with other UUIDv5 users.
var recordNamespace = uuid.MustParse("6f1c1f4e-8c3b-5b8e-9a52-3c6d2f0b9e11")

// ChunkKey is the human-readable key of the index-th chunk of a source.
func ChunkKey(sourceID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", sourceID, index)
}

// ChunkID returns the stored record id for the index-th chunk of a source.
// The vector store accepts only UUIDs or integers as point ids, so the chunk
// key is hashed into a name-based UUID. Same input always yields the same id,
// which makes re-ingestion overwrite rather than duplicate.
func ChunkID(sourceID string, index int) string {
	return uuid.NewSHA1(recordNamespace, []byte(ChunkKey(sourceID, index))).String()
}

// SourceID returns the source id used for a file on disk: its base name, the
// same id an upload of that file would get.
func SourceID(path string) string {
	return filepath.Base(filepath.Clean(path))
}

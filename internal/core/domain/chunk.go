package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Chunk is the atomic retrieval unit: a bounded span of document text
// with provenance. Chunks are immutable once created; updates are
// modelled as delete-then-reinsert at the vector store.
type Chunk struct {
	// ID is globally unique: a content hash plus a random suffix, so
	// re-ingesting the same directory never silently overwrites an
	// earlier run.
	ID string

	// Source identifies the originating document (file name or path).
	Source string

	// Position is the ordinal position of the chunk within its source,
	// used for ordering and provenance display.
	Position int

	// Text is the chunk content. Never empty.
	Text string

	// TokenCount is an approximate whitespace-token count of Text.
	TokenCount int
}

// VectorRecord is the persisted unit in the vector store.
type VectorRecord struct {
	// ID is the globally unique record key.
	ID string

	// Embedding is the fixed-length vector for the chunk text. Its
	// length must equal the index dimension; mismatches fail fast.
	Embedding []float32

	// Metadata carries the chunk fields alongside the vector.
	Metadata RecordMetadata
}

// RecordMetadata is the metadata attached to every vector record.
// The JSON field names are the wire names used by the vector store.
type RecordMetadata struct {
	Text        string `json:"text"`
	Source      string `json:"source"`
	ChunkID     string `json:"chunk_id"`
	Position    int    `json:"position"`
	TokenCount  int    `json:"token_count"`
	IndexedDate string `json:"indexed_date"`
}

// NewChunkID derives a record ID from the chunk text and source plus a
// random component. The hash prefix makes identical content from the
// same source recognisable; the uuid suffix keeps distinct ingestion
// runs collision free.
func NewChunkID(source, text string) string {
	h := sha256.Sum256([]byte(source + "\x00" + text))
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return hex.EncodeToString(h[:8]) + "-" + suffix
}

// CountTokens approximates the token count of text by counting
// whitespace-separated fields. The hosted embedding model tokenises
// differently, but this is close enough for the stats the maintenance
// reporter aggregates.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

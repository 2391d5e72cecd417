package driven

import (
	"context"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// VectorIndex wraps the hosted ANN index: opaque IDs, fixed-dimension
// vectors, attached metadata. Index creation, persistence, and search
// internals belong to the hosted service.
type VectorIndex interface {
	// Upsert writes records to the index and returns the count
	// written. Upsert is idempotent per ID: the same ID overwrites.
	// The implementation must be safe for concurrent use by multiple
	// ingestion batches.
	Upsert(ctx context.Context, records []domain.VectorRecord) (int, error)

	// Query returns up to topK records ordered by descending
	// similarity. A nil filter matches everything; a non-nil filter is
	// applied server-side against record metadata.
	Query(ctx context.Context, embedding []float32, topK int, filter *Filter) ([]VectorMatch, error)

	// DeleteByFilter removes all records matching the filter.
	// Irreversible; callers preview with an estimate first.
	DeleteByFilter(ctx context.Context, filter *Filter) error

	// DeleteAll removes every record in the index.
	DeleteAll(ctx context.Context) error

	// Describe reports the index vector count and dimension.
	Describe(ctx context.Context) (IndexStats, error)

	// Ping validates connectivity and credentials. Failures at startup
	// are fatal and surfaced with a remediation message.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Filter is a metadata predicate evaluated by the vector store.
// Populated fields combine with AND; AnyTextContains is itself an OR
// over its keywords. The zero value matches everything.
type Filter struct {
	// AnyTextContains matches records whose text contains any of the
	// keywords. Advisory at query time: a filtered query that comes
	// back empty is retried without it.
	AnyTextContains []string

	// SourceEquals matches records from exactly this source.
	SourceEquals string

	// IndexedBefore matches records whose indexed_date sorts strictly
	// before this ISO 8601 date.
	IndexedBefore string
}

// IsZero reports whether the filter matches everything.
func (f *Filter) IsZero() bool {
	return f == nil ||
		(len(f.AnyTextContains) == 0 && f.SourceEquals == "" && f.IndexedBefore == "")
}

// VectorMatch is a single similarity hit from the index.
type VectorMatch struct {
	// ID is the matched record key.
	ID string

	// Score is the store's similarity score, higher is closer.
	Score float64

	// Metadata is the record metadata as stored.
	Metadata domain.RecordMetadata
}

// IndexStats describes the index.
type IndexStats struct {
	// VectorCount is the total number of records.
	VectorCount int

	// Dimension is the configured vector dimension.
	Dimension int
}

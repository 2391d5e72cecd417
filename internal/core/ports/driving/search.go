package driving

import (
	"context"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// SearchService answers natural-language queries against the index.
type SearchService interface {
	// Search runs the hybrid retrieval pipeline: embed the query,
	// over-fetch candidates with an advisory keyword filter, rerank,
	// and return at most opts.TopK results sorted by descending score.
	// An empty index yields an empty slice, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.QueryResult, error)
}

package domain

import "errors"

// The error taxonomy of the pipeline. Every external call site maps
// library or transport failures into one of these kinds before
// propagating, so surfaces can decide between "abort", "skip and
// continue", and "reject before any remote call".
var (
	// ErrConfiguration indicates missing or invalid credentials, an
	// unreachable required service, or an index dimension mismatch.
	// Fatal: reported once, process exits non-zero.
	ErrConfiguration = errors.New("configuration error")

	// ErrExtraction indicates a single file failed to parse. The file
	// is skipped and the ingestion run continues.
	ErrExtraction = errors.New("extraction error")

	// ErrEmbedding indicates the embedding model call failed. The
	// affected batch is retried once, then skipped.
	ErrEmbedding = errors.New("embedding error")

	// ErrStore indicates a vector store call failed. Write-path
	// failures abort only the affected batch; query-path failures
	// surface as an empty result set plus a logged error.
	ErrStore = errors.New("vector store error")

	// ErrValidation indicates bad caller input (empty query, zero or
	// negative top-k, malformed date filter). Rejected before any
	// remote call with a user-facing message.
	ErrValidation = errors.New("validation error")
)

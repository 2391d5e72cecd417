package driven

import "context"

// Extractor converts one document format into plain text. Parser
// internals are out of scope; extractors are registered per file
// extension and treated as black boxes by the ingestion orchestrator.
type Extractor interface {
	// Extensions returns the lower-case file extensions (with dot)
	// this extractor handles, e.g. [".txt", ".log"].
	Extensions() []string

	// Extract reads the file at path and returns its text content.
	Extract(ctx context.Context, path string) (string, error)
}

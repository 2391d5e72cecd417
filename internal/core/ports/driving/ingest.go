package driving

import (
	"context"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// IngestService loads documents into the knowledge base.
type IngestService interface {
	// IngestDirectory processes every supported file in dir: extract,
	// chunk, embed in batches, upsert. One failing file or batch never
	// aborts the run; failures are collected in the report.
	IngestDirectory(ctx context.Context, dir string) (*domain.IngestReport, error)

	// IngestFile processes a single file through the same path.
	IngestFile(ctx context.Context, path string) (*domain.IngestReport, error)
}

package driving

import (
	"context"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// MaintenanceService reports on and prunes the knowledge base.
type MaintenanceService interface {
	// Health aggregates index statistics. Source and token figures are
	// computed from a bounded sample and are approximate.
	Health(ctx context.Context) (*domain.HealthReport, error)

	// Purge deletes records matching the options. Dry-run (the
	// default) only reports an estimate. Unfiltered forced purges must
	// be confirmed by the caller before invoking this.
	Purge(ctx context.Context, opts domain.PurgeOptions) (*domain.PurgeReport, error)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/logger"
)

// Ensure MaintenanceService implements the interface.
var _ driving.MaintenanceService = (*MaintenanceService)(nil)

// maxSampleSize bounds how many records health and purge estimates
// read from the index.
const maxSampleSize = 1000

// probeValue fills the probe vector used to sample the index. The
// index rejects all-zero vectors under cosine similarity.
const probeValue = 0.1

// MaintenanceService reports on and prunes the vector index.
type MaintenanceService struct {
	index driven.VectorIndex
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(index driven.VectorIndex) *MaintenanceService {
	return &MaintenanceService{index: index}
}

// Health aggregates index statistics. Source and token figures come
// from a bounded sample, so they are approximate on large indexes.
func (s *MaintenanceService) Health(ctx context.Context) (*domain.HealthReport, error) {
	logger.Section("Health")

	stats, err := s.index.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe index: %w", err)
	}
	logger.Debug("Index: %d vectors, dimension %d", stats.VectorCount, stats.Dimension)

	report := &domain.HealthReport{
		VectorCount: stats.VectorCount,
		Dimension:   stats.Dimension,
		Sources:     map[string]int{},
	}
	if stats.VectorCount == 0 {
		return report, nil
	}

	matches, err := s.sample(ctx, stats, nil)
	if err != nil {
		return nil, err
	}
	report.SampleSize = len(matches)

	tokens := domain.TokenStats{Min: -1}
	for _, m := range matches {
		report.Sources[m.Metadata.Source]++

		tc := m.Metadata.TokenCount
		tokens.Count++
		tokens.Avg += float64(tc)
		if tokens.Min < 0 || tc < tokens.Min {
			tokens.Min = tc
		}
		if tc > tokens.Max {
			tokens.Max = tc
		}
	}
	if tokens.Count > 0 {
		tokens.Avg /= float64(tokens.Count)
	} else {
		tokens.Min = 0
	}
	report.Tokens = tokens

	return report, nil
}

// Purge deletes records matching the options. Dry-run (the default)
// estimates without touching the index. An unfiltered destructive
// purge requires Force.
func (s *MaintenanceService) Purge(ctx context.Context, opts domain.PurgeOptions) (*domain.PurgeReport, error) {
	logger.Section("Purge")

	if opts.OlderThan != "" {
		if _, err := time.Parse("2006-01-02", opts.OlderThan); err != nil {
			return nil, fmt.Errorf("older-than must be YYYY-MM-DD, got %q: %w", opts.OlderThan, domain.ErrValidation)
		}
	}

	filter := &driven.Filter{
		SourceEquals:  opts.Source,
		IndexedBefore: opts.OlderThan,
	}
	unfiltered := filter.IsZero()

	if unfiltered && !opts.DryRun && !opts.Force {
		return nil, fmt.Errorf("refusing to purge the whole index without force: %w", domain.ErrValidation)
	}

	stats, err := s.index.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe index: %w", err)
	}

	estimated := stats.VectorCount
	if !unfiltered {
		matches, err := s.sample(ctx, stats, filter)
		if err != nil {
			return nil, err
		}
		estimated = len(matches)
	}

	if opts.DryRun {
		logger.Info("Dry run: would delete ~%d of %d vectors", estimated, stats.VectorCount)
		return &domain.PurgeReport{
			DryRun:    true,
			Estimated: estimated,
			Remaining: stats.VectorCount - estimated,
		}, nil
	}

	if unfiltered {
		logger.Warn("Deleting every vector in the index")
		err = s.index.DeleteAll(ctx)
	} else {
		err = s.index.DeleteByFilter(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}

	remaining := stats.VectorCount - estimated
	if after, err := s.index.Describe(ctx); err == nil {
		remaining = after.VectorCount
	}

	return &domain.PurgeReport{
		DryRun:    false,
		Estimated: estimated,
		Remaining: remaining,
	}, nil
}

// sample reads up to maxSampleSize records via a probe query. The
// index has no listing API, so a neutral vector stands in for one.
func (s *MaintenanceService) sample(
	ctx context.Context, stats driven.IndexStats, filter *driven.Filter,
) ([]driven.VectorMatch, error) {
	topK := stats.VectorCount
	if topK > maxSampleSize {
		topK = maxSampleSize
	}
	if topK == 0 {
		return nil, nil
	}

	probe := make([]float32, stats.Dimension)
	for i := range probe {
		probe[i] = probeValue
	}

	matches, err := s.index.Query(ctx, probe, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("sample index: %w", err)
	}
	return matches, nil
}

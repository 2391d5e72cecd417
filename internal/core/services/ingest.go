package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Default ingestion parameters.
const (
	// DefaultBatchSize is the number of chunks embedded and upserted
	// per round trip.
	DefaultBatchSize = 32

	// DefaultWorkers is the number of files processed concurrently.
	DefaultWorkers = 1
)

// Chunker turns extracted text into annotated chunks.
type Chunker interface {
	ChunkDocument(source, text string) []domain.Chunk
}

// ExtractorRegistry dispatches files to extraction strategies.
type ExtractorRegistry interface {
	For(path string) (driven.Extractor, error)
	Supported(path string) bool
}

// IngestService loads documents into the vector index: extract,
// chunk, embed in batches, upsert.
type IngestService struct {
	registry  ExtractorRegistry
	chunker   Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	batchSize int
	workers   int
	now       func() time.Time
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithBatchSize sets the embed/upsert batch size.
func WithBatchSize(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers sets the number of concurrent file workers.
func WithWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// withClock overrides the timestamp source in tests.
func withClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		s.now = now
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	registry ExtractorRegistry,
	chunker Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		registry:  registry,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestDirectory walks dir and ingests every supported file. One
// failing file never aborts the run; its error lands in the report.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) (*domain.IngestReport, error) {
	logger.Section("Ingest Directory")
	logger.Info("Scanning %s", dir)

	report := &domain.IngestReport{}
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories hold tooling state, not documents.
			if name := d.Name(); name != "." && len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.registry.Supported(path) {
			report.FilesSkipped++
			logger.Debug("Skipping unsupported file %s", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %v: %w", dir, err, domain.ErrExtraction)
	}

	logger.Info("Found %d supported files (%d skipped)", len(paths), report.FilesSkipped)
	s.processFiles(ctx, paths, report)

	return report, nil
}

// IngestFile ingests a single file through the same pipeline.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	logger.Section("Ingest File")

	report := &domain.IngestReport{}
	if !s.registry.Supported(path) {
		report.FilesSkipped++
		return report, nil
	}
	s.processFiles(ctx, []string{path}, report)
	return report, nil
}

// processFiles runs the per-file pipeline over a bounded worker pool
// and merges results into report.
func (s *IngestService) processFiles(ctx context.Context, paths []string, report *domain.IngestReport) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan string)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				written, err := s.ingestOne(ctx, path)

				mu.Lock()
				report.ChunksWritten += written
				if err != nil {
					report.FilesSkipped++
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", path, err))
				} else {
					report.FilesProcessed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		work <- path
	}
	close(work)
	wg.Wait()
}

// ingestOne extracts, chunks, embeds and upserts a single file,
// returning the number of chunks written. Cancellation is honoured
// between batches, never inside one.
func (s *IngestService) ingestOne(ctx context.Context, path string) (int, error) {
	extractor, err := s.registry.For(path)
	if err != nil {
		return 0, err
	}

	text, err := extractor.Extract(ctx, path)
	if err != nil {
		return 0, err
	}

	chunks := s.chunker.ChunkDocument(filepath.ToSlash(path), text)
	if len(chunks) == 0 {
		logger.Debug("No chunks from %s", path)
		return 0, nil
	}
	logger.Debug("%s: %d chunks", path, len(chunks))

	indexedDate := s.now().UTC().Format("2006-01-02")

	written := 0
	for start := 0; start < len(chunks); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		n, err := s.writeBatch(ctx, batch, indexedDate)
		if err != nil {
			// One retry; transient API failures are common enough on
			// long runs to be worth absorbing.
			logger.Warn("Batch failed, retrying: %v", err)
			n, err = s.writeBatch(ctx, batch, indexedDate)
			if err != nil {
				return written, fmt.Errorf("batch at chunk %d: %w", start, err)
			}
		}
		written += n
	}

	return written, nil
}

// writeBatch embeds a batch of chunks and upserts the records.
func (s *IngestService) writeBatch(ctx context.Context, batch []domain.Chunk, indexedDate string) (int, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(embeddings) != len(batch) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks: %w",
			len(embeddings), len(batch), domain.ErrEmbedding)
	}

	records := make([]domain.VectorRecord, len(batch))
	for i, c := range batch {
		records[i] = domain.VectorRecord{
			ID:        c.ID,
			Embedding: embeddings[i],
			Metadata: domain.RecordMetadata{
				Text:        c.Text,
				Source:      c.Source,
				ChunkID:     c.ID,
				Position:    c.Position,
				TokenCount:  c.TokenCount,
				IndexedDate: indexedDate,
			},
		}
	}

	return s.index.Upsert(ctx, records)
}

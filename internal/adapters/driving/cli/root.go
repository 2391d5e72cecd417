// Package cli implements the filekb command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	embedollama "github.com/calder-labs/filekb/internal/adapters/driven/embedding/ollama"
	embedopenai "github.com/calder-labs/filekb/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/calder-labs/filekb/internal/adapters/driven/llm/openai"
	"github.com/calder-labs/filekb/internal/adapters/driven/vectorindex/pinecone"
	"github.com/calder-labs/filekb/internal/chunker"
	"github.com/calder-labs/filekb/internal/config"
	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/core/services"
	"github.com/calder-labs/filekb/internal/extractors"
	extrhtml "github.com/calder-labs/filekb/internal/extractors/html"
	extrmarkdown "github.com/calder-labs/filekb/internal/extractors/markdown"
	extrpdf "github.com/calder-labs/filekb/internal/extractors/pdf"
	extrplaintext "github.com/calder-labs/filekb/internal/extractors/plaintext"
	"github.com/calder-labs/filekb/internal/logger"
)

var (
	flagVerbose bool
	flagConfig  string
)

// Wired services, populated by initEngine. Tests swap these directly.
var (
	cfg                *config.Config
	registry           *extractors.Registry
	ingestService      driving.IngestService
	searchService      driving.SearchService
	answerService      driving.AnswerService
	maintenanceService driving.MaintenanceService

	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "filekb",
	Short: "Personal knowledge base over your files",
	Long: `filekb indexes local documents into a hosted vector index and
answers natural-language queries against them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose diagnostic output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.filekb/config.toml)")
}

// Execute runs the CLI. Interrupt cancels the command context so
// long-running commands (ingest, watch, serve) stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeAll()
	return rootCmd.ExecuteContext(ctx)
}

// initEngine loads configuration and wires the service graph. needLLM
// additionally requires completion credentials.
func initEngine(needLLM bool) error {
	if searchService != nil && (!needLLM || answerService != nil) {
		return nil
	}

	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if err := cfg.Validate(needLLM); err != nil {
		return err
	}

	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	index, err := pinecone.NewIndex(pinecone.Config{
		APIKey:    cfg.PineconeAPIKey,
		Host:      cfg.PineconeHost,
		IndexName: cfg.Index.Name,
		Namespace: cfg.Index.Namespace,
	})
	if err != nil {
		return err
	}
	closers = append(closers, index)

	// Fail fast on unreachable index or a dimension mismatch before
	// any command touches the write or query path.
	stats, err := index.Describe(context.Background())
	if err != nil {
		return fmt.Errorf("vector index unreachable, check PINECONE_API_KEY and PINECONE_INDEX_HOST: %w", err)
	}
	if stats.Dimension != 0 && stats.Dimension != embedder.Dimensions() {
		return fmt.Errorf("index dimension %d does not match embedder dimension %d: %w",
			stats.Dimension, embedder.Dimensions(), domain.ErrConfiguration)
	}

	registry = extractors.NewRegistry(
		extrplaintext.New(),
		extrmarkdown.New(),
		extrhtml.New(),
		extrpdf.New(),
	)

	splitter := chunker.New(
		chunker.WithMinLength(cfg.Chunker.MinLength),
		chunker.WithMaxLength(cfg.Chunker.MaxLength),
		chunker.WithOverlap(cfg.Chunker.Overlap),
	)

	ingestService = services.NewIngestService(registry, splitter, embedder, index,
		services.WithBatchSize(cfg.Ingest.BatchSize),
		services.WithWorkers(cfg.Ingest.Workers),
	)
	searchService = services.NewSearchService(embedder, index)
	maintenanceService = services.NewMaintenanceService(index)

	if needLLM {
		llm, err := llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.LLM.Model,
		})
		if err != nil {
			return err
		}
		closers = append(closers, llm)
		answerService = services.NewAnswerService(searchService, llm)
	}

	logger.Debug("Engine wired: embedder=%s index=%s", embedder.ModelName(), cfg.Index.Name)
	return nil
}

func buildEmbedder() (driven.EmbeddingService, error) {
	switch cfg.Embedder.Provider {
	case config.ProviderOllama:
		return embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL:    cfg.Embedder.BaseURL,
			Model:      cfg.Embedder.Model,
			Dimensions: cfg.Embedder.Dimensions,
		}), nil
	default:
		return embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.Embedder.BaseURL,
			Model:             cfg.Embedder.Model,
			Dimensions:        cfg.Embedder.Dimensions,
			RequestsPerMinute: cfg.Embedder.RequestsPerMinute,
		})
	}
}

func closeAll() {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	closers = nil
}

// Package config loads settings from a TOML file and secrets from the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/calder-labs/filekb/internal/chunker"
	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/services"
	"github.com/calder-labs/filekb/internal/logger"
)

// Environment variable names. API keys only ever come from the
// environment, never from the config file.
const (
	EnvPineconeAPIKey = "PINECONE_API_KEY"
	EnvPineconeHost   = "PINECONE_INDEX_HOST"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
)

// Embedder providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config is the full application configuration.
type Config struct {
	Index    IndexConfig    `toml:"index"`
	Embedder EmbedderConfig `toml:"embedder"`
	LLM      LLMConfig      `toml:"llm"`
	Chunker  ChunkerConfig  `toml:"chunker"`
	Ingest   IngestConfig   `toml:"ingest"`
	Serve    ServeConfig    `toml:"serve"`

	// Secrets, populated from the environment.
	PineconeAPIKey string `toml:"-"`
	PineconeHost   string `toml:"-"`
	OpenAIAPIKey   string `toml:"-"`
}

// IndexConfig names the vector index.
type IndexConfig struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
}

// EmbedderConfig selects and tunes the embedding provider.
type EmbedderConfig struct {
	Provider          string `toml:"provider"`
	Model             string `toml:"model"`
	BaseURL           string `toml:"base_url"`
	Dimensions        int    `toml:"dimensions"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// LLMConfig tunes answer generation.
type LLMConfig struct {
	Model string `toml:"model"`
}

// ChunkerConfig tunes document splitting.
type ChunkerConfig struct {
	MinLength int `toml:"min_length"`
	MaxLength int `toml:"max_length"`
	Overlap   int `toml:"overlap"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	BatchSize int `toml:"batch_size"`
	Workers   int `toml:"workers"`
}

// ServeConfig tunes the HTTP API server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration with every tunable at its
// default.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Name: "poc-file-kb",
		},
		Embedder: EmbedderConfig{
			Provider: ProviderOpenAI,
		},
		Chunker: ChunkerConfig{
			MinLength: chunker.DefaultMinLength,
			MaxLength: chunker.DefaultMaxLength,
			Overlap:   chunker.DefaultOverlap,
		},
		Ingest: IngestConfig{
			BatchSize: services.DefaultBatchSize,
			Workers:   services.DefaultWorkers,
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (or ~/.filekb/config.toml when path is empty), then environment
// secrets. A .env file in the working directory is honoured.
func Load(path string) (*Config, error) {
	// Best effort; most environments set real variables instead.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file")
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".filekb", "config.toml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %v: %w", path, err, domain.ErrConfiguration)
			}
			logger.Debug("Loaded config file %s", path)
		case os.IsNotExist(err) && !explicit:
			// No config file is fine; defaults apply.
		default:
			return nil, fmt.Errorf("reading %s: %v: %w", path, err, domain.ErrConfiguration)
		}
	}

	cfg.PineconeAPIKey = os.Getenv(EnvPineconeAPIKey)
	cfg.PineconeHost = os.Getenv(EnvPineconeHost)
	cfg.OpenAIAPIKey = os.Getenv(EnvOpenAIAPIKey)

	return cfg, nil
}

// Validate checks that the configuration can drive the store and
// embedder. needLLM additionally requires completion credentials.
func (c *Config) Validate(needLLM bool) error {
	if c.PineconeAPIKey == "" {
		return fmt.Errorf("%s is not set; export it or add it to .env: %w",
			EnvPineconeAPIKey, domain.ErrConfiguration)
	}
	if c.PineconeHost == "" {
		return fmt.Errorf("%s is not set; find the index host in the Pinecone console: %w",
			EnvPineconeHost, domain.ErrConfiguration)
	}

	switch c.Embedder.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%s is not set but embedder.provider is %q: %w",
				EnvOpenAIAPIKey, ProviderOpenAI, domain.ErrConfiguration)
		}
	case ProviderOllama:
		// Local server, no key needed.
	default:
		return fmt.Errorf("unknown embedder.provider %q (want %q or %q): %w",
			c.Embedder.Provider, ProviderOpenAI, ProviderOllama, domain.ErrConfiguration)
	}

	if needLLM && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%s is required for answer generation: %w",
			EnvOpenAIAPIKey, domain.ErrConfiguration)
	}

	if c.Chunker.MinLength >= c.Chunker.MaxLength {
		return fmt.Errorf("chunker.min_length %d must be below max_length %d: %w",
			c.Chunker.MinLength, c.Chunker.MaxLength, domain.ErrConfiguration)
	}

	return nil
}

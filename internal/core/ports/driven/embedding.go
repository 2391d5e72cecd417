package driven

import "context"

// EmbeddingService generates vector embeddings from text. The output
// is deterministic for a fixed model version and carries no side
// effects; batching exists purely for throughput.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is determined by the model and must match the vector index
	// configuration; the pipeline validates it at startup and on every
	// batch rather than assuming a value.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup so misconfiguration fails fast.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

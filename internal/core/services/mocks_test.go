package services

import (
	"context"
	"strings"
	"sync"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
)

// mockEmbedder is a hand-rolled EmbeddingService for tests.
type mockEmbedder struct {
	embedFn    func(ctx context.Context, text string) ([]float32, error)
	batchFn    func(ctx context.Context, texts []string) ([][]float32, error)
	mu         sync.Mutex
	batchCalls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int             { return 3 }
func (m *mockEmbedder) ModelName() string           { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error  { return nil }
func (m *mockEmbedder) Close() error                { return nil }

// queryCall records one Query invocation.
type queryCall struct {
	topK   int
	filter *driven.Filter
}

// mockIndex is a hand-rolled VectorIndex for tests.
type mockIndex struct {
	queryFn    func(ctx context.Context, embedding []float32, topK int, filter *driven.Filter) ([]driven.VectorMatch, error)
	upsertFn   func(ctx context.Context, records []domain.VectorRecord) (int, error)
	stats      driven.IndexStats
	statsErr   error
	mu         sync.Mutex
	queries    []queryCall
	upserts    [][]domain.VectorRecord
	deletedBy  []*driven.Filter
	deletedAll int
}

func (m *mockIndex) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	m.mu.Lock()
	m.upserts = append(m.upserts, records)
	m.mu.Unlock()
	if m.upsertFn != nil {
		return m.upsertFn(ctx, records)
	}
	return len(records), nil
}

func (m *mockIndex) Query(ctx context.Context, embedding []float32, topK int, filter *driven.Filter) ([]driven.VectorMatch, error) {
	m.mu.Lock()
	m.queries = append(m.queries, queryCall{topK: topK, filter: filter})
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(ctx, embedding, topK, filter)
	}
	return nil, nil
}

func (m *mockIndex) DeleteByFilter(ctx context.Context, filter *driven.Filter) error {
	m.deletedBy = append(m.deletedBy, filter)
	return nil
}

func (m *mockIndex) DeleteAll(context.Context) error {
	m.deletedAll++
	return nil
}

func (m *mockIndex) Describe(context.Context) (driven.IndexStats, error) {
	return m.stats, m.statsErr
}

func (m *mockIndex) Ping(context.Context) error { return nil }
func (m *mockIndex) Close() error               { return nil }

// chatCall records one Chat invocation.
type chatCall struct {
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

// mockLLM is a hand-rolled LLMService for tests.
type mockLLM struct {
	chatFn func(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error)
	calls  []chatCall
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls = append(m.calls, chatCall{messages: messages, opts: opts})
	if m.chatFn != nil {
		return m.chatFn(ctx, messages, opts)
	}
	return "mock answer", nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockExtractor returns canned text keyed by path.
type mockExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (m *mockExtractor) Extensions() []string { return []string{".txt"} }

func (m *mockExtractor) Extract(_ context.Context, path string) (string, error) {
	if err := m.errs[path]; err != nil {
		return "", err
	}
	return m.texts[path], nil
}

// mockRegistry routes every .txt file to a single extractor.
type mockRegistry struct {
	extractor driven.Extractor
}

func (m *mockRegistry) For(path string) (driven.Extractor, error) {
	return m.extractor, nil
}

func (m *mockRegistry) Supported(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

// lineChunker emits one chunk per non-empty line, which keeps batch
// counts deterministic in tests.
type lineChunker struct{}

func (lineChunker) ChunkDocument(source, text string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:         domain.NewChunkID(source, line),
			Source:     source,
			Position:   len(chunks),
			Text:       line,
			TokenCount: domain.CountTokens(line),
		})
	}
	return chunks
}

package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Default search parameters.
const (
	DefaultTopK = 5

	// overFetchFactor over-requests candidates from the index so that
	// reranking and threshold filtering still leave topK results.
	overFetchFactor = 2

	// storeWeight and rerankWeight blend the index similarity score
	// with the exact client-side rerank score. The index score comes
	// from approximate search and can be skewed by the metadata
	// filter; the rerank recomputes similarity directly.
	storeWeight  = 0.3
	rerankWeight = 0.7

	// minKeywordLen drops short tokens from the advisory filter.
	minKeywordLen = 3

	// minFilterKeywords is the smallest keyword set worth filtering
	// on; a single keyword narrows recall too aggressively.
	minFilterKeywords = 2
)

// stopwords are excluded from keyword extraction.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "have": {}, "this": {},
	"that": {}, "with": {}, "from": {}, "they": {}, "what": {}, "which": {},
	"their": {}, "will": {}, "would": {}, "there": {}, "about": {},
	"when": {}, "where": {}, "how": {}, "who": {}, "why": {}, "does": {},
	"into": {}, "than": {}, "them": {}, "then": {}, "these": {}, "some": {},
}

// scoredMatch holds a candidate between retrieval and ranking.
type scoredMatch struct {
	match driven.VectorMatch
	final float64
}

// SearchService answers natural-language queries with hybrid
// retrieval: vector similarity narrowed by an advisory keyword filter,
// then an exact re-embedding rerank.
type SearchService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewSearchService creates a new search service.
func NewSearchService(embedder driven.EmbeddingService, index driven.VectorIndex) *SearchService {
	return &SearchService{
		embedder: embedder,
		index:    index,
	}
}

// Search runs the retrieval pipeline and returns at most opts.TopK
// results sorted by descending score.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.QueryResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty: %w", domain.ErrValidation)
	}

	topK := opts.TopK
	if topK < 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d: %w", opts.TopK, domain.ErrValidation)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0,1], got %g: %w", opts.Threshold, domain.ErrValidation)
	}
	logger.Debug("TopK: %d, Threshold: %g, Rerank: %t", topK, opts.Threshold, opts.Rerank)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	keywords := ExtractKeywords(query)
	logger.Debug("Keywords: %v", keywords)

	fetchK := topK * overFetchFactor
	matches, err := s.fetchCandidates(ctx, embedding, fetchK, keywords)
	if err != nil {
		return nil, err
	}
	logger.Debug("Candidates: %d", len(matches))

	scored := make([]scoredMatch, len(matches))
	for i, m := range matches {
		scored[i] = scoredMatch{match: m, final: m.Score}
	}
	if opts.Rerank && len(matches) > 0 {
		if err := s.rerank(ctx, embedding, scored); err != nil {
			return nil, err
		}
	}

	// Stable: candidates with equal scores keep index order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].final > scored[j].final
	})

	results := make([]domain.QueryResult, 0, topK)
	for _, sm := range scored {
		if sm.final < opts.Threshold {
			continue
		}
		results = append(results, domain.QueryResult{
			Text:   sm.match.Metadata.Text,
			Source: sm.match.Metadata.Source,
			Score:  sm.final,
		})
		if len(results) == topK {
			break
		}
	}

	logger.Info("Returning %d results", len(results))
	return results, nil
}

// fetchCandidates queries the index with an advisory keyword filter.
// When the filtered query comes back empty the filter was too strict,
// so the query is retried without it.
func (s *SearchService) fetchCandidates(
	ctx context.Context, embedding []float32, fetchK int, keywords []string,
) ([]driven.VectorMatch, error) {
	var filter *driven.Filter
	if len(keywords) >= minFilterKeywords {
		filter = &driven.Filter{AnyTextContains: keywords}
	}

	matches, err := s.index.Query(ctx, embedding, fetchK, filter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	if len(matches) == 0 && filter != nil {
		logger.Debug("Filtered query empty, retrying unfiltered")
		matches, err = s.index.Query(ctx, embedding, fetchK, nil)
		if err != nil {
			return nil, fmt.Errorf("query index unfiltered: %w", err)
		}
	}

	return matches, nil
}

// rerank re-embeds the candidate texts and blends the exact cosine
// similarity against the query vector into each final score.
func (s *SearchService) rerank(ctx context.Context, queryVec []float32, scored []scoredMatch) error {
	texts := make([]string, len(scored))
	for i, sm := range scored {
		texts[i] = sm.match.Metadata.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed candidates for rerank: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("expected %d rerank embeddings, got %d: %w",
			len(texts), len(embeddings), domain.ErrEmbedding)
	}

	for i := range scored {
		scored[i].final = storeWeight*scored[i].match.Score +
			rerankWeight*cosine(queryVec, embeddings[i])
	}
	return nil
}

// cosine returns the cosine similarity of two vectors. Mismatched
// lengths and zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ExtractKeywords lowercases the query, strips punctuation, and keeps
// distinct non-stopword tokens of minKeywordLen or more characters,
// preserving first-occurrence order.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	seen := make(map[string]struct{}, len(fields))
	var keywords []string
	for _, f := range fields {
		if len(f) < minKeywordLen {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}

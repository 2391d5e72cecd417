// Package pinecone provides a vector index adapter for the Pinecone
// data-plane REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultIndexName = "poc-file-kb"
	DefaultTimeout   = 30 * time.Second
)

// Config holds configuration for the Pinecone index client.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the index data-plane URL, e.g.
	// https://poc-file-kb-abc123.svc.us-east-1.pinecone.io (required).
	Host string

	// IndexName identifies the index, used in log and error text
	// (default: poc-file-kb).
	IndexName string

	// Namespace scopes all operations; empty uses the default
	// namespace.
	Namespace string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index talks to one Pinecone index over its data-plane API.
type Index struct {
	client    *http.Client
	host      string
	apiKey    string
	name      string
	namespace string
}

type upsertRequest struct {
	Vectors   []wireVector `json:"vectors"`
	Namespace string       `json:"namespace,omitempty"`
}

type wireVector struct {
	ID       string                `json:"id"`
	Values   []float32             `json:"values"`
	Metadata domain.RecordMetadata `json:"metadata"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
	Namespace       string         `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                `json:"id"`
		Score    float64               `json:"score"`
		Metadata domain.RecordMetadata `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	DeleteAll bool           `json:"deleteAll,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
}

type statsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
	Dimension        int `json:"dimension"`
}

// NewIndex creates a Pinecone index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required: %w", domain.ErrConfiguration)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index host is required: %w", domain.ErrConfiguration)
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:    &http.Client{Timeout: cfg.Timeout},
		host:      cfg.Host,
		apiKey:    cfg.APIKey,
		name:      cfg.IndexName,
		namespace: cfg.Namespace,
	}, nil
}

// Name returns the index name.
func (x *Index) Name() string {
	return x.name
}

// Upsert writes records to the index and returns the count accepted.
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	vectors := make([]wireVector, len(records))
	for i, r := range records {
		vectors[i] = wireVector{ID: r.ID, Values: r.Embedding, Metadata: r.Metadata}
	}

	var resp upsertResponse
	if err := x.post(ctx, "/vectors/upsert", upsertRequest{Vectors: vectors, Namespace: x.namespace}, &resp); err != nil {
		return 0, err
	}
	return resp.UpsertedCount, nil
}

// Query returns the topK nearest records, optionally narrowed by a
// metadata filter.
func (x *Index) Query(ctx context.Context, embedding []float32, topK int, filter *driven.Filter) ([]driven.VectorMatch, error) {
	req := queryRequest{
		Vector:          embedding,
		TopK:            topK,
		IncludeMetadata: true,
		Filter:          encodeFilter(filter),
		Namespace:       x.namespace,
	}

	var resp queryResponse
	if err := x.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]driven.VectorMatch, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = driven.VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}

// DeleteByFilter removes every record matching the filter.
func (x *Index) DeleteByFilter(ctx context.Context, filter *driven.Filter) error {
	encoded := encodeFilter(filter)
	if encoded == nil {
		return fmt.Errorf("pinecone: refusing filterless delete, use DeleteAll: %w", domain.ErrValidation)
	}
	return x.post(ctx, "/vectors/delete", deleteRequest{Filter: encoded, Namespace: x.namespace}, nil)
}

// DeleteAll removes every record in the namespace.
func (x *Index) DeleteAll(ctx context.Context) error {
	return x.post(ctx, "/vectors/delete", deleteRequest{DeleteAll: true, Namespace: x.namespace}, nil)
}

// Describe returns index-level statistics.
func (x *Index) Describe(ctx context.Context) (driven.IndexStats, error) {
	var resp statsResponse
	if err := x.post(ctx, "/describe_index_stats", struct{}{}, &resp); err != nil {
		return driven.IndexStats{}, err
	}
	return driven.IndexStats{VectorCount: resp.TotalVectorCount, Dimension: resp.Dimension}, nil
}

// Ping checks reachability via the stats endpoint.
func (x *Index) Ping(ctx context.Context) error {
	_, err := x.Describe(ctx)
	return err
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// post sends a JSON request to the data-plane API and decodes the
// response into out when out is non-nil.
func (x *Index) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s: send request: %v: %w", x.name, err, domain.ErrStore)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pinecone %s: read response: %v: %w", x.name, err, domain.ErrStore)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinecone %s: %s returned status %d: %s: %w",
			x.name, path, resp.StatusCode, string(respBody), domain.ErrStore)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("pinecone %s: decode response: %v: %w", x.name, err, domain.ErrStore)
		}
	}
	return nil
}

// encodeFilter translates the port-level filter into Pinecone's
// metadata filter syntax. A nil or zero filter encodes to nil, which
// the query request omits entirely.
func encodeFilter(f *driven.Filter) map[string]any {
	if f == nil || f.IsZero() {
		return nil
	}

	var clauses []map[string]any

	if len(f.AnyTextContains) > 0 {
		terms := make([]map[string]any, len(f.AnyTextContains))
		for i, kw := range f.AnyTextContains {
			terms[i] = map[string]any{"text": map[string]any{"$contains": kw}}
		}
		if len(terms) == 1 {
			clauses = append(clauses, terms[0])
		} else {
			clauses = append(clauses, map[string]any{"$or": terms})
		}
	}

	if f.SourceEquals != "" {
		clauses = append(clauses, map[string]any{"source": map[string]any{"$eq": f.SourceEquals}})
	}

	if f.IndexedBefore != "" {
		clauses = append(clauses, map[string]any{"indexed_date": map[string]any{"$lt": f.IndexedBefore}})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return map[string]any{"$and": clauses}
	}
}

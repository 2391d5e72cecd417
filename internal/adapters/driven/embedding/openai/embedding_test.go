package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/filekb/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Dimensions:        3,
		RequestsPerMinute: 100000,
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingServiceRequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEmbedBatch(t *testing.T) {
	var gotReq embeddingRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		// Answer out of order; the adapter must restore input order.
		resp := map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{4, 5, 6}, "index": 1},
				{"embedding": []float64{1, 2, 3}, "index": 0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{1, 2, 3}, embeddings[0])
	assert.Equal(t, []float32{4, 5, 6}, embeddings[1])
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	assert.Equal(t, 3, gotReq.Dimensions)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedBatchAPIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEmbedBatchMissingEmbedding(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{1, 2, 3}, "index": 0},
			},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbedSingle(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0.5, 0.25, 0.125}, "index": 0},
			},
		})
	})

	embedding, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25, 0.125}, embedding)
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPingFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := svc.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestDefaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewEmbeddingService(Config{})
		assert.Error(t, err)
	})

	t.Run("infers dimensions from model", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
		require.NoError(t, err)
		assert.Equal(t, 3072, svc.Dimensions())
	})

	t.Run("explicit dimensions win", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k", Dimensions: 256})
		require.NoError(t, err)
		assert.Equal(t, 256, svc.Dimensions())
	})
}

func TestEmbedBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("sends inputs and orders results by index", func(t *testing.T) {
		var got embeddingRequest
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			// Results deliberately out of order to exercise index ordering.
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"index": 1, "embedding": []float64{0.3, 0.4}},
					{"index": 0, "embedding": []float64{0.1, 0.2}},
				},
			})
		})

		vectors, err := svc.EmbedBatch(ctx, []string{"first chunk", "second chunk"})
		require.NoError(t, err)
		assert.Equal(t, []string{"first chunk", "second chunk"}, got.Input)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
		assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
	})

	t.Run("surfaces api errors", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "invalid_request_error", "message": "bad key"},
			})
		})

		_, err := svc.EmbedBatch(ctx, []string{"text"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad key")
	})
}

func TestPing(t *testing.T) {
	ctx := context.Background()

	t.Run("ok on 200", func(t *testing.T) {
		var gotPath string
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, svc.Ping(ctx))
		assert.Equal(t, "/models", gotPath)
	})

	t.Run("reports non-200 status", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		})

		err := svc.Ping(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("reports unreachable server", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)
		assert.Error(t, svc.Ping(ctx))
	})
}

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding"
)

// fakeOllama answers /api/embed with one [len(text), 1, 0] vector per input.
func fakeOllama(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		resp := embedResponse{Model: req.Model}
		for _, in := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(len(in)), 1, 0})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultBatchSize, s.batchSize)
}

func TestEmbeddingService_Embed(t *testing.T) {
	var requests int32
	srv := fakeOllama(t, &requests)
	s := NewEmbeddingService(Config{BaseURL: srv.URL + "/", Model: "test-model"})

	vec, err := s.Embed(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1, 0}, vec)
	assert.Equal(t, 3, s.Dimensions())
}

func TestEmbeddingService_EmbedBatch_Splits(t *testing.T) {
	var requests int32
	srv := fakeOllama(t, &requests)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "test-model", BatchSize: 2})

	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	for i, v := range vecs {
		assert.Equal(t, float32(i+1), v[0])
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestEmbeddingService_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.Embed(context.Background(), "x")
	require.Error(t, err)

	_, limited := embedding.IsRateLimited(err)
	assert.True(t, limited)
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.EmbedBatch(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEmbeddingService_Ping(t *testing.T) {
	var requests int32
	srv := fakeOllama(t, &requests)

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

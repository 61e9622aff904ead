package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elviskahoro/gtm-growth-machine/pkg/httpclient"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) (*ApiStore, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := httpclient.NewConnFromConfig(&httpclient.Config{
		Scheme:      "http",
		Host:        u.Hostname(),
		Port:        u.Port(),
		TimeoutInMs: 2000,
		Transport: &httpclient.TransportConfig{
			DialTimeoutInMs:      1000,
			MaxIdleConns:         4,
			MaxIdleConnsPerHost:  4,
			IdleConnTimeoutInMs:  1000,
			KeepAliveTimeoutInMs: 1000,
		},
	}, envPrefix)

	return &ApiStore{
		httpClient: client,
		path:       "/v1/embeddings",
		authToken:  "token-123",
		model:      "test-model",
	}, server
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	var gotRequest embedRequest
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		// Respond with items deliberately out of order.
		resp := embedResponse{Data: []embedResponseItem{
			{Index: 1, Embedding: []float32{1, 1}},
			{Index: 0, Embedding: []float32{0, 0}},
			{Index: 2, Embedding: []float32{2, 2}},
		}}
		json.NewEncoder(w).Encode(resp)
	})

	vectors, err := store.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 0}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
	assert.Equal(t, []float32{2, 2}, vectors[2])

	assert.Equal(t, "test-model", gotRequest.Model)
	assert.Equal(t, []string{"a", "b", "c"}, gotRequest.Input)
}

func TestEmbedSendsAuthHeader(t *testing.T) {
	var gotAuth string
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(embedResponse{Data: []embedResponseItem{{Index: 0, Embedding: []float32{1}}}})
	})

	_, err := store.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)
}

func TestEmbedRateLimited(t *testing.T) {
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := store.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.True(t, IsRetryable(err))
}

func TestEmbedServerError(t *testing.T) {
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := store.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrServerError)
	assert.True(t, IsRetryable(err))
}

func TestEmbedClientErrorIsNotRetryable(t *testing.T) {
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := store.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Data: []embedResponseItem{{Index: 0, Embedding: []float32{1}}}})
	})

	_, err := store.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 vectors for 2 texts")
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	called := false
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	vectors, err := store.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.False(t, called)
}

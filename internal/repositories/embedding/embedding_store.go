package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/pkg/httpclient"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const (
	envPrefix    = "EMBEDDING_API"
	pathEnv      = "EMBEDDING_API_PATH"
	authTokenEnv = "EMBEDDING_API_AUTH_TOKEN"

	defaultPath = "/v1/embeddings"
)

type ApiStore struct {
	httpClient *httpclient.HTTPClient
	path       string
	authToken  string
	model      string
}

func createApiStore() *ApiStore {
	viper.SetDefault(pathEnv, defaultPath)
	return &ApiStore{
		httpClient: httpclient.NewConn(envPrefix),
		path:       viper.GetString(pathEnv),
		authToken:  viper.GetString(authTokenEnv),
		model:      structs.GetAppConfig().Configs.EmbeddingModel,
	}
}

// Embed sends one batch of texts to the embedding API and returns the
// vectors in input order.
func (s *ApiStore) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	startTime := time.Now()
	metric.Count("embedding_api_texts", int64(len(texts)), nil)

	builder := httpclient.NewHttpRequestBuilder().
		WithContext(ctx).
		WithEndpoint(s.httpClient.Endpoint).
		WithPath(s.path).
		WithMethod(http.MethodPost).
		WithBody(embedRequest{Model: s.model, Input: texts})
	if s.authToken != "" {
		builder.WithHeader(httpclient.HeaderAuthorization, "Bearer "+s.authToken)
	}
	request, err := builder.BuildContentTypeJson()
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(request)
	if err != nil {
		log.Error().Err(err).Msg("Embedding API request failed")
		return nil, fmt.Errorf("%w: %v", ErrServerError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metric.Incr("embedding_api_rate_limited", nil)
		return nil, ErrRateLimitExceeded
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("embedding api error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding api returned %d vectors for %d texts", len(parsed.Data), len(texts))
	}

	// The API item order is not guaranteed; index restores input order.
	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	vectors := make([][]float32, len(parsed.Data))
	for i, item := range parsed.Data {
		vectors[i] = item.Embedding
	}
	metric.Timing("embedding_api_latency", time.Since(startTime), nil)
	return vectors, nil
}

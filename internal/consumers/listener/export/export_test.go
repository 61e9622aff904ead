package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/pipeline"
	"github.com/elviskahoro/gtm-growth-machine/internal/records"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/dedupcache"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/embedding"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/vector"
)

const testRegistryYaml = `
integrations:
  - name: crm
    primary_key_field: id
    text_field: notes
`

func newTestConsumer(t *testing.T) (*ExportConsumer, *vector.MockDatabase, *embedding.MockStore) {
	t.Helper()
	registry, err := records.NewRegistryFromReader(strings.NewReader(testRegistryYaml))
	require.NoError(t, err)

	cfg := &structs.GetAppConfig().Configs
	cfg.EmbeddingBatchSize = 250
	cfg.UploadBatchSize = 250
	cfg.RetryMaxAttempts = 1
	cfg.EmbeddingModel = "test-model"

	mockDb := &vector.MockDatabase{}
	vector.SetInstance(mockDb)
	mockStore := &embedding.MockStore{}
	embedding.SetInstance(mockStore)
	mockCache := &dedupcache.MockCache{}
	mockCache.On("Seen", mock.Anything).Return(false).Maybe()
	mockCache.On("MarkSeen", mock.Anything).Maybe()
	dedupcache.SetInstance(mockCache)

	pipeline.ResetForTesting()
	consumer := &ExportConsumer{
		registry:  registry,
		runner:    pipeline.NewRunner(),
		limiter:   rate.NewLimiter(rate.Inf, 1),
		AppConfig: structs.GetAppConfig(),
	}
	return consumer, mockDb, mockStore
}

func payloadFor(t *testing.T, recs any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	return data
}

func TestProcessRunsPipelineForIntegration(t *testing.T) {
	consumer, mockDb, mockStore := newTestConsumer(t)
	mockDb.On("FetchExistingKeys", mock.Anything).Return(map[string]struct{}{}, nil)
	mockStore.On("Embed", mock.Anything, []string{"note one", "note two"}).
		Return([][]float32{{0.1}, {0.2}}, nil)
	mockDb.On("BulkUpsert", mock.Anything, mock.MatchedBy(func(points []vector.Point) bool {
		return len(points) == 2 && points[0].Key == "1" && points[1].Key == "2"
	})).Return(nil)

	err := consumer.Process([]Event{
		{Integration: "crm", Payload: payloadFor(t, []map[string]any{
			{"id": "1", "notes": "note one"},
		})},
		{Integration: "crm", Payload: payloadFor(t, []map[string]any{
			{"id": "2", "notes": "note two"},
		})},
	})

	require.NoError(t, err)
	mockStore.AssertNumberOfCalls(t, "Embed", 1)
	mockDb.AssertNumberOfCalls(t, "BulkUpsert", 1)
}

func TestProcessAcceptsSingleObjectPayload(t *testing.T) {
	consumer, mockDb, mockStore := newTestConsumer(t)
	mockDb.On("FetchExistingKeys", mock.Anything).Return(map[string]struct{}{}, nil)
	mockStore.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{0.5}}, nil)
	mockDb.On("BulkUpsert", mock.Anything, mock.Anything).Return(nil)

	err := consumer.Process([]Event{
		{Integration: "crm", Payload: payloadFor(t, map[string]any{
			"id": "7", "notes": "single",
		})},
	})

	require.NoError(t, err)
}

func TestProcessRejectsUnknownIntegration(t *testing.T) {
	consumer, _, _ := newTestConsumer(t)

	err := consumer.Process([]Event{
		{Integration: "nope", Payload: payloadFor(t, map[string]any{"id": "1", "notes": "x"})},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown integration")
}

func TestProcessRejectsMissingIntegration(t *testing.T) {
	consumer, _, _ := newTestConsumer(t)

	err := consumer.Process([]Event{
		{Payload: payloadFor(t, map[string]any{"id": "1", "notes": "x"})},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing integration")
}

func TestProcessRejectsInvalidRecords(t *testing.T) {
	consumer, _, _ := newTestConsumer(t)

	err := consumer.Process([]Event{
		{Integration: "crm", Payload: payloadFor(t, map[string]any{"notes": "no pk"})},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, records.ErrValidation)
}

func TestProcessPropagatesPipelineFailure(t *testing.T) {
	consumer, mockDb, mockStore := newTestConsumer(t)
	mockDb.On("FetchExistingKeys", mock.Anything).Return(map[string]struct{}{}, nil)
	mockStore.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{0.5}}, nil)
	mockDb.On("BulkUpsert", mock.Anything, mock.Anything).Return(vector.ErrStoreUnavailable)

	err := consumer.Process([]Event{
		{Integration: "crm", Payload: payloadFor(t, map[string]any{"id": "1", "notes": "x"})},
	})

	require.Error(t, err)
}

package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/records"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/dedupcache"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/embedding"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/vector"
	skafka "github.com/elviskahoro/gtm-growth-machine/pkg/kafka"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
	"github.com/elviskahoro/gtm-growth-machine/pkg/retry"
)

var (
	runner     *Runner
	runnerOnce sync.Once
)

// Runner executes the dedup, embed, upload pipeline for one batch of
// validated records.
type Runner struct {
	vectorDb    vector.Database
	embedStore  embedding.Store
	dedup       dedupcache.Cache
	appConfig   *structs.AppConfig
	limiter     *rate.Limiter
	embedRetry  retry.Policy
	uploadRetry retry.Policy
}

// NewRunner wires the singleton Runner from the repositories.
func NewRunner() *Runner {
	runnerOnce.Do(func() {
		cfg := structs.GetAppConfig()
		runner = newRunner(
			vector.NewRepository(vector.DefaultVersion),
			embedding.NewRepository(embedding.DefaultVersion),
			dedupcache.NewRepository(dedupcache.DefaultVersion),
			cfg,
		)
	})
	return runner
}

// ResetForTesting resets the global state for testing purposes
// This function should only be used in tests
func ResetForTesting() {
	runner = nil
	runnerOnce = sync.Once{}
}

func newRunner(vectorDb vector.Database, embedStore embedding.Store, dedup dedupcache.Cache, appConfig *structs.AppConfig) *Runner {
	cfg := appConfig.Configs
	uploadDelay := time.Duration(cfg.UploadDelayInMs) * time.Millisecond
	return &Runner{
		vectorDb:   vectorDb,
		embedStore: embedStore,
		dedup:      dedup,
		appConfig:  appConfig,
		limiter:    rate.NewLimiter(rate.Every(uploadDelay), 1),
		embedRetry: retry.Policy{
			Name:        "embedding_api",
			MaxAttempts: cfg.RetryMaxAttempts,
			Delay:       retry.DefaultDelay,
			MaxDelay:    retry.DefaultMaxDelay,
			RetryIf:     embedding.IsRetryable,
		},
		uploadRetry: retry.Policy{
			Name:        "vector_upload",
			MaxAttempts: cfg.RetryMaxAttempts,
			Delay:       retry.DefaultDelay,
			MaxDelay:    retry.DefaultMaxDelay,
			RetryIf:     vector.IsUnavailable,
		},
	}
}

// Run executes the full pipeline for the given records. Records must
// already be validated against the integration schema. When force is set
// the dedup step is skipped and every record is reprocessed.
func (r *Runner) Run(ctx context.Context, integration string, schema records.IntegrationSchema, recs []records.Record, force bool) (*RunReport, error) {
	return r.RunWithId(ctx, uuid.NewString(), integration, schema, recs, force)
}

// RunWithId is Run with a caller-chosen run ID, so async callers can hand
// the ID out before the run finishes. The report lands in the report store
// in every outcome.
func (r *Runner) RunWithId(ctx context.Context, runId, integration string, schema records.IntegrationSchema, recs []records.Record, force bool) (*RunReport, error) {
	startTime := time.Now()
	report := &RunReport{
		RunId:        runId,
		Integration:  integration,
		State:        StateIdle,
		StartedAt:    startTime,
		TotalRecords: len(recs),
	}
	// Save straight away so a caller that handed out the run ID before the
	// run finished can already resolve it, then again on every state change.
	reportStore.Save(report)
	defer reportStore.Save(report)
	tags := []string{metric.TagAsString("integration", integration)}
	metric.Incr("pipeline_run", tags)
	log.Info().Str("runId", report.RunId).Str("integration", integration).Int("records", len(recs)).Msg("Pipeline run started")

	keys, texts, err := r.extract(schema, recs)
	if err != nil {
		return r.fail(report, StateIdle, "extract", nil, err, tags)
	}

	// Deduplicate against the store unless forced.
	r.transition(report, StateDeduplicating)
	newIdx, err := r.dedupe(ctx, keys, force)
	if err != nil {
		return r.fail(report, report.State, "dedup", keys, err, tags)
	}
	report.SkippedExisting = len(recs) - len(newIdx)
	metric.Count("pipeline_records_skipped", int64(report.SkippedExisting), tags)
	if len(newIdx) == 0 {
		r.transition(report, StateDone)
		report.FinishedAt = time.Now()
		log.Info().Str("runId", report.RunId).Msg("Pipeline run finished, nothing new to process")
		return report, nil
	}

	newKeys := make([]string, 0, len(newIdx))
	newTexts := make([]string, 0, len(newIdx))
	newRecs := make([]records.Record, 0, len(newIdx))
	for _, i := range newIdx {
		newKeys = append(newKeys, keys[i])
		newTexts = append(newTexts, texts[i])
		newRecs = append(newRecs, recs[i])
	}

	r.transition(report, StateEmbedding)
	vectors, err := r.embed(ctx, newTexts)
	if err != nil {
		return r.fail(report, report.State, "embedding", newKeys, err, tags)
	}

	r.transition(report, StateUploading)
	uploaded, failed, err := r.upload(ctx, schema, newKeys, newRecs, vectors)
	report.UploadedKeys = uploaded
	report.FailedKeys = failed
	report.Processed = len(uploaded)
	metric.Count("pipeline_records_processed", int64(report.Processed), tags)
	if err != nil {
		return r.fail(report, report.State, "upload", failed, err, tags)
	}

	r.transition(report, StateDone)
	report.FinishedAt = time.Now()
	metric.Timing("pipeline_run_latency", time.Since(startTime), tags)
	log.Info().Str("runId", report.RunId).Int("processed", report.Processed).Int("skipped", report.SkippedExisting).Msg("Pipeline run finished")
	return report, nil
}

// extract pulls primary keys and texts out of the records, dropping
// in-batch duplicates so one delivery cannot upsert the same key twice.
func (r *Runner) extract(schema records.IntegrationSchema, recs []records.Record) ([]string, []string, error) {
	keys := make([]string, len(recs))
	texts := make([]string, len(recs))
	for i, rec := range recs {
		pk, err := rec.PrimaryKey(schema.PrimaryKeyField)
		if err != nil {
			return nil, nil, err
		}
		text, err := rec.Text(schema.TextField)
		if err != nil {
			return nil, nil, err
		}
		keys[i] = pk
		texts[i] = text
	}
	return keys, texts, nil
}

// dedupe returns the indexes of records whose keys are not yet in the
// vector store. The local cache short-circuits the store round-trip; the
// store is only consulted when at least one key is unknown to the cache.
func (r *Runner) dedupe(ctx context.Context, keys []string, force bool) ([]int, error) {
	seenInBatch := make(map[string]struct{}, len(keys))
	newIdx := make([]int, 0, len(keys))

	if force {
		for i, key := range keys {
			if _, dup := seenInBatch[key]; dup {
				continue
			}
			seenInBatch[key] = struct{}{}
			newIdx = append(newIdx, i)
		}
		return newIdx, nil
	}

	unknown := make([]int, 0, len(keys))
	for i, key := range keys {
		if _, dup := seenInBatch[key]; dup {
			continue
		}
		seenInBatch[key] = struct{}{}
		if r.dedup.Seen(key) {
			continue
		}
		unknown = append(unknown, i)
	}
	if len(unknown) == 0 {
		return nil, nil
	}

	existing, err := r.vectorDb.FetchExistingKeys(ctx)
	if err != nil {
		return nil, err
	}
	for _, i := range unknown {
		if _, ok := existing[keys[i]]; ok {
			r.dedup.MarkSeen(keys[i])
			continue
		}
		newIdx = append(newIdx, i)
	}
	return newIdx, nil
}

// embed splits texts into API-sized batches and concatenates the vectors
// in input order. Each batch call runs under the retry policy.
func (r *Runner) embed(ctx context.Context, texts []string) ([][]float32, error) {
	batchSize := r.appConfig.Configs.EmbeddingBatchSize
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]
		var out [][]float32
		err := r.embedRetry.Run(ctx, func() error {
			result, embedErr := r.embedStore.Embed(ctx, chunk)
			if embedErr != nil {
				return embedErr
			}
			out = result
			return nil
		})
		if err != nil {
			log.Error().Err(err).Int("batch_start", start).Msg("Embedding batch failed after retries")
			return nil, err
		}
		vectors = append(vectors, out...)
	}
	return vectors, nil
}

// upload writes points in rate-limited batches. A batch that still fails
// after retries is recorded and the run continues, so the report lists
// every key that never made it in.
func (r *Runner) upload(ctx context.Context, schema records.IntegrationSchema, keys []string, recs []records.Record, vectors [][]float32) (uploaded, failed []string, err error) {
	batchSize := r.appConfig.Configs.UploadBatchSize
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		points := make([]vector.Point, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, vector.Point{
				Key:     keys[i],
				Vector:  vectors[i],
				Payload: map[string]interface{}(recs[i]),
			})
		}
		if waitErr := r.limiter.Wait(ctx); waitErr != nil {
			failed = append(failed, keys[start:]...)
			return uploaded, failed, waitErr
		}
		upsertErr := r.uploadRetry.Run(ctx, func() error {
			return r.vectorDb.BulkUpsert(ctx, points)
		})
		if upsertErr != nil {
			log.Error().Err(upsertErr).Int("batch_start", start).Msg("Upload batch failed after retries")
			failed = append(failed, keys[start:end]...)
			continue
		}
		uploaded = append(uploaded, keys[start:end]...)
		r.dedup.MarkSeen(keys[start:end]...)
	}
	if len(failed) > 0 {
		return uploaded, failed, &UploadError{Keys: failed}
	}
	return uploaded, failed, nil
}

// fail finalises the report for an errored run and produces a failure event.
func (r *Runner) fail(report *RunReport, from State, stage string, keys []string, err error, tags []string) (*RunReport, error) {
	if from.CanTransition(StateErrored) {
		r.transition(report, StateErrored)
	} else {
		report.State = StateErrored
	}
	report.FinishedAt = time.Now()
	report.Error = err.Error()
	// The report must list every key that was not durably uploaded so a
	// re-run can target the remainder. The upload stage fills this itself.
	if len(report.FailedKeys) == 0 {
		report.FailedKeys = keys
	}
	metric.Incr("pipeline_run_error", append([]string{metric.TagAsString("stage", stage)}, tags...))
	log.Error().Err(err).Str("runId", report.RunId).Str("stage", stage).Msg("Pipeline run errored")
	r.produceFailureEvent(report, stage, keys, err)
	return report, err
}

func (r *Runner) transition(report *RunReport, next State) {
	if !report.State.CanTransition(next) {
		log.Error().Msgf("Illegal state transition %s -> %s for run %s", report.State, next, report.RunId)
		return
	}
	log.Debug().Str("runId", report.RunId).Msgf("State %s -> %s", report.State, next)
	report.State = next
	reportStore.Save(report)
}

// produceFailureEvent publishes the failed keys to the failure topic so a
// separate consumer can replay them. Skipped when no producer is configured.
func (r *Runner) produceFailureEvent(report *RunReport, stage string, keys []string, runErr error) {
	kafkaId := r.appConfig.Configs.FailureProducerKafkaId
	if kafkaId <= 0 {
		return
	}
	skafka.InitProducer(kafkaId) // idempotent
	event := FailureEvent{
		RunId:       report.RunId,
		Integration: report.Integration,
		Stage:       stage,
		Keys:        keys,
		Error:       runErr.Error(),
		Timestamp:   time.Now(),
	}
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		log.Error().Msgf("Error marshalling failure event: %v", err)
		return
	}
	keyStr := report.Integration
	msgs := []skafka.ProducerMessage{
		{
			Key:     &keyStr,
			Value:   jsonBytes,
			Headers: map[string][]byte{"run_id": []byte(report.RunId)},
		},
	}
	if sendErr := skafka.SendAndForget(kafkaId, msgs); sendErr != nil {
		log.Error().Err(sendErr).Int("producer_kafka_id", kafkaId).Msg("Error producing failure event")
		metric.Incr("pipeline_failure_event_error", []string{metric.TagAsString("integration", report.Integration)})
	} else {
		log.Info().Str("runId", report.RunId).Int("failed_count", len(keys)).Msg("Produced failure event")
		metric.Incr("pipeline_failure_event_success", []string{metric.TagAsString("integration", report.Integration)})
	}
}

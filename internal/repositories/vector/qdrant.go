package vector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/resolver"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

var (
	vectorDb Database
	syncOnce sync.Once
)

const (
	hostEnv          = "QDRANT_HOST"
	portEnv          = "QDRANT_PORT"
	deadlineEnv      = "QDRANT_DEADLINE_IN_MS"
	writeDeadlineEnv = "QDRANT_WRITE_DEADLINE_IN_MS"

	defaultSegmentNumber = uint64(8)
)

type Qdrant struct {
	Client        *qdrant.Client
	AppConfig     *structs.AppConfig
	Deadline      int
	WriteDeadline int
}

func initQdrantInstance() Database {
	if vectorDb == nil {
		syncOnce.Do(func() {
			vectorDb = createQdrantInstance()
		})
	}
	return vectorDb
}

func createQdrantInstance() *Qdrant {
	resolver.SetDefaultScheme("dns")
	if !viper.IsSet(hostEnv) {
		log.Panic().Msg(hostEnv + " not set")
	}
	if !viper.IsSet(portEnv) {
		log.Panic().Msg(portEnv + " not set")
	}
	viper.SetDefault(deadlineEnv, 5000)
	viper.SetDefault(writeDeadlineEnv, 30000)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: viper.GetString(hostEnv),
		Port: viper.GetInt(portEnv),
		GrpcOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy":"round_robin"}`),
		},
	})
	if err != nil {
		log.Panic().Msgf("Could not create qdrant client: %v", err)
	}
	return &Qdrant{
		Client:        client,
		AppConfig:     structs.GetAppConfig(),
		Deadline:      viper.GetInt(deadlineEnv),
		WriteDeadline: viper.GetInt(writeDeadlineEnv),
	}
}

func (q *Qdrant) collectionName() string {
	return q.AppConfig.Configs.CollectionName
}

func (q *Qdrant) metricTags() []string {
	return []string{
		metric.TagAsString("vector_db_type", "qdrant"),
		metric.TagAsString("collection_name", q.collectionName()),
	}
}

func (q *Qdrant) readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(q.Deadline)*time.Millisecond)
}

func (q *Qdrant) writeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(q.WriteDeadline)*time.Millisecond)
}

// EnsureCollection creates the collection with the configured vector
// dimension if it does not exist. An existing collection is left untouched.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	collectionsClient := qdrant.NewCollectionsClient(q.Client.GetConnection())
	rctx, cancel := q.readCtx(ctx)
	defer cancel()
	existsResp, err := collectionsClient.CollectionExists(rctx, &qdrant.CollectionExistsRequest{
		CollectionName: q.collectionName(),
	})
	if err != nil {
		log.Error().Msgf("Could not check collection %s: %v", q.collectionName(), err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if existsResp.GetResult().GetExists() {
		return nil
	}

	indexingThreshold := uint64(0)
	segmentNumber := defaultSegmentNumber
	wctx, wcancel := q.writeCtx(ctx)
	defer wcancel()
	_, err = collectionsClient.Create(wctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName(),
		VectorsConfig: &qdrant.VectorsConfig{Config: &qdrant.VectorsConfig_Params{
			Params: &qdrant.VectorParams{
				Size:     uint64(q.AppConfig.Configs.VectorDimension),
				Distance: qdrant.Distance_Cosine,
			},
		}},
		OptimizersConfig: &qdrant.OptimizersConfigDiff{
			DefaultSegmentNumber: &segmentNumber,
			IndexingThreshold:    &indexingThreshold,
		},
	})
	if err != nil {
		if IsAlreadyExists(err) {
			return nil
		}
		log.Error().Msgf("Could not create collection %s: %v", q.collectionName(), err)
		metric.Incr("vector_db_create_collection_error", q.metricTags())
		return err
	}
	log.Info().Msgf("Collection created: %v", q.collectionName())
	return nil
}

// FetchExistingKeys scrolls the collection page by page and collects the
// primary key payload field of every stored point.
func (q *Qdrant) FetchExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	startTime := time.Now()
	metric.Incr("vector_db_fetch_existing_keys", q.metricTags())
	pointsClient := qdrant.NewPointsClient(q.Client.GetConnection())
	pkField := q.AppConfig.Configs.PrimaryKeyField
	pageSize := uint32(q.AppConfig.Configs.ExistingKeysPageSize)

	keys := make(map[string]struct{})
	var offset *qdrant.PointId
	for {
		rctx, cancel := q.readCtx(ctx)
		resp, err := pointsClient.Scroll(rctx, &qdrant.ScrollPoints{
			CollectionName: q.collectionName(),
			Limit:          &pageSize,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(pkField),
			WithVectors:    qdrant.NewWithVectorsEnable(false),
		})
		cancel()
		if err != nil {
			log.Error().Msgf("Failed to scroll existing keys: %v", err)
			metric.Incr("vector_db_fetch_existing_keys_error", q.metricTags())
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		for _, point := range resp.GetResult() {
			if v, ok := point.GetPayload()[pkField]; ok {
				if pk := v.GetStringValue(); pk != "" {
					keys[pk] = struct{}{}
				}
			}
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}
	metric.Timing("vector_db_fetch_existing_keys_latency", time.Since(startTime), q.metricTags())
	return keys, nil
}

// BulkUpsert writes one batch of points. Point IDs are derived from the
// primary key so re-uploading the same records overwrites rather than
// duplicates.
func (q *Qdrant) BulkUpsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	startTime := time.Now()
	metric.Incr("vector_db_bulk_upsert", q.metricTags())
	upsertPoints, err := q.prepareUpsertPoints(points)
	if err != nil {
		log.Error().Msgf("Failed to prepare upsert points: %v", err)
		return err
	}
	waitUpsert := true
	wctx, cancel := q.writeCtx(ctx)
	defer cancel()
	writePointsClient := qdrant.NewPointsClient(q.Client.GetConnection())
	_, err = writePointsClient.Upsert(wctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName(),
		Wait:           &waitUpsert,
		Points:         upsertPoints,
	})
	if err != nil {
		log.Error().Msgf("Could not upsert points: %v", err)
		metric.Incr("vector_db_bulk_upsert_error", q.metricTags())
		if isIndexingRequired(err) {
			return fmt.Errorf("%w: %v", ErrIndexingRequired, err)
		}
		if IsUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}
	metric.Timing("vector_db_bulk_upsert_latency", time.Since(startTime), q.metricTags())
	return nil
}

func (q *Qdrant) prepareUpsertPoints(points []Point) ([]*qdrant.PointStruct, error) {
	pkField := q.AppConfig.Configs.PrimaryKeyField
	upsertPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if p.Key == "" {
			return nil, fmt.Errorf("point with empty primary key")
		}
		payload := make(map[string]*qdrant.Value, len(p.Payload)+1)
		for key, value := range p.Payload {
			payload[key] = adaptToPayloadValue(value)
		}
		// Raw key stays queryable even when the point ID is a derived uuid.
		payload[pkField] = adaptToPayloadValue(p.Key)
		upsertPoints = append(upsertPoints, &qdrant.PointStruct{
			Id:      derivePointId(p.Key),
			Payload: payload,
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: p.Vector}}},
		})
	}
	return upsertPoints, nil
}

// CreateScalarIndex creates a payload index on the given field. An index
// that already exists counts as success.
func (q *Qdrant) CreateScalarIndex(ctx context.Context, field string) error {
	metric.Incr("vector_db_create_field_index", q.metricTags())
	writePointsClient := qdrant.NewPointsClient(q.Client.GetConnection())
	fieldType := qdrant.FieldType_FieldTypeKeyword
	wctx, cancel := q.writeCtx(ctx)
	defer cancel()
	_, err := writePointsClient.CreateFieldIndex(wctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collectionName(),
		FieldName:      field,
		FieldType:      &fieldType,
		FieldIndexParams: &qdrant.PayloadIndexParams{
			IndexParams: &qdrant.PayloadIndexParams_KeywordIndexParams{
				KeywordIndexParams: &qdrant.KeywordIndexParams{},
			},
		},
	})
	if err != nil {
		if IsAlreadyExists(err) {
			log.Info().Msgf("Field index on %s already exists", field)
			return nil
		}
		log.Error().Msgf("Could not create field index: %v", err)
		metric.Incr("vector_db_create_field_index_error", q.metricTags())
		if IsUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}
	log.Info().Msgf("Field index created on %s", field)
	return nil
}

// UpdateIndexingThreshold updates the optimizer indexing threshold for the collection.
func (q *Qdrant) UpdateIndexingThreshold(ctx context.Context, indexingThreshold int64) error {
	threshold := uint64(indexingThreshold)
	collectionsClient := qdrant.NewCollectionsClient(q.Client.GetConnection())
	wctx, cancel := q.writeCtx(ctx)
	defer cancel()
	_, err := collectionsClient.Update(wctx, &qdrant.UpdateCollection{
		CollectionName: q.collectionName(),
		OptimizersConfig: &qdrant.OptimizersConfigDiff{
			IndexingThreshold: &threshold,
		},
	})
	if err != nil {
		log.Error().Msgf("Failed to update indexing threshold for collection %s: %v", q.collectionName(), err)
		return err
	}
	log.Info().Msgf("Indexing threshold updated for collection %s to %d", q.collectionName(), threshold)
	return nil
}

// GetCollectionInfo retrieves status and counts for the collection.
func (q *Qdrant) GetCollectionInfo(ctx context.Context) (*CollectionInfoResponse, error) {
	collectionsClient := qdrant.NewCollectionsClient(q.Client.GetConnection())
	rctx, cancel := q.readCtx(ctx)
	defer cancel()
	response, err := collectionsClient.Get(rctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: q.collectionName(),
	})
	if err != nil || response == nil {
		log.Error().Msgf("Failed to get collection info for %s: %v", q.collectionName(), err)
		if IsUnavailable(err) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, err
	}
	return mapCollectionInfoResponse(response), nil
}

func mapCollectionInfoResponse(response *qdrant.GetCollectionInfoResponse) *CollectionInfoResponse {
	result := response.GetResult()
	indexedFields := make([]string, 0, len(result.GetPayloadSchema()))
	for field := range result.GetPayloadSchema() {
		indexedFields = append(indexedFields, field)
	}
	return &CollectionInfoResponse{
		Status:              result.GetStatus().String(),
		IndexedVectorsCount: result.GetIndexedVectorsCount(),
		PointsCount:         result.GetPointsCount(),
		IndexedFields:       indexedFields,
	}
}

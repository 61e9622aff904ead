package vector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const collectionMetricInterval = 60 * time.Second

// PublishCollectionMetrics periodically gauges collection size and indexing
// progress. It blocks, so run it in its own goroutine. A panic in one
// publishing pass is recovered and publishing resumes with a fresh ticker.
func PublishCollectionMetrics(db Database) error {
	cfg := structs.GetAppConfig().Configs
	if !cfg.CollectionMetricEnabled {
		return nil
	}
	for {
		publishLoop(db, collectionMetricInterval, cfg.CollectionName)
	}
}

// publishLoop owns its ticker for one lifetime. It returns only after a
// recovered panic, so the caller can start a new loop with a new ticker.
func publishLoop(db Database, interval time.Duration, collection string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Panic while publishing collection metrics: %v", r)
		}
	}()
	for range ticker.C {
		publishOnce(db, collection)
	}
}

func publishOnce(db Database, collection string) {
	tags := []string{metric.TagAsString("collection", collection)}
	info, err := db.GetCollectionInfo(context.Background())
	if err != nil {
		log.Error().Err(err).Msgf("Error getting collection info for %s", collection)
		return
	}
	metric.Gauge("collection_points_count", float64(info.PointsCount), tags)
	metric.Gauge("collection_indexed_vectors_count", float64(info.IndexedVectorsCount), tags)
	metric.Gauge("collection_indexed_fields_count", float64(len(info.IndexedFields)), tags)
	statusTags := append([]string{metric.TagAsString("status", info.Status)}, tags...)
	metric.Count("collection_status", 1, statusTags)
}

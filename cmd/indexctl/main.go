package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/internal/config"
	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/vector"
	"github.com/elviskahoro/gtm-growth-machine/pkg/logger"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const (
	opEnsureCollection = "ensure-collection"
	opCreateIndex      = "create-index"
	opSetThreshold     = "set-indexing-threshold"
	opStatus           = "status"

	statusPollInterval = 10 * time.Second
)

func main() {
	op := flag.String("op", opStatus, "operation: ensure-collection | create-index | set-indexing-threshold | status")
	field := flag.String("field", "", "payload field to index (defaults to the configured primary key field)")
	threshold := flag.Int64("threshold", 20000, "indexing threshold in KB for set-indexing-threshold")
	wait := flag.Bool("wait", true, "poll collection status until it is green")
	flag.Parse()

	config.InitConfig(structs.GetAppConfig())
	appConfig := structs.GetAppConfig()
	logger.Init()
	metric.Init()

	vectorDb := vector.NewRepository(vector.DefaultVersion)
	ctx := context.Background()

	indexField := *field
	if indexField == "" {
		indexField = appConfig.Configs.PrimaryKeyField
	}

	switch *op {
	case opEnsureCollection:
		if err := vectorDb.EnsureCollection(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", appConfig.Configs.CollectionName).Msg("Failed to ensure collection")
		}
		log.Info().Str("collection", appConfig.Configs.CollectionName).Msg("Collection ready")
	case opCreateIndex:
		// Already-existing index counts as success.
		if err := vectorDb.CreateScalarIndex(ctx, indexField); err != nil {
			log.Fatal().Err(err).Str("field", indexField).Msg("Failed to create scalar index")
		}
		log.Info().Str("field", indexField).Msg("Scalar index requested")
	case opSetThreshold:
		if err := vectorDb.UpdateIndexingThreshold(ctx, *threshold); err != nil {
			log.Fatal().Err(err).Int64("threshold", *threshold).Msg("Failed to update indexing threshold")
		}
		log.Info().Int64("threshold", *threshold).Msg("Indexing threshold updated")
	case opStatus:
		// fallthrough to the status poll below
	default:
		log.Fatal().Str("op", *op).Msg("Unknown operation")
	}

	if !*wait {
		return
	}
	if err := waitUntilGreen(ctx, vectorDb, appConfig.Configs.IndexWaitTimeoutInMins); err != nil {
		log.Fatal().Err(err).Msg("Collection did not become green")
	}
}

func waitUntilGreen(ctx context.Context, vectorDb vector.Database, timeoutInMins int) error {
	deadline := time.Now().Add(time.Duration(timeoutInMins) * time.Minute)
	for {
		info, err := vectorDb.GetCollectionInfo(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch collection info")
		} else {
			log.Info().Str("status", info.Status).
				Uint64("points", info.PointsCount).
				Uint64("indexedVectors", info.IndexedVectorsCount).
				Strs("indexedFields", info.IndexedFields).
				Msg("Collection status")
			if strings.EqualFold(info.Status, "green") {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		time.Sleep(statusPollInterval)
	}
}

package dedupcache

import (
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const metricUpdateInterval = 1 * time.Minute

var (
	cacheInstance  Cache
	once           sync.Once
	DefaultVersion = 1

	seenMarker = []byte{1}
)

// Cache remembers primary keys that were recently confirmed present in the
// vector store, so repeated webhook deliveries skip the store round-trip.
type Cache interface {
	Seen(key string) bool
	MarkSeen(keys ...string)
	Forget(key string)
}

type FreeCache struct {
	cache       *freecache.Cache
	ttlInSec    int
	metricsOnce sync.Once
}

func NewRepository(version int) Cache {
	switch version {
	case DefaultVersion:
		return initFreeCacheInstance()
	default:
		return nil
	}
}

// SetInstance overrides the singleton. Only for tests.
func SetInstance(c Cache) {
	cacheInstance = c
	once.Do(func() {})
}

func initFreeCacheInstance() Cache {
	if cacheInstance == nil {
		once.Do(func() {
			cfg := structs.GetAppConfig().Configs
			cacheInstance = NewFreeCache(cfg.DedupCacheSizeInMb, cfg.DedupCacheTtlInSeconds)
		})
	}
	return cacheInstance
}

func NewFreeCache(sizeInMb, ttlInSec int) *FreeCache {
	if sizeInMb <= 0 {
		log.Panic().Msgf("dedup cache size must be positive, got %d MB", sizeInMb)
	}
	fc := &FreeCache{
		cache:    freecache.NewCache(sizeInMb * 1024 * 1024),
		ttlInSec: ttlInSec,
	}
	fc.metricsOnce.Do(func() {
		go fc.publishMetric()
	})
	return fc
}

func (f *FreeCache) Seen(key string) bool {
	_, err := f.cache.Get([]byte(key))
	return err == nil
}

func (f *FreeCache) MarkSeen(keys ...string) {
	for _, key := range keys {
		if err := f.cache.Set([]byte(key), seenMarker, f.ttlInSec); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to mark key in dedup cache")
		}
	}
}

func (f *FreeCache) Forget(key string) {
	f.cache.Del([]byte(key))
}

func (f *FreeCache) publishMetric() {
	ticker := time.NewTicker(metricUpdateInterval)
	tags := []string{metric.TagAsString("cache_name", "dedup")}
	defer ticker.Stop()
	for range ticker.C {
		metric.Gauge("dedup_cache_hit_rate", f.cache.HitRate(), tags)
		metric.Gauge("dedup_cache_item_count", float64(f.cache.EntryCount()), tags)
		metric.Gauge("dedup_cache_evacuate_count", float64(f.cache.EvacuateCount()), tags)
		metric.Gauge("dedup_cache_expiry_count", float64(f.cache.ExpiredCount()), tags)
	}
}

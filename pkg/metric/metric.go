package metric

import (
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	client     statsd.ClientInterface = &statsd.NoOpClient{}
	once       sync.Once
	sampleRate = 1.0
)

const (
	envStatsdAddr = "STATSD_ADDR"
	envAppName    = "APP_NAME"
)

// Init wires the package to a dogstatsd agent. When STATSD_ADDR is not set
// the package stays on the no-op client so call sites never need guarding.
func Init() {
	once.Do(func() {
		addr := viper.GetString(envStatsdAddr)
		if addr == "" {
			log.Warn().Msg("STATSD_ADDR not set, metrics are disabled")
			return
		}
		appName := viper.GetString(envAppName)
		c, err := statsd.New(addr, statsd.WithNamespace(appName+"."))
		if err != nil {
			log.Error().Err(err).Msg("Failed to create statsd client, metrics are disabled")
			return
		}
		client = c
		log.Info().Msgf("Statsd client initialized for %s", addr)
	})
}

// SetInstance overrides the statsd client. Only for tests.
func SetInstance(c statsd.ClientInterface) {
	client = c
	once.Do(func() {})
}

func Incr(name string, tags []string) {
	_ = client.Incr(name, tags, sampleRate)
}

func Count(name string, value int64, tags []string) {
	_ = client.Count(name, value, tags, sampleRate)
}

func Gauge(name string, value float64, tags []string) {
	_ = client.Gauge(name, value, tags, sampleRate)
}

func Timing(name string, value time.Duration, tags []string) {
	_ = client.Timing(name, value, tags, sampleRate)
}

// TagAsString renders a key/value pair in the "key:value" dogstatsd format.
func TagAsString(key, value string) string {
	return key + ":" + value
}

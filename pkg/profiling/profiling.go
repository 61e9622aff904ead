package profiling

import (
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var once sync.Once

// Init starts the pprof server when PROFILING_ENABLED is set. The server
// runs on its own port so profiling traffic never mixes with the API.
func Init() {
	if !viper.GetBool("PROFILING_ENABLED") {
		log.Info().Msg("Profiling is not enabled!")
		return
	}
	once.Do(func() {
		port := viper.GetInt("PROFILING_PORT")
		if port == 0 {
			log.Fatal().Msg("PROFILING_PORT is not set!")
		}
		go serve(port)
		log.Info().Msg("Profiling environment initialized!")
	})
}

func serve(port int) {
	addr := ":" + strconv.Itoa(port)
	log.Info().Msgf("Starting profiling server on %v", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal().Msgf("ListenAndServe error: %v", err)
	}
}

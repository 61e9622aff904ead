package server

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/pkg/httpframework"
)

// InitServer blocks serving the framework engine on the given port.
func InitServer(port int) {
	if port == 0 {
		log.Panic().Msg("PORT not set")
	}

	log.Info().Int("port", port).Msg("Starting server")
	if err := http.ListenAndServe(":"+strconv.Itoa(port), httpframework.Instance()); err != nil {
		log.Panic().Msgf("There's an error while starting the server!, error - %v", err)
	}
}

package api

import "github.com/elviskahoro/gtm-growth-machine/pkg/httpframework"

const (
	healthCheckPath = "/health"
)

func Init() {
	httpframework.Instance().GET(healthCheckPath, healthProvider)
}

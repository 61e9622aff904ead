package bootstrap

import (
	"github.com/elviskahoro/gtm-growth-machine/internal/config"
	"github.com/elviskahoro/gtm-growth-machine/internal/config/structs"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/dedupcache"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/embedding"
	"github.com/elviskahoro/gtm-growth-machine/internal/repositories/vector"
)

func Init() {
	config.InitConfig(structs.GetAppConfig())
	embedding.NewRepository(embedding.DefaultVersion)
	vector.NewRepository(vector.DefaultVersion)
	dedupcache.NewRepository(dedupcache.DefaultVersion)
}

package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "tethys-harvester/docs"
	"tethys-harvester/internal/api/handler"
	"tethys-harvester/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/harvests", h.CreateHarvest)
	r.GET("/api/v1/harvests", h.ListHarvests)
	r.GET("/api/v1/catalog", h.GetCatalog)
	// More specific routes first
	r.GET("/api/v1/harvests/*/summary", h.GetHarvestSummary)
	r.GET("/api/v1/harvests/*/errors", h.GetHarvestErrors)
	r.GET("/api/v1/harvests/*/progress", h.GetHarvestProgress)
	r.GET("/api/v1/harvests/*/download", h.DownloadOutput)
	// Generic run route last
	r.GET("/api/v1/harvests/*", h.GetHarvest)

	r.Handle("/swagger/", httpSwagger.WrapHandler)
}

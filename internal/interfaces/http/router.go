// Package http assembles the gin router and HTTP server for the API.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/prometheus"
	"github.com/moleculab/sarscope/internal/interfaces/http/handlers"
	"github.com/moleculab/sarscope/internal/interfaces/http/middleware"
)

// RouterDeps bundles everything the router mounts.
type RouterDeps struct {
	Datasets *handlers.DatasetHandler
	Analysis *handlers.AnalysisHandler
	Ingest   *handlers.IngestHandler
	Health   *handlers.HealthHandler
	Metrics  *prometheus.Metrics
	Logger   logging.Logger
}

// NewRouter builds the full route tree.
func NewRouter(cfg config.ServerConfig, deps RouterDeps) *gin.Engine {
	gin.SetMode(cfg.Mode)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
		router.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	router.GET("/healthz", deps.Health.Live)
	router.GET("/readyz", deps.Health.Ready)

	v1 := router.Group("/api/v1")
	{
		datasets := v1.Group("/datasets")
		{
			datasets.POST("", deps.Datasets.Create)
			datasets.GET("", deps.Datasets.List)
			datasets.GET("/:id", deps.Datasets.Get)
			datasets.DELETE("/:id", deps.Datasets.Delete)
			datasets.GET("/:id/records", deps.Datasets.Records)
			datasets.POST("/:id/query", deps.Datasets.Query)

			datasets.GET("/:id/overview", deps.Analysis.Overview)
			datasets.GET("/:id/summary", deps.Analysis.Describe)
			datasets.GET("/:id/correlation", deps.Analysis.Correlation)
			datasets.GET("/:id/neighbors", deps.Analysis.Neighbors)
			datasets.POST("/:id/export", deps.Analysis.Export)
		}

		if deps.Ingest != nil {
			ingest := v1.Group("/ingest")
			{
				ingest.GET("/chembl/targets", deps.Ingest.SearchTargets)
				ingest.POST("/chembl", deps.Ingest.Fetch)
			}
		}
	}

	return router
}

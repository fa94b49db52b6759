// Package http wires the HTTP front-end: route table, middleware chain,
// and the handlers they dispatch to.
package http

import (
	"github.com/arabella/vidforge/config"
	"github.com/arabella/vidforge/internal/interface/http/handler"
	"github.com/arabella/vidforge/internal/interface/http/httpresp"
	"github.com/arabella/vidforge/internal/interface/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles every route handler the router dispatches to.
type Handlers struct {
	Health     *handler.HealthHandler
	Generation *handler.GenerationHandler
	Queue      *handler.QueueHandler
	Storage    *handler.StorageHandler
	Worker     *handler.WorkerHandler
	Cron       *handler.CronHandler
}

// Middleware bundles the middleware instances the router installs.
type Middleware struct {
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	Logging   *middleware.LoggingMiddleware
}

// NewRouter builds the gin engine and installs the full route table.
func NewRouter(cfg *config.Config, h Handlers, mw Middleware) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpresp.IncludeDetails = !cfg.IsProduction()

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(mw.Logging.Logger())
	router.Use(mw.Logging.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(mw.RateLimit.LimitClass(middleware.RouteClassGeneral))

	router.GET("/health", h.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		generations := api.Group("/generations")
		generations.Use(mw.Auth.RequireAuth())
		generations.Use(mw.RateLimit.LimitClass(middleware.RouteClassGenerations))
		{
			generations.POST("", h.Generation.Start)
			generations.GET("/:id", h.Generation.Get)
			generations.POST("/:id/clarify", h.Generation.Clarify)
			generations.POST("/:id/confirm", h.Generation.Confirm)
			generations.POST("/:id/cancel", h.Generation.Cancel)
		}

		queue := api.Group("/queue")
		{
			queue.GET("/jobs/:id", mw.Auth.RequireAuth(), h.Queue.GetJob)
			queue.GET("/stats", h.Queue.Stats)
			queue.GET("/status", h.Queue.Status)
		}

		storage := api.Group("/storage/videos")
		storage.Use(mw.Auth.RequireAuth())
		storage.Use(mw.RateLimit.LimitClass(middleware.RouteClassStorage))
		{
			storage.GET("", h.Storage.List)
			storage.GET("/:id", h.Storage.GetSignedURL)
			storage.DELETE("/:id", h.Storage.Delete)
		}

		workers := api.Group("/workers")
		workers.Use(mw.RateLimit.LimitClass(middleware.RouteClassWorkers))
		{
			workers.POST("/register", h.Worker.Register)
			workers.POST("/heartbeat", h.Worker.Heartbeat)
		}

		api.POST("/cron/cleanup", h.Cron.Cleanup)
	}

	return router
}

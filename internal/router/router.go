// Package router assembles the gin engine for the festival API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/handler"
	"github.com/noah-isme/festival-live-api/internal/middleware"
	"github.com/noah-isme/festival-live-api/pkg/config"
	"github.com/noah-isme/festival-live-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/festival-live-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/festival-live-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler mounted by New.
type Handlers struct {
	Results     *handler.ResultHandler
	Leaderboard *handler.LeaderboardHandler
	Finalize    *handler.FinalizeHandler
	Catalog     *handler.CatalogHandler
	Stream      *handler.StreamHandler
	Metrics     *handler.MetricsHandler
}

// Options tunes the engine.
type Options struct {
	Env              string
	APIPrefix        string
	AllowedOrigins   []string
	WebsocketEnabled bool
	Observer         middleware.RequestObserver
}

// New builds the engine with the shared middleware chain and every route.
func New(opts Options, h Handlers, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/metrics", "/health"))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Observer))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)

	api.POST("/results", h.Results.Submit)
	api.GET("/results", h.Results.List)
	api.DELETE("/results", h.Results.Delete)

	api.GET("/leaderboard", h.Leaderboard.Get)
	api.GET("/leaderboard/export", h.Leaderboard.Export)

	api.GET("/finalize", h.Finalize.Get)
	api.POST("/finalize", h.Finalize.Apply)

	api.GET("/events", h.Catalog.ListEvents)
	api.POST("/events", h.Catalog.CreateEvent)
	api.GET("/institutions", h.Catalog.ListInstitutions)
	api.POST("/institutions", h.Catalog.CreateInstitution)

	api.GET("/keepalive", h.Metrics.Keepalive)

	api.GET("/stream", h.Stream.SSE)
	if opts.WebsocketEnabled {
		api.GET("/ws", h.Stream.Websocket)
	}

	return r
}

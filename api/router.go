package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ownerlookup/api/handler"
	"github.com/use-agent/ownerlookup/api/middleware"
	"github.com/use-agent/ownerlookup/cache"
	"github.com/use-agent/ownerlookup/config"
	"github.com/use-agent/ownerlookup/pipeline"
)

// Scraper is what the API needs from the owners scraper.
type Scraper interface {
	pipeline.Lookuper
	handler.SessionInfo
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// ctx bounds the middleware's background goroutines.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is outside auth so monitoring checks always work.
func NewRouter(ctx context.Context, sc Scraper, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.MaxMultipartMemory = 16 << 20

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(sc, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	states := sc.States()

	// Single company
	protected.POST("/lookup", handler.Lookup(sc, cc, states))

	// Whole workbook
	protected.POST("/enrich", handler.Enrich(sc, cc, cfg.Cache.MaxAge, states))

	return r
}

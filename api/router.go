// Package api wires the HTTP surface: the command endpoint and health probe.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/jobsift/api/handler"
	"github.com/use-agent/jobsift/api/middleware"
	"github.com/use-agent/jobsift/config"
	"github.com/use-agent/jobsift/engine"
	"github.com/use-agent/jobsift/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(o *engine.Orchestrator, st *store.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(o, st, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Command bus: every operation goes through one endpoint.
	protected.POST("/command", handler.Command(o, st, cfg.Store.ExportDir))

	return r
}

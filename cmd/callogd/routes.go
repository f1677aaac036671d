package main

import (
	"database/sql"
	"time"

	"call-logd/internal/auth"
	"call-logd/internal/generator"
	"call-logd/internal/httpapi"
	"call-logd/internal/metrics"
	"call-logd/internal/reporting"
	"call-logd/internal/runs"
	"call-logd/pkg/utils"

	"github.com/gin-gonic/gin"
)

type registerDeps struct {
	auth      *auth.Manager
	db        *sql.DB
	metrics   *metrics.Metrics
	runner    *generator.Runner
	runs      *runs.Service
	reporting *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps registerDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.metrics.Handler()))

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireServiceToken(deps.auth))
	{
		h := httpapi.Handlers{
			Runner:    deps.runner,
			Runs:      deps.runs,
			Reporting: deps.reporting,
		}

		v1.POST("/generate", h.Generate)
		v1.GET("/runs", h.ListRuns)
		v1.GET("/reports/calls", h.CallsSummary)
	}
}

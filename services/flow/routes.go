// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"net/http"

	"github.com/AleutianAI/flowdom/services/flow/config"
	"github.com/AleutianAI/flowdom/services/flow/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RegisterRoutes registers the flow routes with the router group.
//
// Description:
//
//	Registers all /flow/* endpoints with the given Gin router group. The
//	group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/flow/analyze - Analyse one graph
//	POST /v1/flow/analyze/batch - Analyse several graphs
//	POST /v1/flow/export - Render a graph
//	GET  /v1/flow/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	fg := rg.Group("/flow")
	{
		fg.POST("/analyze", handlers.HandleAnalyze)
		fg.POST("/analyze/batch", handlers.HandleAnalyzeBatch)
		fg.POST("/export", handlers.HandleExport)
		fg.GET("/health", handlers.HandleHealth)
	}
}

// NewRouter builds the complete engine with recovery, tracing and request
// IDs on every route, request limits on /v1, and /metrics.
func NewRouter(cfg *config.Config, svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(RequestIDMiddleware())

	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	v1.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))
	v1.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))
	v1.Use(RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.Burst))
	RegisterRoutes(v1, NewHandlers(svc))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: "NOT_FOUND"})
	})
	return router
}

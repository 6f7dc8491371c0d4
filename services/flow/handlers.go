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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/flowdom/services/flow/export"
	"github.com/AleutianAI/flowdom/services/flow/loader"
	"github.com/gin-gonic/gin"
)

// Handlers serves the flow HTTP API.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers backed by svc.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyze handles POST /v1/flow/analyze.
//
// Description:
//
//	Builds the graph in the request body and returns its dominator tree,
//	dominance frontiers, merge points and loops.
//
// Request Body:
//
//	loader.Document as JSON
//
// Response:
//
//	200 OK: AnalysisResult
//	400 Bad Request: INVALID_DOCUMENT
//	422 Unprocessable Entity: MALFORMED_GRAPH
//	504 Gateway Timeout: ANALYSIS_TIMEOUT
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	logger := requestLogger(c, "HandleAnalyze")

	var doc loader.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    CodeInvalidDocument,
			Details: err.Error(),
		})
		return
	}

	res, err := h.svc.Analyze(c.Request.Context(), &doc)
	if err != nil {
		h.writeError(c, logger, "Analysis failed", err)
		return
	}

	logger.Info("Graph analysed",
		"graph", res.Name,
		"blocks", len(res.Blocks),
		"loops", len(res.Loops),
		"iterations", res.Iterations,
		"duration_ms", res.DurationMs)
	c.JSON(http.StatusOK, res)
}

// HandleAnalyzeBatch handles POST /v1/flow/analyze/batch.
//
// Request Body:
//
//	BatchRequest
//
// Response:
//
//	200 OK: BatchResponse, with per-document errors inline
//	400 Bad Request: INVALID_REQUEST for an empty or oversized batch
func (h *Handlers) HandleAnalyzeBatch(c *gin.Context) {
	logger := requestLogger(c, "HandleAnalyzeBatch")

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    CodeInvalidRequest,
			Details: err.Error(),
		})
		return
	}

	resp, err := h.svc.AnalyzeBatch(c.Request.Context(), req.Documents)
	if err != nil {
		h.writeError(c, logger, "Batch rejected", err)
		return
	}

	logger.Info("Batch analysed", "succeeded", resp.Succeeded, "failed", resp.Failed)
	c.JSON(http.StatusOK, resp)
}

// HandleExport handles POST /v1/flow/export.
//
// Query Parameters:
//
//	format: dot (default), mermaid or json
//
// Response:
//
//	200 OK: the rendered graph, text/vnd.graphviz, text/plain or
//	application/json
//	400 Bad Request: INVALID_DOCUMENT or UNSUPPORTED_FORMAT
func (h *Handlers) HandleExport(c *gin.Context) {
	logger := requestLogger(c, "HandleExport")

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.writeError(c, logger, "Unsupported format", err)
		return
	}

	var doc loader.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    CodeInvalidDocument,
			Details: err.Error(),
		})
		return
	}

	out, err := h.svc.Export(c.Request.Context(), &doc, format)
	if err != nil {
		h.writeError(c, logger, "Export failed", err)
		return
	}
	c.Data(http.StatusOK, contentType(format), []byte(out))
}

// HandleHealth handles GET /v1/flow/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err, "code", code)
	} else {
		logger.Warn(msg, "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatJSON:
		return "application/json; charset=utf-8"
	case export.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/flowdom/services/flow/config"
	"github.com/AleutianAI/flowdom/services/flow/loader"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	handlers := NewHandlers(svc)
	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHandlers_HandleHealth(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	req := httptest.NewRequest(http.MethodGet, "/v1/flow/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHandlers_HandleAnalyze(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	w := postJSON(t, router, "/v1/flow/analyze", diamondDoc())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "diamond", res.Name)
	assert.Equal(t, []string{"D"}, blockByName(t, &res, "C").Frontier)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandlers_HandleAnalyze_Errors(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"malformed graph", unreachableDoc(), http.StatusUnprocessableEntity, CodeMalformedGraph},
		{"duplicate block", loader.Document{Blocks: []loader.Block{{Name: "A"}, {Name: "A"}}}, http.StatusBadRequest, CodeInvalidDocument},
		{"not an object", []int{1, 2}, http.StatusBadRequest, CodeInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/v1/flow/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestHandlers_HandleAnalyze_Cancelled(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	data, err := json.Marshal(loopDoc())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/flow/analyze", bytes.NewReader(data)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, CodeAnalysisTimeout, decodeError(t, w).Code)
}

func TestHandlers_HandleAnalyzeBatch(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	w := postJSON(t, router, "/v1/flow/analyze/batch", BatchRequest{
		Documents: []*loader.Document{diamondDoc(), unreachableDoc()},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, CodeMalformedGraph, resp.Results[1].Error.Code)

	w = postJSON(t, router, "/v1/flow/analyze/batch", BatchRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, w).Code)
}

func TestHandlers_HandleExport(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	w := postJSON(t, router, "/v1/flow/export?format=mermaid", loopDoc())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Body.String(), "flowchart TB"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = postJSON(t, router, "/v1/flow/export", loopDoc())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/vnd.graphviz")

	w = postJSON(t, router, "/v1/flow/export?format=json", loopDoc())
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, json.Valid(w.Body.Bytes()))

	w = postJSON(t, router, "/v1/flow/export?format=svg", loopDoc())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeUnsupportedFormat, decodeError(t, w).Code)
}

func TestRequestIDMiddleware_EchoesHeader(t *testing.T) {
	router := setupTestRouter(NewService(testAnalysisConfig()))

	req := httptest.NewRequest(http.MethodGet, "/v1/flow/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestNewRouter_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = 0.001
	cfg.Server.Burst = 1
	router := NewRouter(cfg, NewService(cfg.Analysis))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/v1/flow/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestNewRouter_MetricsAndNotFound(t *testing.T) {
	cfg := config.Default()
	router := NewRouter(cfg, NewService(cfg.Analysis))

	w := postJSON(t, router, "/v1/flow/analyze", diamondDoc())
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flowdom_analyses_total")

	req = httptest.NewRequest(http.MethodGet, "/v2/unknown", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBodyLimitMiddleware(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 1024
	router := NewRouter(cfg, NewService(cfg.Analysis))

	big := loader.Document{Name: strings.Repeat("x", 4096)}
	w := postJSON(t, router, "/v1/flow/analyze", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

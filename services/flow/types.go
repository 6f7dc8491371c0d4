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

import "github.com/AleutianAI/flowdom/services/flow/loader"

// BlockResult is the analysis of one block. Blocks are referred to by the
// names used in the document.
type BlockResult struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`

	// ImmediateDominator is empty for the entry point and for unreached
	// exit sentinels.
	ImmediateDominator string   `json:"immediate_dominator,omitempty"`
	Children           []string `json:"dominator_tree_children"`
	Frontier           []string `json:"dominance_frontier"`

	// Depth is the dominator tree depth, or -1 if the block was never reached.
	Depth int `json:"depth"`
}

// MergePointResult is a block where control from several regions joins.
type MergePointResult struct {
	Block  string `json:"block"`
	Degree int    `json:"degree"`
}

// LoopResult is one natural loop.
type LoopResult struct {
	Header string   `json:"header"`
	Body   []string `json:"body"`
	Depth  int      `json:"depth"`
	Parent string   `json:"parent,omitempty"`
}

// AnalysisResult is the response of POST /v1/flow/analyze.
type AnalysisResult struct {
	Name        string             `json:"name"`
	Blocks      []BlockResult      `json:"blocks"`
	MergePoints []MergePointResult `json:"merge_points"`
	Loops       []LoopResult       `json:"loops"`
	Reducible   bool               `json:"reducible"`
	Iterations  int                `json:"iterations"`
	DurationMs  int64              `json:"duration_ms"`

	// Cached is true when the result came from the result cache.
	Cached bool `json:"cached"`
}

// BatchRequest is the body of POST /v1/flow/analyze/batch.
type BatchRequest struct {
	Documents []*loader.Document `json:"documents"`
}

// BatchEntry holds either the result or the error for one document, at the
// same position as the document in the request.
type BatchEntry struct {
	Name   string          `json:"name"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  *ErrorResponse  `json:"error,omitempty"`
}

// BatchResponse is the response of POST /v1/flow/analyze/batch.
type BatchResponse struct {
	Results   []BatchEntry `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// HealthResponse is the response of GET /v1/flow/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}

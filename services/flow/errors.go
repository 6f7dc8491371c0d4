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
	"context"
	"errors"
	"net/http"

	"github.com/AleutianAI/flowdom/services/flow/export"
	"github.com/AleutianAI/flowdom/services/flow/graph"
	"github.com/AleutianAI/flowdom/services/flow/loader"
)

var (
	// ErrNilDocument indicates a request carried no document.
	ErrNilDocument = errors.New("document is required")

	// ErrEmptyBatch indicates a batch request with no documents.
	ErrEmptyBatch = errors.New("batch contains no documents")

	// ErrBatchTooLarge indicates a batch request above MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch too large")
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidDocument   = "INVALID_DOCUMENT"
	CodeMalformedGraph    = "MALFORMED_GRAPH"
	CodeAnalysisTimeout   = "ANALYSIS_TIMEOUT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeRateLimited       = "RATE_LIMITED"
	CodeAnalysisFailed    = "ANALYSIS_FAILED"
)

// classifyError maps an analysis error to an HTTP status and error code.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, loader.ErrInvalidDocument),
		errors.Is(err, loader.ErrDuplicateBlock),
		errors.Is(err, loader.ErrUnknownBlock),
		errors.Is(err, loader.ErrTooManyBlocks),
		errors.Is(err, loader.ErrTooManyEdges),
		errors.Is(err, ErrNilDocument):
		return http.StatusBadRequest, CodeInvalidDocument
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest, CodeInvalidRequest
	case graph.IsMalformed(err):
		return http.StatusUnprocessableEntity, CodeMalformedGraph
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, CodeAnalysisTimeout
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, CodeUnsupportedFormat
	default:
		return http.StatusInternalServerError, CodeAnalysisFailed
	}
}

// outcomeOf returns the metrics label for an analysis error.
func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	_, code := classifyError(err)
	switch code {
	case CodeInvalidDocument, CodeInvalidRequest:
		return "invalid"
	case CodeMalformedGraph:
		return "malformed"
	case CodeAnalysisTimeout:
		return "timeout"
	default:
		return "error"
	}
}

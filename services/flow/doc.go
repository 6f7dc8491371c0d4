// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package flow exposes dominance analysis of control flow graph documents
// as a Go service and a gin HTTP API.
//
// # Endpoints
//
//	POST /v1/flow/analyze        - Analyse one graph document
//	POST /v1/flow/analyze/batch  - Analyse several documents concurrently
//	POST /v1/flow/export         - Render a graph as dot, mermaid or json
//	GET  /v1/flow/health         - Liveness check
//	GET  /metrics                - Prometheus metrics
//
// Every analysis builds a fresh graph, so concurrent requests share no
// analysis state.
package flow

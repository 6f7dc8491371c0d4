// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package structure derives structuring facts from an analysed control flow
// graph: merge points, natural loops and reducibility.
//
// All functions are read-only over the graph. They require the analyses
// from package graph to have completed and may be called concurrently on
// the same graph once it is.
package structure

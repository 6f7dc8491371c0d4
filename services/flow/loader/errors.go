// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import "errors"

var (
	// ErrInvalidDocument indicates the document failed to parse or validate.
	ErrInvalidDocument = errors.New("invalid graph document")

	// ErrDuplicateBlock indicates a block name is declared twice or reuses a
	// reserved name.
	ErrDuplicateBlock = errors.New("duplicate block name")

	// ErrUnknownBlock indicates an edge refers to an undeclared block.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrTooManyBlocks indicates the document exceeds the block limit.
	ErrTooManyBlocks = errors.New("too many blocks")

	// ErrTooManyEdges indicates the document exceeds the edge limit.
	ErrTooManyEdges = errors.New("too many edges")
)

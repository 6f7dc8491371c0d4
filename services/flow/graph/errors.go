// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction and analysis.
var (
	// ErrGraphSealed is returned when a node or edge is added after
	// dominance analysis has started.
	ErrGraphSealed = errors.New("graph is sealed and cannot be modified")

	// ErrInvalidBlock is returned when an index does not name a node.
	ErrInvalidBlock = errors.New("invalid block index")

	// ErrInvalidNodeType is returned when a builder tries to add a second
	// entry point or sentinel exit.
	ErrInvalidNodeType = errors.New("invalid node type")

	// ErrInvalidJumpType is returned by ParseJumpType for unknown names.
	ErrInvalidJumpType = errors.New("invalid jump type")

	// ErrUnreachableNode means a non-sentinel node cannot be reached from
	// the entry point.
	ErrUnreachableNode = errors.New("node is unreachable from entry")

	// ErrNoVisitedPredecessor means a node was reached by the traversal but
	// none of its incoming edges comes from a visited node. The outgoing and
	// incoming edge lists disagree.
	ErrNoVisitedPredecessor = errors.New("no visited predecessor")

	// ErrNoCommonDominator means two dominator chains never meet.
	ErrNoCommonDominator = errors.New("no common dominator found")

	// ErrDominanceNotComputed is returned when a query or pass requires a
	// completed ComputeDominance.
	ErrDominanceNotComputed = errors.New("dominance has not been computed")

	// ErrFrontierNotComputed is returned when a query requires a completed
	// ComputeDominanceFrontier.
	ErrFrontierNotComputed = errors.New("dominance frontier has not been computed")

	// ErrComputationInProgress is returned when an analysis is started on a
	// graph that is already being analysed.
	ErrComputationInProgress = errors.New("computation already in progress")
)

// MalformedGraphError reports an input graph that violates the reachability
// invariant. It is fatal for the graph; the analysis is not retried.
type MalformedGraphError struct {
	// Block is the node at which the violation was detected.
	Block BlockIndex

	// Err is the sentinel describing the violation.
	Err error
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed control flow graph at block %s: %v", e.Block, e.Err)
}

func (e *MalformedGraphError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is or wraps a MalformedGraphError.
func IsMalformed(err error) bool {
	var mge *MalformedGraphError
	return errors.As(err, &mge)
}

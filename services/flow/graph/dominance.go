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
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AleutianAI/flowdom/services/flow/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// Dominator Tree - Cooper-Harvey-Kennedy iterative algorithm
// =============================================================================

var dominanceTracer = otel.Tracer("flow.graph.dominance")

// maxIterationEvents caps the per-iteration span events recorded for a
// single computation.
const maxIterationEvents = 10

// ComputeDominance computes the immediate dominator of every node and builds
// the dominator tree.
//
// Description:
//
//	Uses the iterative data-flow approach from "A Simple, Fast Dominance
//	Algorithm" by Cooper, Harvey and Kennedy. Each pass walks the graph in
//	pre-order from the entry point. A node's candidate dominator is seeded
//	from its first already-visited predecessor and narrowed against every
//	other predecessor with a resolved dominator. Passes repeat until one
//	changes nothing.
//
// Inputs:
//
//   - ctx: Cancellation signal, polled once at the top of every pass. May be nil.
//
// Outputs:
//
//   - error: nil on success. ctx.Err() on cancellation. A
//     *MalformedGraphError for unreachable nodes or broken dominator chains.
//     ErrComputationInProgress if the graph is already being analysed.
//
// On success every reached node has ImmediateDominator set, the entry point
// has NoBlock, and DominatorTreeChildren lists are filled in ascending index
// order. Unreached exit sentinels keep NoBlock.
//
// On any error the dominance fields are undefined and must not be read.
// Edge lists are never modified.
//
// The first call seals the graph against further AddNode and Connect calls.
// Calling it again on the same graph recomputes the same result.
//
// Thread Safety: Not safe for concurrent use on the same graph.
//
// Complexity: O(passes × (V + E × depth)). Reducible graphs typically
// converge in two or three passes.
func (g *ControlFlowGraph) ComputeDominance(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !g.busy.CompareAndSwap(false, true) {
		return ErrComputationInProgress
	}
	defer g.busy.Store(false)

	g.sealed = true
	g.dominanceDone = false
	g.frontierDone = false
	g.iterations = 0

	startTime := time.Now()
	ctx, span := dominanceTracer.Start(ctx, "ControlFlowGraph.ComputeDominance",
		trace.WithAttributes(
			attribute.Int("node_count", len(g.nodes)),
			attribute.Int("edge_count", g.edgeCount),
		),
	)
	defer span.End()
	logger := telemetry.LoggerWithTrace(ctx, slog.Default())

	iterations, err := g.computeDominance(ctx, span, logger)
	if err != nil {
		outcome := outcomeError
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = outcomeCancelled
			span.AddEvent("context_cancelled", trace.WithAttributes(
				attribute.Int("iteration", iterations),
			))
		case IsMalformed(err):
			outcome = outcomeMalformed
			logger.Warn("dominance: malformed graph", slog.String("error", err.Error()))
		}
		telemetry.RecordError(span, err, attribute.String("outcome", outcome))
		recordPassMetrics(ctx, "dominance", time.Since(startTime), len(g.nodes), iterations, outcome)
		return err
	}

	g.iterations = iterations
	g.dominanceDone = true

	span.AddEvent("algorithm_complete", trace.WithAttributes(
		attribute.Int("iterations", iterations),
	))
	telemetry.SetSpanOK(span)
	recordPassMetrics(ctx, "dominance", time.Since(startTime), len(g.nodes), iterations, outcomeSuccess)

	logger.Debug("dominance: analysis complete",
		slog.Int("nodes", len(g.nodes)),
		slog.Int("iterations", iterations),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// computeDominance runs the fixpoint and returns the number of passes made.
func (g *ControlFlowGraph) computeDominance(ctx context.Context, span trace.Span, logger *slog.Logger) (int, error) {
	for _, n := range g.nodes {
		n.ImmediateDominator = NoBlock
		n.DominatorTreeChildren = nil
		n.dominanceFrontier = nil
	}

	// The entry is its own dominator while iterating so that every resolved
	// chain ends at a fixed point.
	entry := g.nodes[EntryIndex]
	entry.ImmediateDominator = EntryIndex

	iterations := 0
	for changed := true; changed; {
		if err := ctx.Err(); err != nil {
			return iterations, err
		}

		changed = false
		iterations++
		g.ResetVisited()

		err := g.traversePreOrder(EntryIndex, func(b *Node) error {
			if b.BlockIndex == EntryIndex {
				return nil
			}

			newIdom := NoBlock
			for _, e := range b.Incoming {
				if e.From != b.BlockIndex && g.nodes[e.From].visited {
					newIdom = e.From
					break
				}
			}
			if newIdom == NoBlock {
				return &MalformedGraphError{Block: b.BlockIndex, Err: ErrNoVisitedPredecessor}
			}

			for _, e := range b.Incoming {
				p := e.From
				if p == b.BlockIndex || g.nodes[p].ImmediateDominator == NoBlock {
					continue
				}
				idom, err := g.commonDominator(p, newIdom)
				if err != nil {
					return &MalformedGraphError{Block: b.BlockIndex, Err: err}
				}
				newIdom = idom
			}

			if b.ImmediateDominator != newIdom {
				b.ImmediateDominator = newIdom
				changed = true
			}
			return nil
		})
		if err != nil {
			return iterations, err
		}

		// The first pass visits every reachable node, so anything still
		// unvisited can never be reached.
		if iterations == 1 {
			if err := g.checkReachable(); err != nil {
				return iterations, err
			}
		}

		if iterations <= maxIterationEvents || !changed {
			span.AddEvent("iteration_complete", trace.WithAttributes(
				attribute.Int("iteration", iterations),
				attribute.Bool("changed", changed),
			))
		}
		logger.Debug("dominance: iteration complete",
			slog.Int("iteration", iterations),
			slog.Bool("changed", changed),
		)
	}

	entry.ImmediateDominator = NoBlock
	for _, n := range g.nodes {
		if n.ImmediateDominator != NoBlock {
			parent := g.nodes[n.ImmediateDominator]
			parent.DominatorTreeChildren = append(parent.DominatorTreeChildren, n.BlockIndex)
		}
	}
	return iterations, nil
}

// checkReachable fails for the first non-sentinel node the last traversal
// did not visit. Exit sentinels may legitimately be unreached.
func (g *ControlFlowGraph) checkReachable() error {
	for _, n := range g.nodes {
		if n.visited || n.BlockIndex == EntryIndex || n.Type.IsSentinel() {
			continue
		}
		return &MalformedGraphError{Block: n.BlockIndex, Err: ErrUnreachableNode}
	}
	return nil
}

// commonDominator returns the nearest node on both immediate dominator
// chains. The scratch set is local to the call, so graphs analysed
// concurrently share nothing.
func (g *ControlFlowGraph) commonDominator(b1, b2 BlockIndex) (BlockIndex, error) {
	path := make(map[BlockIndex]struct{})
	for b1 != NoBlock {
		if _, seen := path[b1]; seen {
			break
		}
		path[b1] = struct{}{}
		b1 = g.nodes[b1].ImmediateDominator
	}

	// A chain longer than the graph must be cycling.
	for steps := 0; b2 != NoBlock && steps <= len(g.nodes); steps++ {
		if _, ok := path[b2]; ok {
			return b2, nil
		}
		b2 = g.nodes[b2].ImmediateDominator
	}
	return NoBlock, ErrNoCommonDominator
}

// Dominates reports whether a dominates b. Every node dominates itself.
// It returns false if dominance has not been computed or either index is
// invalid.
func (g *ControlFlowGraph) Dominates(a, b BlockIndex) bool {
	if !g.dominanceDone || !g.valid(a) || !g.valid(b) {
		return false
	}
	if a == b {
		return true
	}
	for cur := g.nodes[b].ImmediateDominator; cur != NoBlock; cur = g.nodes[cur].ImmediateDominator {
		if cur == a {
			return true
		}
	}
	return false
}

// StrictlyDominates reports whether a dominates b and a != b.
func (g *ControlFlowGraph) StrictlyDominates(a, b BlockIndex) bool {
	return a != b && g.Dominates(a, b)
}

// DominatorTreeDepth returns the number of immediate dominator links from
// block i up to the entry point. The entry point has depth 0.
//
// Returns ErrDominanceNotComputed before ComputeDominance succeeds,
// ErrInvalidBlock for an out-of-range index, and ErrUnreachableNode for an
// exit sentinel the analysis never reached.
func (g *ControlFlowGraph) DominatorTreeDepth(i BlockIndex) (int, error) {
	if !g.dominanceDone {
		return 0, ErrDominanceNotComputed
	}
	if !g.valid(i) {
		return 0, ErrInvalidBlock
	}
	depth := 0
	cur := i
	for cur != EntryIndex {
		next := g.nodes[cur].ImmediateDominator
		if next == NoBlock {
			return 0, ErrUnreachableNode
		}
		cur = next
		depth++
	}
	return depth, nil
}

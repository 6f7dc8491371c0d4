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
	"log/slog"
	"time"

	"github.com/AleutianAI/flowdom/services/flow/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// Dominance Frontier
// =============================================================================

var dominanceFrontierTracer = otel.Tracer("flow.graph.dominance_frontier")

// ComputeDominanceFrontier computes the dominance frontier of every node.
//
// Description:
//
//	DF(n) holds each node y such that n dominates a predecessor of y but
//	does not strictly dominate y. It marks where n's control ends and is
//	used to locate merge points. Uses the Cytron et al. (1991) post-order
//	walk of the dominator tree. Children are finished before their parent.
//	  - local: successors s of n with idom(s) != n
//	  - up: members p of DF(c), for each child c, with idom(p) != n
//
// Inputs:
//
//   - ctx: Checked once before the walk. May be nil.
//
// Outputs:
//
//   - error: ErrDominanceNotComputed if ComputeDominance has not succeeded,
//     ErrComputationInProgress on re-entry, ctx.Err() if already cancelled.
//
// Limitations:
//
//   - A loop header appears in its own frontier: it dominates the latch,
//     which is a predecessor of the header, and it does not strictly
//     dominate itself.
//   - Exit sentinels never reached by the dominance pass get an empty frontier.
//
// Thread Safety: Not safe for concurrent use on the same graph.
//
// Complexity: O(E + Σ|DF|).
func (g *ControlFlowGraph) ComputeDominanceFrontier(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !g.dominanceDone {
		return ErrDominanceNotComputed
	}
	if !g.busy.CompareAndSwap(false, true) {
		return ErrComputationInProgress
	}
	defer g.busy.Store(false)

	startTime := time.Now()
	ctx, span := dominanceFrontierTracer.Start(ctx, "ControlFlowGraph.ComputeDominanceFrontier",
		trace.WithAttributes(
			attribute.Int("node_count", len(g.nodes)),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.AddEvent("context_cancelled_early")
		telemetry.RecordError(span, err)
		recordPassMetrics(ctx, "frontier", time.Since(startTime), len(g.nodes), 0, outcomeCancelled)
		return err
	}

	g.frontierDone = false
	for _, n := range g.nodes {
		n.dominanceFrontier = make(map[BlockIndex]struct{})
	}

	g.ResetVisited()
	g.traverseDominatorTreePostOrder(EntryIndex, func(n *Node) {
		df := n.dominanceFrontier
		for _, e := range n.Outgoing {
			if g.nodes[e.To].ImmediateDominator != n.BlockIndex {
				df[e.To] = struct{}{}
			}
		}
		for _, c := range n.DominatorTreeChildren {
			for p := range g.nodes[c].dominanceFrontier {
				if g.nodes[p].ImmediateDominator != n.BlockIndex {
					df[p] = struct{}{}
				}
			}
		}
	})
	g.frontierDone = true

	nonEmpty, total := 0, 0
	for _, n := range g.nodes {
		if len(n.dominanceFrontier) > 0 {
			nonEmpty++
			total += len(n.dominanceFrontier)
		}
	}

	span.AddEvent("computation_complete", trace.WithAttributes(
		attribute.Int("nodes_with_frontiers", nonEmpty),
		attribute.Int("total_frontier_entries", total),
	))
	telemetry.SetSpanOK(span)
	recordPassMetrics(ctx, "frontier", time.Since(startTime), len(g.nodes), 0, outcomeSuccess)

	telemetry.LoggerWithTrace(ctx, slog.Default()).Debug("dominance_frontier: computation complete",
		slog.Int("nodes_with_frontiers", nonEmpty),
		slog.Int("total_entries", total),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package structure

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/AleutianAI/flowdom/services/flow/graph"
	"github.com/AleutianAI/flowdom/services/flow/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// Natural Loop Detection
// =============================================================================

var loopTracer = otel.Tracer("flow.structure.loops")

// loopContextCheckInterval is how often the back edge scan polls ctx.
const loopContextCheckInterval = 100

// Loop is a natural loop.
//
// A natural loop is defined by one or more back edges a -> h where h
// dominates a. The header h is the single entry into the loop.
//
// Thread Safety: Safe for concurrent reads after construction.
type Loop struct {
	// Header is the loop header.
	Header graph.BlockIndex

	// BackEdges are the edges into the header from inside the loop, as
	// [from, to] pairs.
	BackEdges [][2]graph.BlockIndex

	// Body holds every block of the loop, header included, in ascending order.
	Body []graph.BlockIndex

	// Depth is the nesting depth; 0 for outermost loops.
	Depth int

	// Parent is the innermost enclosing loop, or nil.
	Parent *Loop

	// Children are the loops directly nested in this one.
	Children []*Loop
}

// Contains reports whether b is in the loop body.
func (l *Loop) Contains(b graph.BlockIndex) bool {
	i := sort.Search(len(l.Body), func(i int) bool { return l.Body[i] >= b })
	return i < len(l.Body) && l.Body[i] == b
}

// LoopNest is the loop nesting forest of a graph.
type LoopNest struct {
	// Loops holds every loop ordered by header index.
	Loops []*Loop

	// TopLevel holds loops without a parent.
	TopLevel []*Loop

	// MaxDepth is the deepest nesting depth, or -1 when there are no loops.
	MaxDepth int

	// BackEdgeCount is the number of back edges found.
	BackEdgeCount int

	innermost map[graph.BlockIndex]*Loop
	byHeader  map[graph.BlockIndex]*Loop
}

// LoopOf returns the innermost loop containing b, or nil.
func (ln *LoopNest) LoopOf(b graph.BlockIndex) *Loop {
	if ln == nil {
		return nil
	}
	return ln.innermost[b]
}

// IsLoopHeader reports whether b heads a loop.
func (ln *LoopNest) IsLoopHeader(b graph.BlockIndex) bool {
	if ln == nil {
		return false
	}
	_, ok := ln.byHeader[b]
	return ok
}

// FindLoops detects natural loops and their nesting.
//
// Description:
//
//	Back edges are edges whose target dominates their source. All back
//	edges sharing a header form one loop. The body is collected by a
//	reverse search from the back edge sources that stops at the header. A
//	loop's parent is the smallest other loop whose body holds its header.
//
// Inputs:
//
//   - ctx: Cancellation signal. May be nil.
//   - g: A graph on which ComputeDominance has succeeded.
//
// Outputs:
//
//   - *LoopNest: The loops. Never nil on success.
//   - error: graph.ErrDominanceNotComputed, or ctx.Err() on cancellation.
//
// Thread Safety: Read-only over g.
//
// Complexity: O(E + L × V) for L loops.
func FindLoops(ctx context.Context, g *graph.ControlFlowGraph) (*LoopNest, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if g == nil || !g.DominanceComputed() {
		return nil, graph.ErrDominanceNotComputed
	}

	startTime := time.Now()
	ctx, span := loopTracer.Start(ctx, "structure.FindLoops",
		trace.WithAttributes(attribute.Int("node_count", g.Len())),
	)
	defer span.End()

	nest := &LoopNest{
		Loops:     make([]*Loop, 0),
		TopLevel:  make([]*Loop, 0),
		MaxDepth:  -1,
		innermost: make(map[graph.BlockIndex]*Loop),
		byHeader:  make(map[graph.BlockIndex]*Loop),
	}

	for i, n := range g.Nodes() {
		if i%loopContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
		}
		for _, e := range n.Outgoing {
			if !g.Dominates(e.To, e.From) {
				continue
			}
			loop, ok := nest.byHeader[e.To]
			if !ok {
				loop = &Loop{Header: e.To}
				nest.byHeader[e.To] = loop
				nest.Loops = append(nest.Loops, loop)
			}
			loop.BackEdges = append(loop.BackEdges, [2]graph.BlockIndex{e.From, e.To})
			nest.BackEdgeCount++
		}
	}

	sort.Slice(nest.Loops, func(i, j int) bool { return nest.Loops[i].Header < nest.Loops[j].Header })
	for _, loop := range nest.Loops {
		loop.Body = loopBody(g, loop)
	}
	buildNesting(nest)

	span.AddEvent("loops_detected", trace.WithAttributes(
		attribute.Int("loop_count", len(nest.Loops)),
		attribute.Int("back_edges", nest.BackEdgeCount),
		attribute.Int("max_depth", nest.MaxDepth),
	))
	telemetry.SetSpanOK(span)

	telemetry.LoggerWithTrace(ctx, slog.Default()).Debug("find_loops: complete",
		slog.Int("loops", len(nest.Loops)),
		slog.Int("max_depth", nest.MaxDepth),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nest, nil
}

// loopBody walks predecessors from the back edge sources. The header is
// seeded into the body so the walk never passes through it. Predecessors the
// header does not dominate, such as an unreached exit sentinel with an edge
// into the loop, are not part of it.
func loopBody(g *graph.ControlFlowGraph, loop *Loop) []graph.BlockIndex {
	body := map[graph.BlockIndex]bool{loop.Header: true}

	var worklist []graph.BlockIndex
	for _, e := range loop.BackEdges {
		if !body[e[0]] {
			body[e[0]] = true
			worklist = append(worklist, e[0])
		}
	}

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range g.Node(b).Predecessors() {
			if !body[p] && g.Dominates(loop.Header, p) {
				body[p] = true
				worklist = append(worklist, p)
			}
		}
	}

	out := make([]graph.BlockIndex, 0, len(body))
	for b := range body {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func buildNesting(nest *LoopNest) {
	for _, inner := range nest.Loops {
		var parent *Loop
		for _, outer := range nest.Loops {
			if outer == inner || !outer.Contains(inner.Header) {
				continue
			}
			if parent == nil || len(outer.Body) < len(parent.Body) {
				parent = outer
			}
		}
		if parent != nil {
			inner.Parent = parent
			parent.Children = append(parent.Children, inner)
		} else {
			nest.TopLevel = append(nest.TopLevel, inner)
		}
	}

	var setDepth func(l *Loop, depth int)
	setDepth = func(l *Loop, depth int) {
		l.Depth = depth
		if depth > nest.MaxDepth {
			nest.MaxDepth = depth
		}
		for _, c := range l.Children {
			setDepth(c, depth+1)
		}
	}
	for _, l := range nest.TopLevel {
		setDepth(l, 0)
	}

	// Deeper loops claim their blocks first.
	ordered := append([]*Loop(nil), nest.Loops...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Depth > ordered[j].Depth })
	for _, l := range ordered {
		for _, b := range l.Body {
			if _, ok := nest.innermost[b]; !ok {
				nest.innermost[b] = l
			}
		}
	}
}

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
	"testing"

	"github.com/AleutianAI/flowdom/services/flow/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAnalysed builds a graph from named blocks and edges and runs both
// dominance passes.
func buildAnalysed(t *testing.T, blocks []string, edges [][2]string) (*graph.ControlFlowGraph, map[string]graph.BlockIndex) {
	t.Helper()

	g := graph.NewControlFlowGraph()
	ids := map[string]graph.BlockIndex{"entry": graph.EntryIndex, "exit": graph.RegularExitIndex}
	for _, name := range blocks {
		n, err := g.AddNode(graph.NodeNormal, name)
		require.NoError(t, err)
		ids[name] = n.BlockIndex
	}
	for _, e := range edges {
		_, err := g.Connect(ids[e[0]], ids[e[1]], graph.JumpNormal)
		require.NoError(t, err)
	}
	require.NoError(t, g.ComputeDominance(context.Background()))
	require.NoError(t, g.ComputeDominanceFrontier(context.Background()))
	return g, ids
}

func TestMergePoints_Diamond(t *testing.T) {
	g, ids := buildAnalysed(t, []string{"A", "B", "C", "D"}, [][2]string{
		{"entry", "A"}, {"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}, {"D", "exit"},
	})

	points, err := MergePoints(g)
	require.NoError(t, err)
	assert.Equal(t, []MergePoint{{Block: ids["D"], Degree: 2}}, points)
}

func TestMergePoints_OrderedByDegree(t *testing.T) {
	// Three-way switch into M, two-way into N.
	g, ids := buildAnalysed(t, []string{"S", "X", "Y", "Z", "M", "P", "Q", "N"}, [][2]string{
		{"entry", "S"}, {"S", "X"}, {"S", "Y"}, {"S", "Z"},
		{"X", "M"}, {"Y", "M"}, {"Z", "M"},
		{"M", "P"}, {"M", "Q"}, {"P", "N"}, {"Q", "N"}, {"N", "exit"},
	})

	points, err := MergePoints(g)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, MergePoint{Block: ids["M"], Degree: 3}, points[0])
	assert.Equal(t, MergePoint{Block: ids["N"], Degree: 2}, points[1])
}

func TestMergePoints_RequiresFrontier(t *testing.T) {
	g := graph.NewControlFlowGraph()

	_, err := MergePoints(g)
	assert.ErrorIs(t, err, graph.ErrFrontierNotComputed)
	_, err = MergePoints(nil)
	assert.ErrorIs(t, err, graph.ErrFrontierNotComputed)
}

func TestFindLoops_None(t *testing.T) {
	g, _ := buildAnalysed(t, []string{"A"}, [][2]string{{"entry", "A"}, {"A", "exit"}})

	nest, err := FindLoops(context.Background(), g)
	require.NoError(t, err)
	assert.Empty(t, nest.Loops)
	assert.Equal(t, -1, nest.MaxDepth)
	assert.Nil(t, nest.LoopOf(graph.EntryIndex))
}

func TestFindLoops_SimpleLoop(t *testing.T) {
	g, ids := buildAnalysed(t, []string{"Header", "Body"}, [][2]string{
		{"entry", "Header"}, {"Header", "Body"}, {"Body", "Header"}, {"Header", "exit"},
	})

	nest, err := FindLoops(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, nest.Loops, 1)

	loop := nest.Loops[0]
	assert.Equal(t, ids["Header"], loop.Header)
	assert.Equal(t, []graph.BlockIndex{ids["Header"], ids["Body"]}, loop.Body)
	assert.Equal(t, [][2]graph.BlockIndex{{ids["Body"], ids["Header"]}}, loop.BackEdges)
	assert.True(t, nest.IsLoopHeader(ids["Header"]))
	assert.False(t, nest.IsLoopHeader(ids["Body"]))
	assert.Same(t, loop, nest.LoopOf(ids["Body"]))
	assert.Nil(t, nest.LoopOf(graph.RegularExitIndex))
	assert.Equal(t, 0, nest.MaxDepth)
}

func TestFindLoops_UnreachedSentinelIntoLoop(t *testing.T) {
	g := graph.NewControlFlowGraph()
	header, err := g.AddNode(graph.NodeNormal, "Header")
	require.NoError(t, err)
	body, err := g.AddNode(graph.NodeNormal, "Body")
	require.NoError(t, err)
	for _, e := range [][2]graph.BlockIndex{
		{graph.EntryIndex, header.BlockIndex},
		{header.BlockIndex, body.BlockIndex},
		{body.BlockIndex, header.BlockIndex},
		{header.BlockIndex, graph.RegularExitIndex},
		{graph.ExceptionalExitIndex, body.BlockIndex},
	} {
		_, err := g.Connect(e[0], e[1], graph.JumpNormal)
		require.NoError(t, err)
	}
	require.NoError(t, g.ComputeDominance(context.Background()))

	nest, err := FindLoops(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, nest.Loops, 1)

	loop := nest.Loops[0]
	assert.Equal(t, []graph.BlockIndex{header.BlockIndex, body.BlockIndex}, loop.Body)
	assert.False(t, loop.Contains(graph.ExceptionalExitIndex))
	assert.Nil(t, nest.LoopOf(graph.ExceptionalExitIndex))
}

func TestFindLoops_Nested(t *testing.T) {
	g, ids := buildAnalysed(t, []string{"H1", "H2", "B", "L"}, [][2]string{
		{"entry", "H1"}, {"H1", "H2"}, {"H2", "B"}, {"B", "H2"},
		{"H2", "L"}, {"L", "H1"}, {"H1", "exit"},
	})

	nest, err := FindLoops(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, nest.Loops, 2)

	outer, inner := nest.Loops[0], nest.Loops[1]
	assert.Equal(t, ids["H1"], outer.Header)
	assert.Equal(t, ids["H2"], inner.Header)
	assert.Same(t, outer, inner.Parent)
	assert.Equal(t, []*Loop{inner}, outer.Children)
	assert.Equal(t, []*Loop{outer}, nest.TopLevel)
	assert.Equal(t, 1, inner.Depth)
	assert.Equal(t, 1, nest.MaxDepth)
	assert.Equal(t, 2, nest.BackEdgeCount)

	assert.Same(t, inner, nest.LoopOf(ids["B"]))
	assert.Same(t, outer, nest.LoopOf(ids["L"]))
	assert.Same(t, outer, nest.LoopOf(ids["H1"]))
	assert.True(t, outer.Contains(ids["B"]))
	assert.False(t, inner.Contains(ids["L"]))
}

func TestFindLoops_SharedHeader(t *testing.T) {
	// Two latches back to the same header form one loop.
	g, ids := buildAnalysed(t, []string{"H", "A", "B"}, [][2]string{
		{"entry", "H"}, {"H", "A"}, {"H", "B"}, {"A", "H"}, {"B", "H"}, {"H", "exit"},
	})

	nest, err := FindLoops(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, nest.Loops, 1)
	assert.Len(t, nest.Loops[0].BackEdges, 2)
	assert.Equal(t, []graph.BlockIndex{ids["H"], ids["A"], ids["B"]}, nest.Loops[0].Body)
}

func TestFindLoops_RequiresDominance(t *testing.T) {
	_, err := FindLoops(context.Background(), graph.NewControlFlowGraph())
	assert.ErrorIs(t, err, graph.ErrDominanceNotComputed)
}

func TestFindLoops_CancelledContext(t *testing.T) {
	g, _ := buildAnalysed(t, []string{"A"}, [][2]string{{"entry", "A"}, {"A", "exit"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindLoops(ctx, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsReducible(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		edges  [][2]string
		want   bool
	}{
		{
			name:   "linear",
			blocks: []string{"A"},
			edges:  [][2]string{{"entry", "A"}, {"A", "exit"}},
			want:   true,
		},
		{
			name:   "natural loop",
			blocks: []string{"H", "B"},
			edges:  [][2]string{{"entry", "H"}, {"H", "B"}, {"B", "H"}, {"H", "exit"}},
			want:   true,
		},
		{
			name:   "self loop",
			blocks: []string{"A"},
			edges:  [][2]string{{"entry", "A"}, {"A", "A"}, {"A", "exit"}},
			want:   true,
		},
		{
			name:   "two entry cycle",
			blocks: []string{"A", "B"},
			edges:  [][2]string{{"entry", "A"}, {"entry", "B"}, {"A", "B"}, {"B", "A"}, {"A", "exit"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := buildAnalysed(t, tt.blocks, tt.edges)
			got, err := IsReducible(g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsReducible_RequiresDominance(t *testing.T) {
	_, err := IsReducible(graph.NewControlFlowGraph())
	assert.ErrorIs(t, err, graph.ErrDominanceNotComputed)
}

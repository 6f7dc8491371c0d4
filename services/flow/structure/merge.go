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
	"sort"

	"github.com/AleutianAI/flowdom/services/flow/graph"
)

// MergePoint is a block where control from two or more regions joins.
type MergePoint struct {
	// Block is the merge block.
	Block graph.BlockIndex `json:"block"`

	// Degree is the number of blocks whose dominance frontier contains Block.
	Degree int `json:"degree"`
}

// MergePoints returns the blocks that appear in the dominance frontier of at
// least two blocks, ordered by degree descending and then by index.
//
// Returns graph.ErrFrontierNotComputed if the frontier is missing.
func MergePoints(g *graph.ControlFlowGraph) ([]MergePoint, error) {
	if g == nil || !g.FrontierComputed() {
		return nil, graph.ErrFrontierNotComputed
	}

	degree := make(map[graph.BlockIndex]int)
	for _, n := range g.Nodes() {
		for _, m := range g.Frontier(n.BlockIndex) {
			degree[m]++
		}
	}

	points := make([]MergePoint, 0, len(degree))
	for b, d := range degree {
		if d >= 2 {
			points = append(points, MergePoint{Block: b, Degree: d})
		}
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Degree != points[j].Degree {
			return points[i].Degree > points[j].Degree
		}
		return points[i].Block < points[j].Block
	})
	return points, nil
}

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

import "github.com/AleutianAI/flowdom/services/flow/graph"

// IsReducible reports whether every retreating edge of a depth-first walk
// from the entry point is a back edge, that is, whether every cycle is
// entered only through a header that dominates it.
//
// Returns graph.ErrDominanceNotComputed if dominance is missing.
func IsReducible(g *graph.ControlFlowGraph) (bool, error) {
	if g == nil || !g.DominanceComputed() {
		return false, graph.ErrDominanceNotComputed
	}

	const (
		white = iota
		grey
		black
	)
	colour := make([]int, g.Len())

	type frame struct {
		block graph.BlockIndex
		next  int
	}
	colour[graph.EntryIndex] = grey
	stack := []frame{{block: graph.EntryIndex}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		out := g.Node(top.block).Outgoing
		if top.next == len(out) {
			colour[top.block] = black
			stack = stack[:len(stack)-1]
			continue
		}
		e := out[top.next]
		top.next++

		switch colour[e.To] {
		case white:
			colour[e.To] = grey
			stack = append(stack, frame{block: e.To})
		case grey:
			if !g.Dominates(e.To, e.From) {
				return false, nil
			}
		}
	}
	return true, nil
}

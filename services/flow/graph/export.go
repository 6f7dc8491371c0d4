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

import "github.com/AleutianAI/flowdom/services/flow/export"

// ExportGraph projects the graph into a renderer-neutral description.
//
// Every node becomes a box labelled with Node.String(). Flow edges are
// coloured by jump type: normal edges have no colour, LeaveTry and
// EndFinally are red, anything else is gray. If dominance has been
// computed, each immediate dominator link is added as a green edge from
// the dominator to the node that does not constrain layout.
func (g *ControlFlowGraph) ExportGraph(name string) *export.Graph {
	out := export.NewGraph(name)

	for _, n := range g.nodes {
		out.AddNode(export.Node{
			ID:    int(n.BlockIndex),
			Label: n.String(),
			Shape: "box",
		})
	}

	for _, n := range g.nodes {
		for _, e := range n.Outgoing {
			out.AddEdge(export.Edge{
				From:       int(e.From),
				To:         int(e.To),
				Color:      jumpColor(e.Type),
				Constraint: true,
			})
		}
		if g.dominanceDone && n.ImmediateDominator != NoBlock {
			out.AddEdge(export.Edge{
				From:       int(n.ImmediateDominator),
				To:         int(n.BlockIndex),
				Color:      export.ColorDominator,
				Constraint: false,
			})
		}
	}
	return out
}

func jumpColor(j JumpType) string {
	switch j {
	case JumpNormal:
		return export.ColorNone
	case JumpLeaveTry, JumpEndFinally:
		return export.ColorRed
	default:
		return export.ColorGray
	}
}

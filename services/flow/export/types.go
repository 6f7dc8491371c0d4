// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export renders control flow graphs for visualization tools.
//
// A Graph is a generic node/edge description with per-edge colours. The
// graph package projects a ControlFlowGraph into one; Render turns it into
// Graphviz DOT, a Mermaid flowchart or JSON. Nothing here is on the
// decompilation path; it exists for developer tooling.
package export

import (
	"errors"
	"fmt"
)

// Format specifies the rendered output format.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
)

// ErrUnsupportedFormat is returned by Render and ParseFormat for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Edge colours used by the control flow projection.
const (
	ColorNone      = ""
	ColorRed       = "red"
	ColorGray      = "gray"
	ColorDominator = "green"
)

// Graph is a renderer-neutral description of a directed graph.
type Graph struct {
	Name  string `json:"name,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one vertex of an exported graph.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Shape string `json:"shape,omitempty"`
}

// Edge is one directed edge of an exported graph.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Color string `json:"color,omitempty"`

	// Constraint is false for edges that should not influence layout ranking,
	// such as dominator tree edges drawn over the flow graph.
	Constraint bool `json:"constraint"`
}

// NewGraph returns an empty graph with the given name.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:  name,
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode appends a node.
func (g *Graph) AddNode(n Node) {
	g.Nodes = append(g.Nodes, n)
}

// AddEdge appends an edge.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// ParseFormat validates a user supplied format name. An empty name selects DOT.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatMermaid:
		return FormatMermaid, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

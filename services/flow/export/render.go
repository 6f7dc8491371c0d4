// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package export

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render renders g in the requested format.
//
// # Inputs
//
//   - g: The graph to render. Must not be nil.
//   - format: One of FormatDOT, FormatMermaid, FormatJSON.
//
// # Outputs
//
//   - string: The rendered graph.
//   - error: ErrUnsupportedFormat for unknown formats.
func Render(g *Graph, format Format) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is required")
	}

	switch format {
	case FormatDOT:
		return RenderDOT(g), nil
	case FormatMermaid:
		return RenderMermaid(g), nil
	case FormatJSON:
		return RenderJSON(g)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// RenderDOT renders g as a Graphviz digraph.
func RenderDOT(g *Graph) string {
	var sb strings.Builder

	name := g.Name
	if name == "" {
		name = "G"
	}
	sb.WriteString(fmt.Sprintf("digraph %s {\n", quoteDOT(name)))
	sb.WriteString("    node [shape=box];\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%s", quoteDOT(n.Label))}
		if n.Shape != "" && n.Shape != "box" {
			attrs = append(attrs, "shape="+n.Shape)
		}
		sb.WriteString(fmt.Sprintf("    %d [%s];\n", n.ID, strings.Join(attrs, ", ")))
	}

	for _, e := range g.Edges {
		var attrs []string
		if e.Color != ColorNone {
			attrs = append(attrs, "color="+e.Color)
		}
		if !e.Constraint {
			attrs = append(attrs, "constraint=false")
		}
		if len(attrs) == 0 {
			sb.WriteString(fmt.Sprintf("    %d -> %d;\n", e.From, e.To))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %d -> %d [%s];\n", e.From, e.To, strings.Join(attrs, ", ")))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// RenderMermaid renders g as a Mermaid flowchart. Edges without a layout
// constraint are drawn dotted; coloured edges get a linkStyle line.
func RenderMermaid(g *Graph) string {
	var sb strings.Builder

	sb.WriteString("flowchart TB\n")
	for _, n := range g.Nodes {
		sb.WriteString(fmt.Sprintf("    n%d[\"%s\"]\n", n.ID, escapeMermaidLabel(n.Label)))
	}

	var styles []string
	for i, e := range g.Edges {
		arrow := "-->"
		if !e.Constraint {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    n%d %s n%d\n", e.From, arrow, e.To))
		if e.Color != ColorNone {
			styles = append(styles, fmt.Sprintf("    linkStyle %d stroke:%s\n", i, e.Color))
		}
	}

	for _, s := range styles {
		sb.WriteString(s)
	}
	return sb.String()
}

// RenderJSON renders g as indented JSON.
func RenderJSON(g *Graph) (string, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(data), nil
}

func quoteDOT(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
	)
	return "\"" + replacer.Replace(s) + "\""
}

func escapeMermaidLabel(s string) string {
	replacer := strings.NewReplacer(
		"\"", "#quot;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}

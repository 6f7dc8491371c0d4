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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *Graph {
	g := NewGraph("Program.Main")
	g.AddNode(Node{ID: 0, Label: "EntryPoint", Shape: "box"})
	g.AddNode(Node{ID: 3, Label: "Block #3: say \"hi\"", Shape: "box"})
	g.AddEdge(Edge{From: 0, To: 3, Constraint: true})
	g.AddEdge(Edge{From: 3, To: 0, Color: ColorRed, Constraint: true})
	g.AddEdge(Edge{From: 0, To: 3, Color: ColorDominator, Constraint: false})
	return g
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatDOT, false},
		{"dot", FormatDOT, false},
		{"mermaid", FormatMermaid, false},
		{"json", FormatJSON, false},
		{"svg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderDOT(t *testing.T) {
	out := RenderDOT(sampleGraph())

	assert.Contains(t, out, "digraph \"Program.Main\" {")
	assert.Contains(t, out, "    0 [label=\"EntryPoint\"];")
	assert.Contains(t, out, "label=\"Block #3: say \\\"hi\\\"\"")
	assert.Contains(t, out, "    0 -> 3;\n")
	assert.Contains(t, out, "    3 -> 0 [color=red];")
	assert.Contains(t, out, "    0 -> 3 [color=green, constraint=false];")
	assert.Contains(t, out, "}\n")
}

func TestRenderMermaid(t *testing.T) {
	out := RenderMermaid(sampleGraph())

	assert.Contains(t, out, "flowchart TB\n")
	assert.Contains(t, out, "n3[\"Block #3: say #quot;hi#quot;\"]")
	assert.Contains(t, out, "    n0 --> n3\n")
	assert.Contains(t, out, "    n0 -.-> n3\n")
	assert.Contains(t, out, "linkStyle 1 stroke:red")
	assert.Contains(t, out, "linkStyle 2 stroke:green")
	assert.NotContains(t, out, "linkStyle 0 ")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON(sampleGraph())
	require.NoError(t, err)

	var decoded Graph
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Program.Main", decoded.Name)
	assert.Len(t, decoded.Nodes, 2)
	require.Len(t, decoded.Edges, 3)
	assert.False(t, decoded.Edges[2].Constraint)
	assert.Equal(t, ColorDominator, decoded.Edges[2].Color)
}

func TestRender_Dispatch(t *testing.T) {
	g := sampleGraph()

	for _, f := range []Format{FormatDOT, FormatMermaid, FormatJSON} {
		out, err := Render(g, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}

	_, err := Render(g, Format("png"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Render(nil, FormatDOT)
	assert.Error(t, err)
}

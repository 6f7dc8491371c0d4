// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/flowdom/services/flow/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tryCatchYAML = `
name: Program.Main
blocks:
  - {name: A, label: "IL_0000-IL_0005"}
  - {name: H, kind: catch}
edges:
  - {from: entry, to: A}
  - {from: A, to: exit, type: leave_try}
  - {from: A, to: H, type: other}
  - {from: H, to: exceptional_exit, type: other}
`

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(tryCatchYAML))
	require.NoError(t, err)

	assert.Equal(t, "Program.Main", doc.Name)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "IL_0000-IL_0005", doc.Blocks[0].Label)
	assert.Equal(t, "catch", doc.Blocks[1].Kind)
	assert.Len(t, doc.Edges, 4)
}

func TestParse_JSON(t *testing.T) {
	doc, err := Parse([]byte(`{"name":"m","blocks":[{"name":"A"}],"edges":[{"from":"entry","to":"A"},{"from":"A","to":"exit"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "m", doc.Name)
	assert.Len(t, doc.Edges, 2)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", "blocks: [unterminated"},
		{"missing block name", "blocks: [{kind: normal}]"},
		{"bad kind", "blocks: [{name: A, kind: loop}]"},
		{"bad edge type", "edges: [{from: entry, to: exit, type: jump}]"},
		{"missing edge target", "edges: [{from: entry}]"},
		{"whitespace in name", "blocks: [{name: \"A B\"}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestBuild_Indices(t *testing.T) {
	doc, err := Parse([]byte(tryCatchYAML))
	require.NoError(t, err)

	g, ids, err := doc.Build()
	require.NoError(t, err)

	assert.Equal(t, graph.EntryIndex, ids["entry"])
	assert.Equal(t, graph.RegularExitIndex, ids["exit"])
	assert.Equal(t, graph.ExceptionalExitIndex, ids["exceptional_exit"])
	assert.Equal(t, graph.BlockIndex(3), ids["A"])
	assert.Equal(t, graph.BlockIndex(4), ids["H"])

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, graph.NodeCatchHandler, g.Node(ids["H"]).Type)
	assert.Equal(t, "IL_0000-IL_0005", g.Node(ids["A"]).Label)
	assert.Equal(t, graph.JumpLeaveTry, g.Node(ids["A"]).Outgoing[0].Type)
	assert.False(t, g.Sealed())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		limits  Limits
		wantErr error
	}{
		{
			name:    "duplicate",
			doc:     Document{Blocks: []Block{{Name: "A"}, {Name: "A"}}},
			wantErr: ErrDuplicateBlock,
		},
		{
			name:    "reserved",
			doc:     Document{Blocks: []Block{{Name: "exit"}}},
			wantErr: ErrDuplicateBlock,
		},
		{
			name:    "unknown source",
			doc:     Document{Edges: []Edge{{From: "B", To: "exit"}}},
			wantErr: ErrUnknownBlock,
		},
		{
			name:    "unknown target",
			doc:     Document{Edges: []Edge{{From: "entry", To: "B"}}},
			wantErr: ErrUnknownBlock,
		},
		{
			name:    "too many blocks",
			doc:     Document{Blocks: []Block{{Name: "A"}, {Name: "B"}}},
			limits:  Limits{MaxBlocks: 1},
			wantErr: ErrTooManyBlocks,
		},
		{
			name:    "too many edges",
			doc:     Document{Edges: []Edge{{From: "entry", To: "exit"}, {From: "entry", To: "exit"}}},
			limits:  Limits{MaxEdges: 1},
			wantErr: ErrTooManyEdges,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.doc.BuildWithLimits(tt.limits)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tryCatchYAML), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Program.Main", doc.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

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
	"fmt"
	"os"

	"github.com/AleutianAI/flowdom/services/flow/graph"
	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a YAML or JSON document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Build constructs the graph described by d using DefaultLimits.
func (d *Document) Build() (*graph.ControlFlowGraph, map[string]graph.BlockIndex, error) {
	return d.BuildWithLimits(DefaultLimits)
}

// BuildWithLimits constructs the graph described by d.
//
// # Outputs
//
//   - *graph.ControlFlowGraph: The unanalysed graph.
//   - map[string]graph.BlockIndex: Block name to index, reserved names
//     included. Declared blocks get indices from 3 in document order.
//   - error: ErrDuplicateBlock, ErrUnknownBlock, ErrTooManyBlocks,
//     ErrTooManyEdges or ErrInvalidDocument.
//
// A zero limit disables that check.
func (d *Document) BuildWithLimits(limits Limits) (*graph.ControlFlowGraph, map[string]graph.BlockIndex, error) {
	if d == nil {
		return nil, nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if limits.MaxBlocks > 0 && len(d.Blocks) > limits.MaxBlocks {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrTooManyBlocks, len(d.Blocks), limits.MaxBlocks)
	}
	if limits.MaxEdges > 0 && len(d.Edges) > limits.MaxEdges {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrTooManyEdges, len(d.Edges), limits.MaxEdges)
	}

	g := graph.NewControlFlowGraph()
	ids := map[string]graph.BlockIndex{
		EntryName:           graph.EntryIndex,
		ExitName:            graph.RegularExitIndex,
		ExceptionalExitName: graph.ExceptionalExitIndex,
	}

	for _, b := range d.Blocks {
		if _, dup := ids[b.Name]; dup || isReserved(b.Name) {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateBlock, b.Name)
		}
		n, err := g.AddNode(nodeType(b.Kind), b.Label)
		if err != nil {
			return nil, nil, fmt.Errorf("add block %q: %w", b.Name, err)
		}
		ids[b.Name] = n.BlockIndex
	}

	for i, e := range d.Edges {
		from, ok := ids[e.From]
		if !ok {
			return nil, nil, fmt.Errorf("%w: edge %d source %q", ErrUnknownBlock, i, e.From)
		}
		to, ok := ids[e.To]
		if !ok {
			return nil, nil, fmt.Errorf("%w: edge %d target %q", ErrUnknownBlock, i, e.To)
		}
		jt, err := graph.ParseJumpType(e.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: edge %d: %v", ErrInvalidDocument, i, err)
		}
		if _, err := g.Connect(from, to, jt); err != nil {
			return nil, nil, fmt.Errorf("connect %q -> %q: %w", e.From, e.To, err)
		}
	}
	return g, ids, nil
}

func nodeType(kind string) graph.NodeType {
	switch kind {
	case "catch":
		return graph.NodeCatchHandler
	case "finally":
		return graph.NodeFinallyOrFaultHandler
	default:
		return graph.NodeNormal
	}
}

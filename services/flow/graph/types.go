// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the control flow graph of a single method body and
// the dominance analyses run over it.
//
// The graph is a directed graph of basic blocks. A builder creates the graph
// with NewControlFlowGraph, adds blocks with AddNode and wires them with
// Connect. The decompiler pipeline then calls ComputeDominance followed by
// ComputeDominanceFrontier and reads the per-node results.
//
// # Storage Model
//
// Nodes live in a single arena slice indexed by BlockIndex. Every relation
// between nodes (edges, immediate dominator, dominator tree children,
// frontier members) is stored as a BlockIndex into that arena, never as a
// pointer owned by another node.
//
// # Reserved Indices
//
//   - 0: the entry point
//   - 1: the regular exit sentinel
//   - 2: the exceptional exit sentinel
//
// # Thread Safety
//
// A ControlFlowGraph is owned by exactly one caller at a time and is NOT safe
// for concurrent mutation. Independent graphs share no state and may be
// analysed on separate goroutines. After both analyses complete the graph is
// read-only and may be read concurrently.
package graph

import (
	"fmt"
	"strconv"
)

// BlockIndex identifies a node within its ControlFlowGraph.
type BlockIndex int

// NoBlock marks an absent node reference, such as the immediate dominator
// of the entry point.
const NoBlock BlockIndex = -1

// Reserved block indices created by NewControlFlowGraph.
const (
	EntryIndex           BlockIndex = 0
	RegularExitIndex     BlockIndex = 1
	ExceptionalExitIndex BlockIndex = 2
)

// String returns the decimal index, or "none" for NoBlock.
func (b BlockIndex) String() string {
	if b == NoBlock {
		return "none"
	}
	return strconv.Itoa(int(b))
}

// NodeType classifies a node.
type NodeType int

const (
	// NodeNormal is an ordinary basic block.
	NodeNormal NodeType = iota

	// NodeEntryPoint is the synthetic method entry.
	NodeEntryPoint

	// NodeRegularExit is the sentinel reached by normal returns.
	NodeRegularExit

	// NodeExceptionalExit is the sentinel reached by uncaught exceptions.
	NodeExceptionalExit

	// NodeCatchHandler is the first block of a catch handler.
	NodeCatchHandler

	// NodeFinallyOrFaultHandler is the first block of a finally or fault handler.
	NodeFinallyOrFaultHandler
)

// String returns the lower-case name of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeNormal:
		return "normal"
	case NodeEntryPoint:
		return "entry"
	case NodeRegularExit:
		return "regular_exit"
	case NodeExceptionalExit:
		return "exceptional_exit"
	case NodeCatchHandler:
		return "catch"
	case NodeFinallyOrFaultHandler:
		return "finally"
	default:
		return "unknown"
	}
}

// IsSentinel reports whether t is one of the two synthetic exit nodes.
func (t NodeType) IsSentinel() bool {
	return t == NodeRegularExit || t == NodeExceptionalExit
}

// JumpType classifies a control transfer. The dominance algorithms ignore
// it; only the diagnostic export reads it.
type JumpType int

const (
	// JumpNormal is a fall-through or ordinary branch.
	JumpNormal JumpType = iota

	// JumpLeaveTry leaves a protected region.
	JumpLeaveTry

	// JumpEndFinally ends a finally or fault block.
	JumpEndFinally

	// JumpOther is any other transfer, such as a jump to an exception handler.
	JumpOther
)

// String returns the lower-case name of the jump type.
func (j JumpType) String() string {
	switch j {
	case JumpNormal:
		return "normal"
	case JumpLeaveTry:
		return "leave_try"
	case JumpEndFinally:
		return "end_finally"
	case JumpOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseJumpType converts a name produced by JumpType.String back into a
// JumpType.
func ParseJumpType(s string) (JumpType, error) {
	switch s {
	case "", "normal":
		return JumpNormal, nil
	case "leave_try":
		return JumpLeaveTry, nil
	case "end_finally":
		return JumpEndFinally, nil
	case "other":
		return JumpOther, nil
	default:
		return JumpNormal, fmt.Errorf("%w: %q", ErrInvalidJumpType, s)
	}
}

// Edge is a directed control transfer between two nodes of the same graph.
type Edge struct {
	From BlockIndex
	To   BlockIndex
	Type JumpType
}

// Node is a basic block of the control flow graph.
//
// Outgoing and Incoming are populated by the builder before analysis. The
// dominance fields are written by ComputeDominance and
// ComputeDominanceFrontier and must be treated as read-only by callers.
type Node struct {
	// BlockIndex is the node's position in the graph arena.
	BlockIndex BlockIndex

	// Type classifies the node.
	Type NodeType

	// Label is an optional description, typically an IL offset range.
	Label string

	// Outgoing holds edges leaving this node, in insertion order.
	Outgoing []*Edge

	// Incoming holds edges entering this node, in insertion order.
	Incoming []*Edge

	// ImmediateDominator is the closest strict dominator, or NoBlock for the
	// entry point and for nodes the analysis never reached.
	ImmediateDominator BlockIndex

	// DominatorTreeChildren lists the nodes whose immediate dominator is this
	// node, in ascending index order.
	DominatorTreeChildren []BlockIndex

	// dominanceFrontier is nil until ComputeDominanceFrontier runs.
	dominanceFrontier map[BlockIndex]struct{}

	// visited is scratch state for a single traversal pass.
	visited bool
}

// Successors returns the targets of the outgoing edges, in edge order.
// Parallel edges yield repeated entries.
func (n *Node) Successors() []BlockIndex {
	out := make([]BlockIndex, len(n.Outgoing))
	for i, e := range n.Outgoing {
		out[i] = e.To
	}
	return out
}

// Predecessors returns the sources of the incoming edges, in edge order.
func (n *Node) Predecessors() []BlockIndex {
	out := make([]BlockIndex, len(n.Incoming))
	for i, e := range n.Incoming {
		out[i] = e.From
	}
	return out
}

// InFrontier reports whether m is in this node's dominance frontier.
func (n *Node) InFrontier(m BlockIndex) bool {
	_, ok := n.dominanceFrontier[m]
	return ok
}

// String returns the display name used in logs and exports.
func (n *Node) String() string {
	switch n.Type {
	case NodeEntryPoint:
		return "EntryPoint"
	case NodeRegularExit:
		return "RegularExit"
	case NodeExceptionalExit:
		return "ExceptionalExit"
	}
	name := "Block #" + n.BlockIndex.String()
	if n.Label != "" {
		name += ": " + n.Label
	}
	return name
}

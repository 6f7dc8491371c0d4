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

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// ControlFlowGraph is the control flow graph of one method body.
//
// Lifecycle:
//  1. NewControlFlowGraph creates the entry point and both exit sentinels.
//  2. The builder calls AddNode and Connect.
//  3. ComputeDominance seals the graph and fills in immediate dominators.
//  4. ComputeDominanceFrontier fills in the frontiers.
//  5. The graph is read-only from here on.
type ControlFlowGraph struct {
	nodes     []*Node
	edgeCount int

	// sealed is set once analysis starts. No nodes or edges may be added.
	sealed bool

	// busy guards against re-entrant or concurrent analysis of one graph.
	busy atomic.Bool

	dominanceDone bool
	frontierDone  bool
	iterations    int
}

// NewControlFlowGraph returns a graph holding only the entry point (index 0),
// the regular exit (index 1) and the exceptional exit (index 2).
func NewControlFlowGraph() *ControlFlowGraph {
	g := &ControlFlowGraph{
		nodes: make([]*Node, 0, 8),
	}
	g.appendNode(NodeEntryPoint, "")
	g.appendNode(NodeRegularExit, "")
	g.appendNode(NodeExceptionalExit, "")
	return g
}

func (g *ControlFlowGraph) appendNode(t NodeType, label string) *Node {
	n := &Node{
		BlockIndex:         BlockIndex(len(g.nodes)),
		Type:               t,
		Label:              label,
		ImmediateDominator: NoBlock,
	}
	g.nodes = append(g.nodes, n)
	return n
}

// AddNode appends a basic block and returns it. The new node's BlockIndex is
// the previous node count.
//
// Returns ErrGraphSealed once analysis has started, and ErrInvalidNodeType
// for the entry or sentinel types, which NewControlFlowGraph already created.
func (g *ControlFlowGraph) AddNode(t NodeType, label string) (*Node, error) {
	if g.sealed {
		return nil, ErrGraphSealed
	}
	if t == NodeEntryPoint || t.IsSentinel() {
		return nil, fmt.Errorf("%w: %s is reserved", ErrInvalidNodeType, t)
	}
	return g.appendNode(t, label), nil
}

// Connect adds a directed edge from -> to, appending it to the source's
// outgoing list and the target's incoming list. Parallel edges and self
// loops are allowed.
func (g *ControlFlowGraph) Connect(from, to BlockIndex, jt JumpType) (*Edge, error) {
	if g.sealed {
		return nil, ErrGraphSealed
	}
	if !g.valid(from) {
		return nil, fmt.Errorf("%w: source %s", ErrInvalidBlock, from)
	}
	if !g.valid(to) {
		return nil, fmt.Errorf("%w: target %s", ErrInvalidBlock, to)
	}
	e := &Edge{From: from, To: to, Type: jt}
	g.nodes[from].Outgoing = append(g.nodes[from].Outgoing, e)
	g.nodes[to].Incoming = append(g.nodes[to].Incoming, e)
	g.edgeCount++
	return e, nil
}

func (g *ControlFlowGraph) valid(i BlockIndex) bool {
	return i >= 0 && int(i) < len(g.nodes)
}

// Nodes returns all nodes ordered by BlockIndex. The slice is owned by the
// graph and must not be modified.
func (g *ControlFlowGraph) Nodes() []*Node {
	return g.nodes
}

// Node returns the node at index i, or nil if i is out of range.
func (g *ControlFlowGraph) Node(i BlockIndex) *Node {
	if !g.valid(i) {
		return nil
	}
	return g.nodes[i]
}

// Len returns the number of nodes, sentinels included.
func (g *ControlFlowGraph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges added with Connect.
func (g *ControlFlowGraph) EdgeCount() int {
	return g.edgeCount
}

// EntryPoint returns node 0.
func (g *ControlFlowGraph) EntryPoint() *Node {
	return g.nodes[EntryIndex]
}

// RegularExit returns node 1.
func (g *ControlFlowGraph) RegularExit() *Node {
	return g.nodes[RegularExitIndex]
}

// ExceptionalExit returns node 2.
func (g *ControlFlowGraph) ExceptionalExit() *Node {
	return g.nodes[ExceptionalExitIndex]
}

// Sealed reports whether analysis has started on this graph.
func (g *ControlFlowGraph) Sealed() bool {
	return g.sealed
}

// DominanceComputed reports whether ComputeDominance completed successfully.
func (g *ControlFlowGraph) DominanceComputed() bool {
	return g.dominanceDone
}

// FrontierComputed reports whether ComputeDominanceFrontier completed
// successfully.
func (g *ControlFlowGraph) FrontierComputed() bool {
	return g.frontierDone
}

// Iterations returns the number of fixpoint passes the last successful
// ComputeDominance needed. The final pass, which changes nothing, is counted.
func (g *ControlFlowGraph) Iterations() int {
	return g.iterations
}

// ResetVisited clears the traversal flag on every node.
func (g *ControlFlowGraph) ResetVisited() {
	for _, n := range g.nodes {
		n.visited = false
	}
}

// TraversePreOrder visits every node reachable from start over successor
// edges, in depth-first pre-order. Successors are explored in edge order.
func (g *ControlFlowGraph) TraversePreOrder(start BlockIndex, visit func(*Node)) {
	if !g.valid(start) {
		return
	}
	g.ResetVisited()
	_ = g.traversePreOrder(start, func(n *Node) error {
		visit(n)
		return nil
	})
}

// TraverseDominatorTreePostOrder visits the dominator subtree rooted at start
// so that every node is visited after all of its dominator tree children.
func (g *ControlFlowGraph) TraverseDominatorTreePostOrder(start BlockIndex, visit func(*Node)) {
	if !g.valid(start) {
		return
	}
	g.ResetVisited()
	g.traverseDominatorTreePostOrder(start, visit)
}

// traversePreOrder marks each node visited before calling visit, so visit
// can distinguish predecessors already seen in this pass. Callers reset the
// flags beforehand. The stack form yields the same order as the recursive
// walk.
func (g *ControlFlowGraph) traversePreOrder(start BlockIndex, visit func(*Node) error) error {
	stack := []BlockIndex{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := g.nodes[i]
		if n.visited {
			continue
		}
		n.visited = true
		if err := visit(n); err != nil {
			return err
		}

		for k := len(n.Outgoing) - 1; k >= 0; k-- {
			if to := n.Outgoing[k].To; !g.nodes[to].visited {
				stack = append(stack, to)
			}
		}
	}
	return nil
}

func (g *ControlFlowGraph) traverseDominatorTreePostOrder(start BlockIndex, visit func(*Node)) {
	type frame struct {
		block BlockIndex
		next  int
	}

	g.nodes[start].visited = true
	stack := []frame{{block: start}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := g.nodes[top.block]
		if top.next < len(n.DominatorTreeChildren) {
			child := n.DominatorTreeChildren[top.next]
			top.next++
			if !g.nodes[child].visited {
				g.nodes[child].visited = true
				stack = append(stack, frame{block: child})
			}
			continue
		}
		stack = stack[:len(stack)-1]
		visit(n)
	}
}

// Frontier returns the dominance frontier of block i in ascending order.
// It returns nil if the frontier has not been computed or i is invalid.
func (g *ControlFlowGraph) Frontier(i BlockIndex) []BlockIndex {
	if !g.frontierDone || !g.valid(i) {
		return nil
	}
	df := g.nodes[i].dominanceFrontier
	out := make([]BlockIndex, 0, len(df))
	for m := range df {
		out = append(out, m)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

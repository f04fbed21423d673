// SPDX-License-Identifier: MPL-2.0

// Package dag records the require edges discovered while building a module graph and
// answers ordering and cycle questions about them. Circular requires are legal in a
// bundle, so cycles are reported to the caller rather than rejected on insertion.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError reports a dependency cycle. Cycle is a closed path: its first and last
	// elements are the same node.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. An edge from A to B means
	// "A requires B". Nodes and edges keep insertion order so every query is deterministic.
	Graph struct {
		// adjacency maps each node to the nodes it requires.
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order.
		nodes   []string
		nodeSet map[string]bool
		edges   int
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from requires to. Both nodes are added if missing; repeating an
// existing edge is a no-op.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
	g.edges++
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Dependents returns the nodes that require name, in insertion order.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, n := range g.nodes {
		if slices.Contains(g.adjacency[n], name) {
			out = append(out, n)
		}
	}
	return out
}

// FindCycle returns the first cycle reachable in insertion order, or nil. The walk is an
// iterative depth-first search so deep require chains cannot exhaust the stack.
func (g *Graph) FindCycle() *CycleError {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))

	type frame struct {
		node string
		next int
	}

	for _, root := range g.nodes {
		if state[root] != unvisited {
			continue
		}
		stack := []frame{{node: root}}
		state[root] = onStack

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := g.adjacency[top.node]
			if top.next == len(succ) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			child := succ[top.next]
			top.next++

			switch state[child] {
			case onStack:
				var path []string
				for i := range stack {
					if stack[i].node == child {
						for _, f := range stack[i:] {
							path = append(path, f.node)
						}
						break
					}
				}
				return &CycleError{Cycle: append(path, child)}
			case unvisited:
				state[child] = onStack
				stack = append(stack, frame{node: child})
			}
		}
	}
	return nil
}

// TopologicalSort returns the nodes ordered so that every node comes after everything it
// requires (Kahn's algorithm over reversed edges). Nodes that become ready together keep
// insertion order. A graph with a cycle returns the CycleError found by FindCycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	// Out-degree counts the unmet requirements of each node.
	pending := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		pending[node] = len(g.adjacency[node])
	}

	var ready []string
	for _, node := range g.nodes {
		if pending[node] == 0 {
			ready = append(ready, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		result = append(result, node)

		for _, dependent := range g.Dependents(node) {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		if cerr := g.FindCycle(); cerr != nil {
			return nil, cerr
		}
		return nil, &CycleError{}
	}
	return result, nil
}

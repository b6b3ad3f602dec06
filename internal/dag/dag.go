package dag

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node with the given ID. Adding an existing ID is a no-op.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return len(g.nodes)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Dependencies returns the sorted IDs the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return slices.Sorted(maps.Keys(n.deps)), nil
}

// Dependents returns the sorted IDs that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return slices.Sorted(maps.Keys(n.dependents)), nil
}

// DetectCycles checks the graph for cycles. The error names the nodes of the
// first cycle found, in dependency order. Traversal is in ID order, so the
// reported cycle is stable across runs.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	// permanent: fully visited and not part of a cycle.
	// stack: the current DFS path, in visiting order.
	permanent := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if onStack[n.id] {
			start := slices.Index(stack, n.id)
			path := append(slices.Clone(stack[start:]), n.id)
			return fmt.Errorf("cycle detected involving node '%s': %s", n.id, strings.Join(path, " -> "))
		}

		onStack[n.id] = true
		stack = append(stack, n.id)

		for _, id := range slices.Sorted(maps.Keys(n.dependents)) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range slices.Sorted(maps.Keys(g.nodes)) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder returns every node ID such that each node comes after all
// of its dependencies. Among nodes that are ready at the same time the
// lexically smallest comes first.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	remaining := make(map[string]int, len(g.nodes))
	var ready []string
	for id, n := range g.nodes {
		remaining[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for depID := range g.nodes[id].dependents {
			remaining[depID]--
			if remaining[depID] == 0 {
				i, _ := slices.BinarySearch(ready, depID)
				ready = slices.Insert(ready, i, depID)
			}
		}
	}
	return order, nil
}

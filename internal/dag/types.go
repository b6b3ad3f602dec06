package dag

import "sync"

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
}

// node is un-exported so callers work with string IDs only.
type node struct {
	id string
	// deps holds the nodes this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the nodes that depend on this node (successors).
	dependents map[string]*node
}

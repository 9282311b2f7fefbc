package dag

import "strings"

// Graph is a set of nodes and the directed edges between them. A graph is
// built and read by one goroutine.
type Graph struct {
	nodes map[string]*node
	// order records insertion so that traversals are deterministic.
	order []string
}

// node is one vertex. deps are the nodes it reads.
type node struct {
	id   string
	deps map[string]*node
}

// CycleError reports a dependency cycle. Path starts and ends with the same
// node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// Package graph turns a project dependency map into a directed graph and
// renders it.
package graph

import (
	"strconv"
	"strings"
)

// Adjacency is the read side of a dependency map: identities in traversal
// order and the identities each one imports.
type Adjacency interface {
	Keys() []string
	Get(name string) ([]string, bool)
}

// Direction is the layout direction handed to renderers.
type Direction string

const (
	LeftToRight Direction = "LR"
	TopToBottom Direction = "TB"
)

// Node is a project in the graph.
type Node struct {
	ID   string // Sanitized identifier for dot and mermaid
	Name string // Project file name
	// Traversed is false for leaf projects that only appear as an import.
	Traversed bool
}

// Edge is a direct import from one project to another, by node name.
type Edge struct {
	From string
	To   string
}

// Graph is the directed dependency graph of one analysis.
type Graph struct {
	Nodes     []*Node
	Edges     []*Edge
	Direction Direction

	index map[string]*Node
	ids   map[string]bool
}

// ProgressFunc is called once per dependency-map entry during assembly.
type ProgressFunc func(done, total int, name string)

// Build creates one node per key, one node per imported name that is not a
// key, and one edge per (key, import) pair.
func Build(adj Adjacency) *Graph {
	return BuildWithProgress(adj, nil)
}

// BuildWithProgress is Build with a per-entry progress callback.
func BuildWithProgress(adj Adjacency, progress ProgressFunc) *Graph {
	g := &Graph{
		Direction: LeftToRight,
		index:     make(map[string]*Node),
		ids:       make(map[string]bool),
	}

	keys := adj.Keys()
	for _, key := range keys {
		g.addNode(key).Traversed = true
	}

	for i, key := range keys {
		imports, _ := adj.Get(key)
		for _, imp := range imports {
			g.addNode(imp)
			g.Edges = append(g.Edges, &Edge{From: key, To: imp})
		}
		if progress != nil {
			progress(i+1, len(keys), key)
		}
	}

	return g
}

func (g *Graph) addNode(name string) *Node {
	if n, ok := g.index[name]; ok {
		return n
	}
	n := &Node{ID: g.uniqueID(sanitizeID(name)), Name: name}
	g.index[name] = n
	g.Nodes = append(g.Nodes, n)
	return n
}

// Node returns the node called name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.index[name]
	return n, ok
}

// Outgoing returns the edges leaving name, in insertion order.
func (g *Graph) Outgoing(name string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering name, in insertion order.
func (g *Graph) Incoming(name string) []*Edge {
	var in []*Edge
	for _, e := range g.Edges {
		if e.To == name {
			in = append(in, e)
		}
	}
	return in
}

// sanitizeID creates an identifier usable in dot and mermaid from a file name
func sanitizeID(name string) string {
	id := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)

	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "n_" + id
	}
	return id
}

// uniqueID disambiguates names such as "a.props" and "a_props" that sanitize
// to the same identifier.
func (g *Graph) uniqueID(id string) string {
	candidate := id
	for i := 2; g.ids[candidate]; i++ {
		candidate = id + "_" + strconv.Itoa(i)
	}
	g.ids[candidate] = true
	return candidate
}

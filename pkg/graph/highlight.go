package graph

// NodeRole classifies a node for styling relative to a selection.
type NodeRole int

const (
	RoleIsolated   NodeRole = iota // no edges at all
	RoleConnected                  // has edges, unrelated to the selection
	RoleSelected                   // the selected node
	RoleDependency                 // imported by the selected node
	RoleDependent                  // imports the selected node
)

// EdgeRole classifies an edge for styling relative to a selection.
type EdgeRole int

const (
	EdgeDefault EdgeRole = iota
	EdgeOutgoing
	EdgeIncoming
)

// Color returns the fill colour for the role, using Graphviz/X11 names.
func (r NodeRole) Color() string {
	switch r {
	case RoleConnected:
		return "lightgreen"
	case RoleSelected:
		return "yellow"
	case RoleDependency:
		return "palevioletred"
	case RoleDependent:
		return "lightblue"
	default:
		return "gray"
	}
}

// Color returns the stroke colour for the role.
func (r EdgeRole) Color() string {
	switch r {
	case EdgeOutgoing:
		return "red"
	case EdgeIncoming:
		return "blue"
	default:
		return "black"
	}
}

// Styling is the per-node and per-edge role assignment for one selection.
// Edges is indexed like Graph.Edges.
type Styling struct {
	Selected string
	Nodes    map[string]NodeRole
	Edges    []EdgeRole
}

// Highlight assigns styling roles for the given selection. An empty or
// unknown selection yields the resting state: connected nodes green,
// isolated nodes gray, all edges black. A node that both imports and is
// imported by the selection is styled as a dependent. A self-import keeps
// the node selected and colours the edge as outgoing.
func Highlight(g *Graph, selected string) Styling {
	s := Styling{
		Nodes: make(map[string]NodeRole, len(g.Nodes)),
		Edges: make([]EdgeRole, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		s.Nodes[n.Name] = RoleIsolated
	}
	for _, e := range g.Edges {
		s.Nodes[e.From] = RoleConnected
		s.Nodes[e.To] = RoleConnected
	}

	if _, ok := g.index[selected]; !ok {
		return s
	}
	s.Selected = selected

	for i, e := range g.Edges {
		if e.From == selected {
			s.Edges[i] = EdgeOutgoing
			s.Nodes[e.To] = RoleDependency
		}
	}
	for i, e := range g.Edges {
		if e.To == selected && e.From != selected {
			s.Edges[i] = EdgeIncoming
			s.Nodes[e.From] = RoleDependent
		}
	}
	s.Nodes[selected] = RoleSelected

	return s
}

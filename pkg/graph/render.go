package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an output format Render does not support.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is a rendering target.
type Format string

const (
	FormatTree    Format = "tree"
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

// Formats lists the supported formats in help-text order.
var Formats = []Format{FormatTree, FormatDOT, FormatMermaid, FormatJSON, FormatYAML}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownFormat, s, SupportedFormats())
}

// SupportedFormats returns the format names joined for help text.
func SupportedFormats() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// RenderOptions tunes rendering.
type RenderOptions struct {
	// Selected highlights a node and its direct neighbours.
	Selected string
	// Color enables terminal colours in the tree format.
	Color bool
}

// Render writes g to w in the requested format.
func Render(w io.Writer, g *Graph, format Format, opts RenderOptions) error {
	var out string
	switch format {
	case FormatTree:
		out = RenderTree(g, opts)
	case FormatDOT:
		out = RenderDOT(g, opts)
	case FormatMermaid:
		out = RenderMermaid(g, opts)
	case FormatJSON:
		data, err := json.MarshalIndent(newDocument(g, opts), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		out = string(data) + "\n"
	case FormatYAML:
		data, err := yaml.Marshal(newDocument(g, opts))
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		out = string(data)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("writing %s output: %w", format, err)
	}
	return nil
}

type document struct {
	Direction Direction      `json:"direction" yaml:"direction"`
	Nodes     []documentNode `json:"nodes" yaml:"nodes"`
	Edges     []documentEdge `json:"edges" yaml:"edges"`
	Selected  string         `json:"selected,omitempty" yaml:"selected,omitempty"`
}

type documentNode struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Traversed bool   `json:"traversed" yaml:"traversed"`
	Color     string `json:"color,omitempty" yaml:"color,omitempty"`
}

type documentEdge struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

func newDocument(g *Graph, opts RenderOptions) document {
	doc := document{
		Direction: g.Direction,
		Nodes:     make([]documentNode, 0, len(g.Nodes)),
		Edges:     make([]documentEdge, 0, len(g.Edges)),
	}

	var style *Styling
	if opts.Selected != "" {
		s := Highlight(g, opts.Selected)
		if s.Selected != "" {
			style = &s
			doc.Selected = s.Selected
		}
	}

	for _, n := range g.Nodes {
		dn := documentNode{ID: n.ID, Name: n.Name, Traversed: n.Traversed}
		if style != nil {
			dn.Color = style.Nodes[n.Name].Color()
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for i, e := range g.Edges {
		de := documentEdge{From: e.From, To: e.To}
		if style != nil {
			de.Color = style.Edges[i].Color()
		}
		doc.Edges = append(doc.Edges, de)
	}
	return doc
}

// RenderDOT renders g as a Graphviz digraph laid out in g.Direction.
func RenderDOT(g *Graph, opts RenderOptions) string {
	style := Highlight(g, opts.Selected)

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	fmt.Fprintf(&b, "  rankdir=%s;\n", g.Direction)
	b.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %s [label=%s, fillcolor=%q];\n",
			n.ID, dotQuote(n.Name), style.Nodes[n.Name].Color())
	}
	for i, e := range g.Edges {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		fmt.Fprintf(&b, "  %s -> %s [color=%q];\n", from.ID, to.ID, style.Edges[i].Color())
	}

	b.WriteString("}\n")
	return b.String()
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// RenderMermaid renders g as a mermaid flowchart. Highlight roles become
// classDef classes and edge colours become linkStyle entries.
func RenderMermaid(g *Graph, opts RenderOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "flowchart %s\n", g.Direction)

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", n.ID, strings.ReplaceAll(n.Name, `"`, "#quot;"))
	}
	for _, e := range g.Edges {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		fmt.Fprintf(&b, "  %s --> %s\n", from.ID, to.ID)
	}

	style := Highlight(g, opts.Selected)
	if style.Selected == "" {
		return b.String()
	}

	roles := []struct {
		role  NodeRole
		class string
	}{
		{RoleSelected, "selected"},
		{RoleDependency, "dependency"},
		{RoleDependent, "dependent"},
	}
	for _, r := range roles {
		var ids []string
		for _, n := range g.Nodes {
			if style.Nodes[n.Name] == r.role {
				ids = append(ids, n.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  classDef %s fill:%s\n", r.class, r.role.Color())
		fmt.Fprintf(&b, "  class %s %s\n", strings.Join(ids, ","), r.class)
	}
	for i, role := range style.Edges {
		if role != EdgeDefault {
			fmt.Fprintf(&b, "  linkStyle %d stroke:%s\n", i, role.Color())
		}
	}

	return b.String()
}

var roleStyles = map[NodeRole]lipgloss.Style{
	RoleIsolated:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	RoleConnected:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	RoleSelected:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	RoleDependency: lipgloss.NewStyle().Foreground(lipgloss.Color("204")),
	RoleDependent:  lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
}

var mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

// RenderTree renders g as an indented import tree starting at each root.
// A project already expanded earlier is printed once more with "(…)" and not
// expanded again; an import that closes a cycle is marked with "↺".
func RenderTree(g *Graph, opts RenderOptions) string {
	style := Highlight(g, opts.Selected)
	paint := func(name string) string {
		if !opts.Color {
			return name
		}
		return roleStyles[style.Nodes[name]].Render(name)
	}
	mute := func(s string) string {
		if !opts.Color {
			return s
		}
		return mutedStyle.Render(s)
	}

	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	roots := Analyze(g).Roots
	expanded := make(map[string]bool, len(g.Nodes))
	onPath := make(map[string]bool)

	var b strings.Builder
	var walk func(name, prefix string)
	walk = func(name, prefix string) {
		expanded[name] = true
		onPath[name] = true
		children := adj[name]
		for i, child := range children {
			branch, indent := "├── ", "│   "
			if i == len(children)-1 {
				branch, indent = "└── ", "    "
			}
			b.WriteString(mute(prefix + branch))
			switch {
			case onPath[child]:
				b.WriteString(paint(child) + mute(" ↺") + "\n")
			case expanded[child] && len(adj[child]) > 0:
				b.WriteString(paint(child) + mute(" (…)") + "\n")
			default:
				b.WriteString(paint(child) + "\n")
				walk(child, prefix+indent)
			}
		}
		onPath[name] = false
	}

	start := func(name string) {
		b.WriteString(paint(name) + "\n")
		walk(name, "")
	}
	for _, root := range roots {
		start(root)
	}
	// Nodes reachable only through a cycle have no root above them.
	for _, n := range g.Nodes {
		if !expanded[n.Name] {
			start(n.Name)
		}
	}

	return b.String()
}

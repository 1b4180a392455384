// Package explorer is an interactive terminal browser for a dependency
// graph. Moving the cursor selects a project and highlights what it imports
// and what imports it.
package explorer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/simonhull/heron/pkg/graph"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	roleStyles = map[graph.NodeRole]lipgloss.Style{
		graph.RoleIsolated:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		graph.RoleConnected:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		graph.RoleSelected:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		graph.RoleDependency: lipgloss.NewStyle().Foreground(lipgloss.Color("204")),
		graph.RoleDependent:  lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	}

	roleLabels = map[graph.NodeRole]string{
		graph.RoleDependency: "imported",
		graph.RoleDependent:  "imports it",
	}
)

const (
	headerHeight = 2
	footerHeight = 3
)

// model is the BubbleTea model for browsing a graph
type model struct {
	g        *graph.Graph
	cursor   int
	viewport viewport.Model
	ready    bool
}

func newModel(g *graph.Graph, selected string) *model {
	m := &model{g: g}
	for i, n := range g.Nodes {
		if n.Name == selected {
			m.cursor = i
		}
	}
	return m
}

// Run opens the explorer in the alternate screen and returns the project
// selected when the user quits.
func Run(g *graph.Graph, selected string) (string, error) {
	if len(g.Nodes) == 0 {
		return "", nil
	}

	m := newModel(g, selected)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("running explorer: %w", err)
	}
	return final.(*model).selected(), nil
}

func (m *model) selected() string {
	if len(m.g.Nodes) == 0 {
		return ""
	}
	return m.g.Nodes[m.cursor].Name
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.refresh()
			return m, nil
		case "down", "j":
			if m.cursor < len(m.g.Nodes)-1 {
				m.cursor++
			}
			m.refresh()
			return m, nil
		case "home", "g":
			m.cursor = 0
			m.refresh()
			return m, nil
		case "end", "G":
			m.cursor = len(m.g.Nodes) - 1
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		height := max(1, msg.Height-headerHeight-footerHeight)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh re-renders the node list for the current selection and scrolls
// the cursor into view.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.content())

	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m *model) content() string {
	style := graph.Highlight(m.g, m.selected())

	var b strings.Builder
	for i, n := range m.g.Nodes {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		role := style.Nodes[n.Name]
		b.WriteString(cursor + roleStyles[role].Render(n.Name))
		if label, ok := roleLabels[role]; ok {
			b.WriteString(mutedStyle.Render("  " + label))
		}
		if !n.Traversed {
			b.WriteString(mutedStyle.Render("  (leaf)"))
		}
		if i < len(m.g.Nodes)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Projects (%d)", len(m.g.Nodes))) + "\n")
	b.WriteString(borderStyle.Render(strings.Repeat("─", max(0, m.viewport.Width))) + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(borderStyle.Render(strings.Repeat("─", max(0, m.viewport.Width))) + "\n")

	name := m.selected()
	b.WriteString(fmt.Sprintf("%s  imports %d  imported by %d\n",
		roleStyles[graph.RoleSelected].Render(name),
		len(m.g.Outgoing(name)), len(m.g.Incoming(name))))
	b.WriteString(mutedStyle.Render("[↑/↓] Select    [q] Quit"))

	return b.String()
}

// Package progress shows a spinner and progress bar while a dependency
// graph is analyzed and assembled.
package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Report is called by the work function after each finished item.
type Report func(done, total int, name string)

// Run executes work on a separate goroutine while the display runs on the
// calling one. It returns the error from work, or the display's own error
// if work succeeded.
func Run(out io.Writer, title string, work func(report Report) error) error {
	m := newModel(title)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithInput(nil))

	errc := make(chan error, 1)
	go func() {
		err := work(func(done, total int, name string) {
			p.Send(stepMsg{done: done, total: total, name: name})
		})
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	_, runErr := p.Run()
	if err := <-errc; err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("progress display: %w", runErr)
	}
	return nil
}

type stepMsg struct {
	done, total int
	name        string
}

type doneMsg struct {
	err error
}

// model is the bubbletea model for the display
type model struct {
	spinner spinner.Model
	bar     progress.Model
	title   string
	name    string
	done    int
	total   int
	// finished is set once work returns; err is its result.
	finished bool
	err      error
}

var (
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
)

func newModel(title string) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		title:   title,
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		m.done, m.total, m.name = msg.done, msg.total, msg.name
		return m, nil
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		// The work cannot be interrupted; Ctrl+C only stops drawing.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if !m.finished {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m *model) View() string {
	if m.finished {
		if m.err != nil {
			return fmt.Sprintf("❌ %s\n", m.title)
		}
		return fmt.Sprintf("✅ %s\n", m.title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s...", m.spinner.View(), m.title)
	if m.total > 0 {
		fmt.Fprintf(&b, "\n%s %s %s",
			m.bar.ViewAs(m.percent()),
			countStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total)),
			nameStyle.Render(m.name))
	}
	return b.String()
}

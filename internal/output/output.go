// Package output provides styled terminal messages for the heron CLI.
//
// Messages go to stderr so that a graph rendered to stdout can be piped
// straight into dot or a mermaid tool.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu          sync.Mutex
	writer      io.Writer = os.Stderr
	verboseMode bool
)

// SetVerbose enables or disables verbose output for debugging.
// This should be called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetWriter redirects messages and returns the previous writer.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := writer
	writer = w
	return prev
}

func emit(style lipgloss.Style, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(writer, style.Render(msg))
}

// Success prints a success message with 🔥 emoji and green color.
//
// Example:
//
//	output.Success("Analyzed App.csproj: 12 projects, 18 imports")
func Success(msg string) {
	emit(successStyle, "🔥 "+msg)
}

// Error prints an error message with ❌ emoji and red color.
func Error(msg string) {
	emit(errorStyle, "❌ "+msg)
}

// Warn prints a warning with ⚠️ emoji and yellow color.
func Warn(msg string) {
	emit(warnStyle, "⚠️  "+msg)
}

// Info prints an informational message with ℹ️ emoji and cyan color.
func Info(msg string) {
	emit(infoStyle, "ℹ️  "+msg)
}

// Step prints an indented step message in gray.
//
// Example:
//
//	output.Step("heron analyze src/App/App.csproj --format dot")
func Step(msg string) {
	emit(stepStyle, "   "+msg)
}

// Verbose prints a debug message with 🔍 emoji only if verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	enabled := verboseMode
	mu.Unlock()
	if enabled {
		emit(stepStyle, "🔍 "+msg)
	}
}

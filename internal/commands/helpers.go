package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/simonhull/heron/internal/output"
	"github.com/simonhull/heron/internal/progress"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/deps"
	"github.com/simonhull/heron/pkg/graph"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/msbuild"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// session is the per-invocation state shared by analyze and scan.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	logOut  *heldWriter
	verbose bool
}

// newSession loads the config named by --config and sets up logging.
func newSession(cmd *cobra.Command) (*session, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel()
	if verbose {
		level = logger.LevelDebug
	}
	out := &heldWriter{w: cmd.ErrOrStderr()}
	log := logger.NewLogger(level, out)
	logger.SetDefault(log)

	output.Verbose(fmt.Sprintf("Loaded config from %s", configPath))
	return &session{cfg: cfg, log: log, logOut: out, verbose: verbose}, nil
}

// resolveFlags are the resolver and rendering flags shared by analyze and scan.
type resolveFlags struct {
	recursive     bool
	format        string
	out           string
	selected      string
	properties    []string
	ignoreMissing bool
	sdkPaths      []string
	noProgress    bool
}

func (f *resolveFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.recursive, "recursive", true, "Follow imports of imported files (default from config)")
	flags.StringVarP(&f.format, "format", "f", "", "Output format: "+graph.SupportedFormats()+" (default from config)")
	flags.StringVarP(&f.out, "out", "o", "", "Write the graph to a file instead of stdout")
	flags.StringVar(&f.selected, "select", "", "Highlight a project and its direct imports and importers")
	flags.StringArrayVarP(&f.properties, "property", "p", nil, "Global MSBuild property as name=value (repeatable)")
	flags.BoolVar(&f.ignoreMissing, "ignore-missing", false, "Skip imports of files that do not exist")
	flags.StringArrayVar(&f.sdkPaths, "sdk-path", nil, "Directory containing MSBuild SDKs (repeatable)")
	flags.BoolVar(&f.noProgress, "no-progress", false, "Disable the progress display")
}

// apply layers the flags the user actually set over the loaded config.
func (f *resolveFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("recursive") {
		cfg.Recursive = f.recursive
	}
	if flags.Changed("format") {
		cfg.Format = f.format
	}
	if flags.Changed("out") {
		cfg.Output = f.out
	}
	if f.ignoreMissing {
		cfg.Resolver.IgnoreMissingImports = true
	}
	cfg.Resolver.SdkPaths = append(cfg.Resolver.SdkPaths, f.sdkPaths...)

	props, err := parseProperties(f.properties)
	if err != nil {
		return err
	}
	for k, v := range props {
		cfg.Resolver.Properties[k] = v
	}

	return cfg.Validate()
}

// parseProperties parses name=value pairs. Later pairs win.
func parseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q: expected name=value", pair)
		}
		props[name] = value
	}
	return props, nil
}

// newTraverser wires an evaluator built from cfg into a traverser.
func (s *session) newTraverser() (*deps.Traverser, error) {
	ev, err := msbuild.NewEvaluator(s.cfg.ResolverOptions())
	if err != nil {
		return nil, fmt.Errorf("creating evaluator: %w", err)
	}
	return deps.NewTraverser(ev.WithLogger(s.log)).WithLogger(s.log), nil
}

// run executes work behind the progress display when stderr is a terminal.
// Log lines are held back until the display has finished.
func (s *session) run(cmd *cobra.Command, title string, noProgress bool, work func(report progress.Report) error) error {
	if noProgress || s.verbose || !isTerminal(cmd.ErrOrStderr()) {
		return work(func(int, int, string) {})
	}

	s.logOut.hold()
	defer s.logOut.release()
	return progress.Run(cmd.ErrOrStderr(), title, work)
}

// writeGraph renders g to cfg.Output, or to stdout when no output is set.
func writeGraph(cmd *cobra.Command, g *graph.Graph, cfg *config.Config, selected string) error {
	format, err := graph.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	if selected != "" {
		if _, ok := g.Node(selected); !ok {
			output.Warn(fmt.Sprintf("Project %q is not in the graph; nothing highlighted", selected))
		}
	}

	if cfg.Output == "" || cfg.Output == "-" {
		w := cmd.OutOrStdout()
		opts := graph.RenderOptions{Selected: selected, Color: format == graph.FormatTree && isTerminal(w)}
		return graph.Render(w, g, format, opts)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := graph.Render(f, g, format, graph.RenderOptions{Selected: selected}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	output.Verbose(fmt.Sprintf("Wrote %s graph to %s", format, cfg.Output))
	return nil
}

// summarize reports the size and shape of g.
func summarize(subject string, g *graph.Graph) {
	a := graph.Analyze(g)
	output.Success(fmt.Sprintf("Analyzed %s: %d projects, %d imports", subject, a.Stats.Projects, a.Stats.Imports))

	for _, cycle := range a.Cycles {
		output.Warn("Import cycle: " + strings.Join(append(cycle, cycle[0]), " → "))
	}
	if a.Stats.MostImportedN > 1 {
		output.Verbose(fmt.Sprintf("Most imported: %s (%d importers)", a.Stats.MostImported, a.Stats.MostImportedN))
	}
	output.Verbose(fmt.Sprintf("Import depth: %d", a.Stats.MaxDepth))
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// heldWriter buffers writes while held and passes them through otherwise.
type heldWriter struct {
	mu      sync.Mutex
	w       io.Writer
	holding bool
	buf     bytes.Buffer
}

func (h *heldWriter) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.holding {
		return h.buf.Write(p)
	}
	return h.w.Write(p)
}

func (h *heldWriter) hold() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.holding = true
}

func (h *heldWriter) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.holding = false
	if h.buf.Len() > 0 {
		_, _ = h.w.Write(h.buf.Bytes())
		h.buf.Reset()
	}
}

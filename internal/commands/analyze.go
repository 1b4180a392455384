package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/simonhull/heron/internal/explorer"
	"github.com/simonhull/heron/internal/output"
	"github.com/simonhull/heron/internal/progress"
	"github.com/simonhull/heron/pkg/graph"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/spf13/cobra"
)

// AnalyzeCmd creates and returns the 'analyze' command
func AnalyzeCmd() *cobra.Command {
	var (
		flags       resolveFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <project-file>",
		Short: "Analyze the import graph of an MSBuild project",
		Long: `Evaluates an MSBuild project file, follows every file it imports, and
prints the project-to-project import graph.

Example:
  heron analyze src/App/App.csproj
  heron analyze App.csproj --format dot -o deps.dot
  heron analyze App.csproj -p Configuration=Release --select Common.targets
  heron analyze App.csproj --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], &flags, interactive)
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse the graph in an interactive viewer")

	return cmd
}

func runAnalyze(cmd *cobra.Command, root string, flags *resolveFlags, interactive bool) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, s.cfg); err != nil {
		return err
	}

	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("project file not found: %s", root)
		}
		return fmt.Errorf("checking project file: %w", err)
	}
	if interactive && !(isTerminal(os.Stdin) && isTerminal(os.Stdout)) {
		return errors.New("interactive mode needs a terminal")
	}

	tr, err := s.newTraverser()
	if err != nil {
		return err
	}

	output.Verbose(fmt.Sprintf("Analyzing %s (recursive: %t)", root, s.cfg.Recursive))

	var g *graph.Graph
	title := "Analyzing " + filepath.Base(root)
	err = s.run(cmd, title, flags.noProgress || interactive, func(report progress.Report) error {
		m, err := tr.Analyze(root, s.cfg.Recursive)
		if err != nil {
			return err
		}
		g = graph.BuildWithProgress(m, graph.ProgressFunc(report))
		return nil
	})
	if err != nil {
		s.log.Debug("Analysis failed", logger.F("root", root), logger.F("error", err))
		return fmt.Errorf("analysis failed: %w", err)
	}

	summarize(filepath.Base(root), g)

	selected := flags.selected
	if interactive {
		selected, err = explorer.Run(g, selected)
		if err != nil {
			return err
		}
		if s.cfg.Output == "" {
			return nil
		}
	}

	return writeGraph(cmd, g, s.cfg, selected)
}

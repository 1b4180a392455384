package commands

import (
	"fmt"
	"path/filepath"

	"github.com/simonhull/heron/internal/filesystem"
	"github.com/simonhull/heron/internal/output"
	"github.com/simonhull/heron/internal/progress"
	"github.com/simonhull/heron/pkg/graph"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/spf13/cobra"
)

// ScanCmd creates and returns the 'scan' command
func ScanCmd() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Analyze every MSBuild project under a directory",
		Long: `Finds project files under a directory (by the extensions listed in
scan.extensions) and analyzes them together as one graph. A file imported
by several projects appears once.

Example:
  heron scan
  heron scan ./src --format mermaid`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runScan(cmd, dir, &flags)
		},
	}

	flags.bind(cmd)

	return cmd
}

func runScan(cmd *cobra.Command, dir string, flags *resolveFlags) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, s.cfg); err != nil {
		return err
	}

	projects, err := filesystem.FindProjects(dir, s.cfg.Scan.Extensions, filesystem.WalkOptions{
		IgnoreDirs:     s.cfg.Scan.IgnoreDirs,
		IgnorePatterns: s.cfg.Scan.IgnorePatterns,
		IncludeHidden:  s.cfg.Scan.IncludeHidden,
	})
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return fmt.Errorf("no project files found in %s", dir)
	}
	for _, p := range projects {
		output.Verbose("Found " + p)
	}

	tr, err := s.newTraverser()
	if err != nil {
		return err
	}

	var g *graph.Graph
	title := fmt.Sprintf("Analyzing %d projects", len(projects))
	err = s.run(cmd, title, flags.noProgress, func(report progress.Report) error {
		tr.OnRoot = func(index, total int, path string) {
			report(index, total, filepath.Base(path))
		}
		m, err := tr.AnalyzeAll(cmd.Context(), projects, s.cfg.Recursive)
		if err != nil {
			return err
		}
		g = graph.BuildWithProgress(m, graph.ProgressFunc(report))
		return nil
	})
	if err != nil {
		s.log.Debug("Scan failed", logger.F("dir", dir), logger.F("error", err))
		return fmt.Errorf("scan failed: %w", err)
	}

	summarize(fmt.Sprintf("%d projects in %s", len(projects), dir), g)

	return writeGraph(cmd, g, s.cfg, flags.selected)
}

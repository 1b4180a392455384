package commands

import (
	"fmt"

	"github.com/simonhull/heron"
	"github.com/simonhull/heron/internal/output"
	"github.com/simonhull/heron/pkg/config"
	"github.com/spf13/cobra"
)

// RootCmd creates and returns the root command for the Heron CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "heron",
		Short: "MSBuild project import graph analyzer",
		Long: `Heron evaluates MSBuild project files, follows the chain of files they
import, and reports the result as a dependency graph.

Graphs print as a tree, Graphviz dot, mermaid, JSON or YAML, or can be
browsed interactively.`,
		Version:       heron.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringP("config", "c", config.DefaultFile, "Path to configuration file")

	return cmd
}

// VersionCmd creates and returns the 'version' command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Heron v%s\n", heron.Version)
		},
	}
}

// Execute builds the full command tree and runs it.
func Execute() error {
	root := RootCmd()
	root.AddCommand(AnalyzeCmd())
	root.AddCommand(ScanCmd())
	root.AddCommand(InitCmd())
	root.AddCommand(VersionCmd())
	return root.Execute()
}

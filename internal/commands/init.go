package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/simonhull/heron/internal/input"
	"github.com/simonhull/heron/internal/output"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/graph"
	"github.com/spf13/cobra"
)

// InitCmd creates and returns the 'init' command
func InitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default heron.yaml",
		Long: `Writes a configuration file with the default settings. On a terminal
you are asked for the default output format and an SDK directory.

Example:
  heron init
  heron init --config build/heron.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			var p *input.Prompter
			if isTerminal(os.Stdin) {
				p = input.Terminal()
			}
			return runInit(path, force, p)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// runInit writes the config. A nil prompter means no terminal is attached.
func runInit(path string, force bool, p *input.Prompter) error {
	if _, err := os.Stat(path); err == nil && !force {
		if p == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if !p.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false) {
			output.Info("Left " + path + " unchanged")
			return nil
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	cfg := config.DefaultConfig()
	if p != nil {
		format, err := graph.ParseFormat(p.Prompt("Default output format", cfg.Format))
		if err != nil {
			return err
		}
		cfg.Format = string(format)

		if sdk := p.Prompt("MSBuild SDK directory (optional)", ""); sdk != "" {
			cfg.Resolver.SdkPaths = []string{sdk}
		}
	}

	if err := config.SaveConfig(path, cfg); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	output.Success("Created " + path)
	output.Info("Next steps:")
	output.Step("heron analyze path/to/App.csproj")
	output.Step("heron scan --format dot -o deps.dot")
	return nil
}

package main

import (
	"os"

	"github.com/simonhull/heron/internal/commands"
	"github.com/simonhull/heron/internal/output"
)

func main() {
	if err := commands.Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}

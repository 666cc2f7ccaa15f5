package main

import (
	"os"

	"github.com/protoforge/protoforge/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

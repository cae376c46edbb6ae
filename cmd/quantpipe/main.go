package main

import (
	"os"

	"github.com/minjae-dev/quantpipe/cmd/quantpipe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

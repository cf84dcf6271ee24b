package main

import (
	"os"

	"github.com/rl1809/supplydesk/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

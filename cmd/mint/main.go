package main

import (
	"os"

	"github.com/mintutil/mint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

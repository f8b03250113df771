// Package main provides the cirspecte command-line tool.
package main

import (
	"os"

	"github.com/NiHoel/cirspecte-site/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

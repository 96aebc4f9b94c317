// Package main provides the CLI entry point for metalens.
package main

import (
	"os"

	"github.com/leapstack-labs/metalens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

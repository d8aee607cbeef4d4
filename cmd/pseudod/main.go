// Package main provides the CLI for the pseudod transpiler.
package main

import (
	"os"

	"github.com/leapstack-labs/pseudod/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

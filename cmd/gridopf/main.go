// Package main is the entry point for the gridopf CLI.
package main

import (
	"os"

	"github.com/katalvlaran/gridopf/cmd/gridopf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

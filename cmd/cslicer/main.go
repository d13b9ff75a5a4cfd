// Package main implements the cslicer CLI. It exposes slicing,
// inlining, and the underlying graph analyses over C source files.
package main

import (
	"os"

	"github.com/mekkanik/cslicer/cmd/cslicer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

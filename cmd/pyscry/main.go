// Package main provides the entry point for the pyscry CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Sumatoshi-tech/pyscry/cmd/pyscry/commands"
	"github.com/Sumatoshi-tech/pyscry/pkg/version"
)

func main() {
	_ = godotenv.Load()

	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

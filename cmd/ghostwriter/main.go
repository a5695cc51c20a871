// Package main is the entry point for the ghostwriter CLI.
package main

import (
	"fmt"
	"os"

	"github.com/runoshun/ghostwriter/internal/app"
	"github.com/runoshun/ghostwriter/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

// newRootCommand builds the command tree; tests swap it to capture output.
var newRootCommand = cli.NewRootCommand

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	// Create dependency injection container
	container, err := app.New(cwd)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	// Create and execute root command
	rootCmd := newRootCommand(container, version)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

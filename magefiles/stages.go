//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runCLI executes the built litmap binary with the given arguments.
func runCLI(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		return fmt.Errorf("%s not found; run 'mage build' first", bin)
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// Status shows the draft state of the most recent run.
func Status() error {
	return runCLI("run", "status")
}

// Framework generates the retrieval framework for the most recent run.
func Framework() error {
	return runCLI("framework", "build")
}

// Queries compiles the framework into per-source queries.
func Queries() error {
	return runCLI("queries", "build")
}

// Execute runs retrieval for the most recent run.
func Execute() error {
	return runCLI("execute")
}

// Ingest runs authorship-geography ingestion over the aggregate.
func Ingest() error {
	return runCLI("ingest")
}

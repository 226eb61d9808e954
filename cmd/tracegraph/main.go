// Package main provides the tracegraph binary entry point.
// Tracegraph compiles requirement, journey, code, and test documents
// into a traceability graph and reports coverage and consistency.
package main

import (
	"fmt"
	"os"
	"runtime"

	"tracegraph/commands"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := commands.NewRootCmd(Version, BuildTime).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

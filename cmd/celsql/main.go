// Command celsql is a thin CLI shim over the celsql library: it never
// talks to a database and never executes SQL, it only reads a JSON document
// holding an already-parsed CEL expression tree and an optional schema
// registry, and prints the compiled artifact.
// Grounded on cmd/cmd.go's root-command wiring (cobra.Command,
// PersistentFlags, subcommands).
package main

import (
	"fmt"
	"os"
)

var (
	// Set via -ldflags at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

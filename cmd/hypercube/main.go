// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// hypercube creates and reads deniable multi-compartment containers.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/commands"
)

func main() {
	if err := run(); err != nil {
		// extract --check and stats --check answer through the exit
		// code and print nothing else.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}

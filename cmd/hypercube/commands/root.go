// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the hypercube CLI command tree.
package commands

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

// Root builds and returns the complete hypercube command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "hypercube",
		Description: `hypercube: deniable multi-compartment containers.

A container holds several independently keyed compartments among
random chaff. Without a compartment's secret, its blocks cannot be
told apart from chaff or from each other's, so the number of
compartments in use cannot be shown.

Configuration is read from the file named by --config or
$HYPERCUBE_CONFIG (YAML, or JSON with comments).`,
		Subcommands: []*cli.Command{
			addCommand(),
			extractCommand(),
			sealCommand(),
			infoCommand(),
			analyzeCommand(),
			statsCommand(),
			blocksCommand(),
			secretCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Create a container with two compartments and seal it",
				Command: "hypercube add vault.hc real.txt -s real.key\n" +
					"  hypercube add vault.hc decoy.txt -s decoy.key\n" +
					"  hypercube seal vault.hc",
			},
			{
				Description: "Recover a compartment",
				Command:     "hypercube extract vault.hc -s real.key -o real.txt",
			},
		},
	}
}

func versionCommand() *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(args []string) error {
			build := version.Read(container.FormatVersion)
			if done, err := params.EmitJSON(build); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "hypercube %s\n", build.Full())
			return nil
		},
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
)

type sealParams struct {
	ConfigParams
	cli.JSONOutput
	Count int `flag:"count,n" desc:"chaff blocks to add; 0 fills the container"`
}

type sealResult struct {
	Added int `json:"added"`
}

const sealUsage = "hypercube seal <container> [flags]"

func sealCommand() *cli.Command {
	var params sealParams

	return &cli.Command{
		Name:    "seal",
		Summary: "Fill a container with chaff",
		Usage:   sealUsage,
		Description: `Add random blocks that no secret authenticates. A sealed container
reveals nothing about how many compartments it holds; any unused
compartment may be claimed as never having existed.

Chaff takes capacity: a full container accepts no more compartments.`,
		Examples: []cli.Example{
			{
				Description: "Fill all remaining capacity",
				Command:     "hypercube seal vault.hc",
			},
			{
				Description: "Add one compartment's worth of chaff",
				Command:     "hypercube seal vault.hc --count 32",
			},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 1, sealUsage); err != nil {
				return err
			}
			env, err := params.load()
			if err != nil {
				return err
			}
			added, err := env.cube(false).Seal(args[0], params.Count)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(sealResult{Added: added}); done {
				return err
			}
			fmt.Fprintf(cli.Stdout, "added %d chaff blocks\n", added)
			return nil
		},
	}
}

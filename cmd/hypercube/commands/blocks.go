// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
)

type blocksParams struct {
	cli.JSONOutput
	Offset int  `flag:"offset" desc:"skip this many blocks"`
	Limit  int  `flag:"limit" desc:"list at most this many blocks; 0 for all"`
	MAC    bool `flag:"mac" desc:"include each block's MAC tag"`
}

type blockEntry struct {
	Index    int    `json:"index"`
	Sequence string `json:"sequence"`
	MAC      string `json:"mac,omitempty"`
}

const blocksUsage = "hypercube blocks <container> [flags]"

func blocksCommand() *cli.Command {
	var params blocksParams

	return &cli.Command{
		Name:    "blocks",
		Summary: "List block sequence counters",
		Usage:   blocksUsage,
		Description: `List the records of a container in file order with their 128-bit
sequence counters in hex. Counters of one compartment are consecutive
from a random base; in a shuffled file they look like independent
random values.`,
		Examples: []cli.Example{
			{Command: "hypercube blocks vault.hc --limit 10"},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 1, blocksUsage); err != nil {
				return err
			}
			if params.Offset < 0 || params.Limit < 0 {
				return fmt.Errorf("%w: --offset and --limit must not be negative", fault.ErrConfig)
			}

			var entries []blockEntry
			index := -1
			for block, err := range hypercube.IterateBlocks(args[0]) {
				if err != nil {
					return err
				}
				index++
				if index < params.Offset {
					continue
				}
				if params.Limit > 0 && len(entries) == params.Limit {
					break
				}
				entry := blockEntry{Index: index, Sequence: block.Sequence.String()}
				if params.MAC {
					entry.MAC = hex.EncodeToString(block.MAC)
				}
				entries = append(entries, entry)
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}
			for _, entry := range entries {
				if entry.MAC != "" {
					fmt.Fprintf(cli.Stdout, "%6d  %s  %s\n", entry.Index, entry.Sequence, entry.MAC)
				} else {
					fmt.Fprintf(cli.Stdout, "%6d  %s\n", entry.Index, entry.Sequence)
				}
			}
			return nil
		},
	}
}

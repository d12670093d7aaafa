// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/secret"
)

type addParams struct {
	ConfigParams
	SecretParams
	GeometryParams
	cli.JSONOutput
}

const addUsage = "hypercube add <container> <payload-file|-> [flags]"

func addCommand() *cli.Command {
	var params addParams

	return &cli.Command{
		Name:    "add",
		Summary: "Add a compartment to a container",
		Usage:   addUsage,
		Description: `Encode a payload under a secret and add it to the container as one
compartment. The first add creates the container and fixes its
geometry: cube size, block size (fitted to this payload unless
--block-size is given), MAC length and algorithms. Later adds inherit
the header; geometry flags that disagree with it are rejected.

Every add reshuffles and rewrites the whole file.`,
		Examples: []cli.Example{
			{
				Description: "Create a container holding notes.txt",
				Command:     "hypercube add vault.hc notes.txt --secret-file key.txt",
			},
			{
				Description: "Room for a larger second compartment",
				Command:     "hypercube add vault.hc small.txt -s a.key --block-size 4096",
			},
			{
				Description: "Add from stdin with a prompted secret",
				Command:     "tar c docs | hypercube add vault.hc -",
			},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 2, addUsage); err != nil {
				return err
			}
			path, input := args[0], args[1]
			if input == "-" && params.SecretFile == "-" {
				return fmt.Errorf("payload and --secret-file cannot both be stdin")
			}

			env, err := params.load()
			if err != nil {
				return err
			}
			options, err := params.options(env.config.Defaults, !hasHeader(path))
			if err != nil {
				return err
			}
			payload, err := readInput(input)
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			defer secret.Zero(payload)

			secretKey, err := params.read(env.config)
			if err != nil {
				return err
			}
			defer secretKey.Close()

			result, err := env.cube(false).Add(path, secretKey, payload, options)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			if result.Created {
				fmt.Fprintf(cli.Stdout, "created %s: %s, block size %s, %s/%s/%s/%s/%s\n",
					path, result.Header.Preset(), humanize.IBytes(uint64(result.Header.BlockSize)),
					result.Header.Compression, result.Header.Shuffle, result.Header.Whitener,
					result.Header.AONT, result.Header.Hash)
			}
			fmt.Fprintf(cli.Stdout, "added %s payload as %d blocks (%d of %d stored)\n",
				humanize.IBytes(uint64(len(payload))), result.Blocks, result.Stored, result.Capacity)
			return nil
		},
	}
}

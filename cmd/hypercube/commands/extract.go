// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/secret"
)

type extractParams struct {
	ConfigParams
	SecretParams
	Out         string `flag:"out,o" desc:"write the payload to this file instead of stdout"`
	QuietStages bool   `flag:"quiet-stages" desc:"omit the failing stage from extraction errors"`
	Check       bool   `flag:"check" desc:"print nothing; exit 0 if the secret opens a compartment, 1 if not"`
}

const extractUsage = "hypercube extract <container> [flags]"

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Extract the compartment a secret opens",
		Usage:   extractUsage,
		Description: `Recover the payload encoded under a secret. Blocks are selected by
MAC alone; a secret that matches no block is indistinguishable from
an empty compartment and reports that.`,
		Examples: []cli.Example{
			{
				Description: "Extract to a file",
				Command:     "hypercube extract vault.hc -s key.txt -o notes.txt",
			},
			{
				Description: "Test a secret in a script",
				Command:     "hypercube extract vault.hc -s key.txt --check && echo present",
			},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 1, extractUsage); err != nil {
				return err
			}
			env, err := params.load()
			if err != nil {
				return err
			}
			secretKey, err := params.read(env.config)
			if err != nil {
				return err
			}
			defer secretKey.Close()

			payload, err := env.cube(params.QuietStages).Extract(args[0], secretKey)
			if params.Check {
				if isNoCompartment(err) {
					return &cli.ExitError{Code: 1}
				}
				secret.Zero(payload)
				return err
			}
			if err != nil {
				return err
			}
			defer secret.Zero(payload)

			if params.Out != "" {
				if err := os.WriteFile(params.Out, payload, 0o600); err != nil {
					return fmt.Errorf("%w: %w", fault.ErrIO, err)
				}
				env.logger.Info("payload written", "path", params.Out, "bytes", len(payload))
				return nil
			}
			if _, err := cli.Stdout.Write(payload); err != nil {
				return fmt.Errorf("%w: writing payload: %w", fault.ErrIO, err)
			}
			return nil
		},
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/sealed"
)

func secretCommand() *cli.Command {
	return &cli.Command{
		Name:    "secret",
		Summary: "Manage age-wrapped secret files",
		Description: `Compartment secrets can be stored wrapped for one or more age
recipients. --secret-file recognizes a wrapped file and unwraps it
with --identity (or secrets.identity from the config file).`,
		Subcommands: []*cli.Command{
			keygenCommand(),
			wrapCommand(),
		},
	}
}

type keygenParams struct {
	Out string `flag:"out,o" desc:"write the identity to this file (created 0600, never overwritten) instead of stdout"`
}

func keygenCommand() *cli.Command {
	var params keygenParams

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age identity",
		Usage:   "hypercube secret keygen [flags]",
		Description: `Generate an x25519 identity in age's file format. With --out, the
public key is printed on stdout for use with "secret wrap".`,
		Examples: []cli.Example{
			{Command: "hypercube secret keygen -o ~/.config/hypercube/identity.txt"},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 0, "hypercube secret keygen [flags]"); err != nil {
				return err
			}
			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			defer keypair.Close()

			if params.Out == "" {
				return keypair.WriteIdentity(cli.Stdout, time.Now())
			}
			file, err := os.OpenFile(params.Out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return fmt.Errorf("%w: %w", fault.ErrIO, err)
			}
			if err := keypair.WriteIdentity(file, time.Now()); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("%w: %w", fault.ErrIO, err)
			}
			fmt.Fprintln(cli.Stdout, keypair.PublicKey)
			return nil
		},
	}
}

type wrapParams struct {
	ConfigParams
	SecretParams
	Recipients []string `flag:"recipient,r" desc:"age public key (age1...) to wrap for; repeatable"`
	Out        string   `flag:"out,o" desc:"write the wrapped secret to this file instead of stdout"`
}

func wrapCommand() *cli.Command {
	var params wrapParams

	return &cli.Command{
		Name:    "wrap",
		Summary: "Wrap a secret for age recipients",
		Usage:   "hypercube secret wrap -r <age1...> [flags]",
		Description: `Encrypt a compartment secret to one or more age recipients and write
it ASCII-armored. The secret comes from --secret-file or a terminal
prompt.`,
		Examples: []cli.Example{
			{
				Description: "Wrap a prompted secret for two recipients",
				Command:     "hypercube secret wrap -r age1... -r age1... -o a.key.age",
			},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 0, "hypercube secret wrap -r <age1...> [flags]"); err != nil {
				return err
			}
			if len(params.Recipients) == 0 {
				return fmt.Errorf("%w: at least one --recipient is required", fault.ErrConfig)
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

			var wrapped bytes.Buffer
			if err := sealed.Wrap(&wrapped, secretKey, params.Recipients); err != nil {
				return err
			}
			if params.Out == "" {
				_, err := cli.Stdout.Write(wrapped.Bytes())
				return err
			}
			if err := os.WriteFile(params.Out, wrapped.Bytes(), 0o600); err != nil {
				return fmt.Errorf("%w: %w", fault.ErrIO, err)
			}
			return nil
		},
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
)

type analyzeParams struct {
	ConfigParams
	GeometryParams
	cli.JSONOutput
}

const analyzeUsage = "hypercube analyze <payload-file|-> [flags]"

func analyzeCommand() *cli.Command {
	var params analyzeParams

	return &cli.Command{
		Name:    "analyze",
		Summary: "Preview how a payload would be stored",
		Usage:   analyzeUsage,
		Description: `Compress a payload and report the block size, record size and sealed
container size it would produce. Nothing is written. Geometry flags
and config defaults apply as they would for the first add.`,
		Examples: []cli.Example{
			{Command: "hypercube analyze notes.txt"},
			{
				Description: "Compare against a 16x16 cube without compression",
				Command:     "hypercube analyze notes.txt --cube 3 --compression none",
			},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 1, analyzeUsage); err != nil {
				return err
			}
			env, err := params.load()
			if err != nil {
				return err
			}
			options, err := params.options(env.config.Defaults, true)
			if err != nil {
				return err
			}
			payload, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}

			report, err := hypercube.Analyze(payload, options)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(report); done {
				return err
			}

			writer := tabwriter.NewWriter(cli.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "Cube:\t%s\n", report.Preset)
			fmt.Fprintf(writer, "Payload:\t%s\n", humanize.IBytes(uint64(report.OriginalSize)))
			fmt.Fprintf(writer, "Compressed:\t%s\n", humanize.IBytes(uint64(report.CompressedSize)))
			fmt.Fprintf(writer, "Stream:\t%d bytes with metadata\n", report.StreamSize)
			fmt.Fprintf(writer, "Block size:\t%d bytes (fragments of %d)\n", report.Layout.BlockSize, report.Layout.FragmentSize)
			fmt.Fprintf(writer, "Headroom:\t%d bytes\n", report.Headroom)
			fmt.Fprintf(writer, "Record size:\t%d bytes (%d-bit MAC)\n", report.RecordSize, report.MACBits)
			fmt.Fprintf(writer, "Sealed container:\t%s\n", humanize.IBytes(uint64(report.ContainerSize)))
			writer.Flush()
			return nil
		},
	}
}

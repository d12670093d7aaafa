// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/blockstats"
)

type statsParams struct {
	cli.JSONOutput
	Offset int  `flag:"offset" desc:"skip this many blocks, in file order"`
	Limit  int  `flag:"limit" desc:"measure at most this many blocks; 0 for all"`
	Check  bool `flag:"check" desc:"exit 1 if any section fails the uniformity thresholds"`
}

const statsUsage = "hypercube stats <container> [flags]"

func statsCommand() *cli.Command {
	var params statsParams

	return &cli.Command{
		Name:    "stats",
		Summary: "Measure how random a container's blocks look",
		Usage:   statsUsage,
		Description: fmt.Sprintf(`Compute byte statistics over block payloads, MAC tags and whole
records: Shannon entropy, chi-square with its p-value, mean, serial
correlation and the fraction of set bits. A section passes when its
entropy exceeds %.1f bits per byte and its p-value exceeds %g.

Compartment blocks and chaff should be statistically identical; run
this on a sealed container to check.`, blockstats.MinimumEntropy, blockstats.MinimumPValue),
		Examples: []cli.Example{
			{Command: "hypercube stats vault.hc"},
			{
				Description: "Measure the first compartment's worth of blocks",
				Command:     "hypercube stats vault.hc --limit 32 --json",
			},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 1, statsUsage); err != nil {
				return err
			}
			report, err := blockstats.Collect(args[0], blockstats.Selection{Offset: params.Offset, Limit: params.Limit})
			if err != nil {
				return err
			}
			uniform := report.Payloads.LooksUniform() && report.MACs.LooksUniform() && report.Records.LooksUniform()

			if done, err := params.EmitJSON(report); !done {
				printStats(report)
			} else if err != nil {
				return err
			}
			if params.Check && !uniform {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func printStats(report *blockstats.Report) {
	fmt.Fprintf(cli.Stdout, "%s %d blocks\n", headingStyle.Render("Measured"), report.Blocks)

	writer := tabwriter.NewWriter(cli.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(writer, "\tbytes\tentropy\tchi²\tp-value\tmean\tserial\tones\t")
	for _, section := range []struct {
		name    string
		summary blockstats.Summary
	}{
		{"payloads", report.Payloads},
		{"macs", report.MACs},
		{"records", report.Records},
	} {
		s := section.summary
		fmt.Fprintf(writer, "%s\t%d\t%.4f\t%.1f\t%.4f\t%.2f\t%+.4f\t%.4f\t%s\n",
			section.name, s.Bytes, s.Entropy, s.ChiSquare, s.PValue, s.Mean,
			s.SerialCorrelation, s.MonobitRatio, verdict(s.LooksUniform(), "uniform", "NOT UNIFORM"))
	}
	writer.Flush()
}

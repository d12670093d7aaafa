// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/fingerprint"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
)

type infoParams struct {
	cli.JSONOutput
}

// containerInfo is what `hypercube info` reports. Everything in it is
// derivable from the cleartext header and the file length.
type containerInfo struct {
	Path     string            `json:"path"`
	Header   *container.Header `json:"header"`
	FileSize int64             `json:"file_size"`

	// Fingerprint identifies this write of the file. Every add and
	// seal reshuffles, so it changes on each write.
	Fingerprint fingerprint.Digest `json:"fingerprint"`

	Blocks     int `json:"blocks"`
	Capacity   int `json:"capacity"`
	RecordSize int `json:"record_size"`

	// PayloadCapacity is the largest compressed payload one
	// compartment holds at this block size.
	PayloadCapacity int `json:"payload_capacity"`
}

const infoUsage = "hypercube info <container> [flags]"

func infoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Show a container's header and fill level",
		Usage:   infoUsage,
		Description: `Print the cleartext header and block count. No secret is needed and
nothing printed distinguishes compartments from chaff.`,
		Examples: []cli.Example{
			{Command: "hypercube info vault.hc"},
		},
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := requireArgs(args, 1, infoUsage); err != nil {
				return err
			}
			info, err := describe(args[0])
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(info); done {
				return err
			}
			printInfo(info)
			return nil
		},
	}
}

func describe(path string) (*containerInfo, error) {
	header, err := hypercube.LoadHeader(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	layout, err := header.Layout()
	if err != nil {
		return nil, err
	}

	info := &containerInfo{
		Path:            path,
		Header:          header,
		FileSize:        stat.Size(),
		Capacity:        header.Capacity(),
		RecordSize:      header.RecordSize(),
		PayloadCapacity: layout.DataCapacity() - cube.MetadataSize,
	}
	if info.Fingerprint, err = fingerprint.File(path); err != nil {
		return nil, err
	}
	for _, err := range hypercube.IterateBlocks(path) {
		if err != nil {
			return nil, err
		}
		info.Blocks++
	}
	return info, nil
}

func printInfo(info *containerInfo) {
	header := info.Header
	fmt.Fprintln(cli.Stdout, headingStyle.Render(info.Path))

	writer := tabwriter.NewWriter(cli.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Format:\tv%d\n", header.Version)
	fmt.Fprintf(writer, "Cube:\t%s\n", header.Preset())
	fmt.Fprintf(writer, "Blocks:\t%d of %d (%s)\n", info.Blocks, info.Capacity,
		verdict(info.Blocks < info.Capacity, fmt.Sprintf("%d free", info.Capacity-info.Blocks), "full"))
	fmt.Fprintf(writer, "Block size:\t%s (fragments of %d)\n", humanize.IBytes(uint64(header.BlockSize)), header.FragmentSize)
	fmt.Fprintf(writer, "Record size:\t%d bytes (%d-bit MAC)\n", info.RecordSize, header.MACBits)
	fmt.Fprintf(writer, "Per compartment:\t%s compressed payload\n", humanize.IBytes(uint64(info.PayloadCapacity)))
	fmt.Fprintf(writer, "File size:\t%s\n", humanize.IBytes(uint64(info.FileSize)))
	fmt.Fprintf(writer, "Fingerprint:\tblake3:%s\n", info.Fingerprint)
	fmt.Fprintf(writer, "Compression:\t%s\n", header.Compression)
	fmt.Fprintf(writer, "Shuffle:\t%s\n", header.Shuffle)
	fmt.Fprintf(writer, "Whitener:\t%s\n", header.Whitener)
	fmt.Fprintf(writer, "AONT:\t%s\n", header.AONT)
	fmt.Fprintf(writer, "MAC hash:\t%s\n", header.Hash)
	writer.Flush()
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hypercube

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/aont"
	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/permute"
	"github.com/bureau-foundation/hypercube/lib/whiten"
)

// AddOptions selects geometry and algorithms for Add and Analyze.
//
// Zero fields mean "unspecified". On an empty container they take the
// package defaults. On a container that already has a header they
// inherit the header's value, and a nonzero field that disagrees with
// the header is rejected before any transform work: cube, dimension,
// block size and mac bits with [ErrGeometryMismatch], algorithms with
// [ErrConfig].
type AddOptions struct {
	// Cube is a preset id. Dimension, when nonzero, overrides it with
	// a custom N×N cube.
	Cube      int `json:"cube,omitempty"`
	Dimension int `json:"dimension,omitempty"`

	// BlockSize fixes the block payload size instead of fitting it to
	// the first payload.
	BlockSize int `json:"block_size,omitempty"`
	MACBits   int `json:"mac_bits,omitempty"`

	Compression compress.Algorithm `json:"compression,omitempty"`
	Shuffle     permute.Algorithm  `json:"shuffle,omitempty"`
	Whitener    whiten.Algorithm   `json:"whitener,omitempty"`
	AONT        aont.Variant       `json:"aont,omitempty"`
	Hash        blockmac.Hash      `json:"hash,omitempty"`
}

// withDefaults fills every unspecified algorithm and the mac size.
func (o AddOptions) withDefaults() AddOptions {
	if o.MACBits == 0 {
		o.MACBits = blockmac.DefaultBits
	}
	if o.Compression == 0 {
		o.Compression = compress.Zstd
	}
	if o.Shuffle == 0 {
		o.Shuffle = permute.Feistel
	}
	if o.Whitener == 0 {
		o.Whitener = whiten.Keccak
	}
	if o.AONT == 0 {
		o.AONT = aont.Rivest
	}
	if o.Hash == 0 {
		o.Hash = blockmac.SHA3
	}
	return o
}

// newHeader builds the header for the first compartment of a container
// from options and the fitted layout.
func newHeader(preset cube.Preset, layout cube.Layout, options AddOptions) *container.Header {
	return &container.Header{
		Version:              container.FormatVersion,
		Cube:                 preset.ID,
		Compartments:         preset.Compartments,
		BlocksPerCompartment: preset.BlocksPerCompartment,
		BlockSize:            layout.BlockSize,
		FragmentSize:         layout.FragmentSize,
		MACBits:              options.MACBits,
		Compression:          options.Compression,
		Shuffle:              options.Shuffle,
		Whitener:             options.Whitener,
		AONT:                 options.AONT,
		Hash:                 options.Hash,
	}
}

// checkCompatible rejects options that contradict an existing header.
func checkCompatible(header *container.Header, options AddOptions) error {
	if options.Dimension != 0 {
		if header.Cube != 0 || options.Dimension != header.BlocksPerCompartment {
			return fmt.Errorf("%w: dimension %d, container is %s",
				fault.ErrGeometryMismatch, options.Dimension, header.Preset())
		}
	} else if options.Cube != 0 && options.Cube != header.Cube {
		return fmt.Errorf("%w: cube preset %d, container is %s",
			fault.ErrGeometryMismatch, options.Cube, header.Preset())
	}
	if options.BlockSize != 0 && options.BlockSize != header.BlockSize {
		return fmt.Errorf("%w: block size %d, container uses %d",
			fault.ErrGeometryMismatch, options.BlockSize, header.BlockSize)
	}
	if options.MACBits != 0 && options.MACBits != header.MACBits {
		return fmt.Errorf("%w: mac bits %d, container uses %d",
			fault.ErrGeometryMismatch, options.MACBits, header.MACBits)
	}

	var mismatched []string
	if options.Compression != 0 && options.Compression != header.Compression {
		mismatched = append(mismatched, fmt.Sprintf("compression %s (container: %s)", options.Compression, header.Compression))
	}
	if options.Shuffle != 0 && options.Shuffle != header.Shuffle {
		mismatched = append(mismatched, fmt.Sprintf("shuffle %s (container: %s)", options.Shuffle, header.Shuffle))
	}
	if options.Whitener != 0 && options.Whitener != header.Whitener {
		mismatched = append(mismatched, fmt.Sprintf("whitener %s (container: %s)", options.Whitener, header.Whitener))
	}
	if options.AONT != 0 && options.AONT != header.AONT {
		mismatched = append(mismatched, fmt.Sprintf("aont %s (container: %s)", options.AONT, header.AONT))
	}
	if options.Hash != 0 && options.Hash != header.Hash {
		mismatched = append(mismatched, fmt.Sprintf("hash %s (container: %s)", options.Hash, header.Hash))
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%w: algorithms are fixed by the container header: %v", fault.ErrConfig, mismatched)
	}
	return nil
}

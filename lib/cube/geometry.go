// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cube

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

const (
	// MetadataSize is the length of the record prefixed to every
	// compartment's compressed stream: compressed size (8), original
	// size (8) and shuffle seed (32).
	MetadataSize = 48

	// PackageMinimum is the smallest AONT package a compartment
	// reserves: a 32-byte key block plus a 32-byte check value.
	PackageMinimum = 64

	// MaxFragmentSize bounds fragment growth for large blocks.
	MaxFragmentSize = 256

	// MinDimension and MaxDimension bound custom cube overrides.
	MinDimension = 2
	MaxDimension = 4096
)

// Preset is a named cube geometry.
type Preset struct {
	// ID is the preset number stored in the header. Zero marks a
	// custom dimension.
	ID int `json:"id"`

	Compartments         int `json:"compartments"`
	BlocksPerCompartment int `json:"blocks_per_compartment"`
}

// DefaultPreset is used when neither a preset nor a dimension is given.
const DefaultPreset = 1

var presets = map[int]Preset{
	1: {ID: 1, Compartments: 32, BlocksPerCompartment: 32},
	2: {ID: 2, Compartments: 64, BlocksPerCompartment: 64},
	3: {ID: 3, Compartments: 16, BlocksPerCompartment: 16},
}

// Lookup returns the preset with the given id.
func Lookup(id int) (Preset, error) {
	preset, ok := presets[id]
	if !ok {
		return Preset{}, fmt.Errorf("%w: unknown cube preset %d", fault.ErrConfig, id)
	}
	return preset, nil
}

// Custom returns an N×N geometry with preset id 0.
func Custom(dimension int) (Preset, error) {
	if dimension < MinDimension || dimension > MaxDimension {
		return Preset{}, fmt.Errorf("%w: cube dimension %d outside [%d, %d]",
			fault.ErrConfig, dimension, MinDimension, MaxDimension)
	}
	return Preset{Compartments: dimension, BlocksPerCompartment: dimension}, nil
}

// Resolve picks a geometry from a preset id and a dimension override.
// A nonzero dimension wins. Both zero selects [DefaultPreset].
func Resolve(id, dimension int) (Preset, error) {
	if dimension != 0 {
		return Custom(dimension)
	}
	if id == 0 {
		id = DefaultPreset
	}
	return Lookup(id)
}

// Capacity is the total number of blocks the cube can store.
func (p Preset) Capacity() int {
	return p.Compartments * p.BlocksPerCompartment
}

func (p Preset) String() string {
	if p.ID == 0 {
		return fmt.Sprintf("custom %dx%d", p.Compartments, p.BlocksPerCompartment)
	}
	return fmt.Sprintf("preset %d (%dx%d)", p.ID, p.Compartments, p.BlocksPerCompartment)
}

// RequiredBlockSize is the smallest block payload size that lets
// blocks payloads hold streamBytes: ceil(streamBytes / blocks), and
// at least one byte.
func RequiredBlockSize(streamBytes, blocks int) int {
	if blocks <= 0 {
		return 0
	}
	size := (streamBytes + blocks - 1) / blocks
	return max(size, 1)
}

// FragmentSize derives the fragment length for a block payload size.
// It doubles while the block still splits into more than eight
// fragments and the fragment stays within [MaxFragmentSize], then
// halves until it divides the block evenly. Odd block sizes therefore
// use single-byte fragments.
func FragmentSize(blockSize int) int {
	fragment := 1
	for fragment*2 <= blockSize && blockSize/(fragment*2) > 8 && fragment*2 <= MaxFragmentSize {
		fragment *= 2
	}
	for fragment > 1 && blockSize%fragment != 0 {
		fragment /= 2
	}
	return fragment
}

// PackageSize is the number of stream bytes reserved for the AONT
// package: [PackageMinimum] rounded up to whole fragments.
func PackageSize(fragmentSize int) int {
	return (PackageMinimum + fragmentSize - 1) / fragmentSize * fragmentSize
}

// Layout is the per-compartment stream geometry for one block size.
type Layout struct {
	BlockSize            int `json:"block_size"`
	BlocksPerCompartment int `json:"blocks_per_compartment"`
	FragmentSize         int `json:"fragment_size"`
}

// NewLayout validates and completes a layout for blockSize.
func NewLayout(blockSize, blocksPerCompartment int) (Layout, error) {
	if blockSize <= 0 {
		return Layout{}, fmt.Errorf("%w: block size must be positive, got %d", fault.ErrConfig, blockSize)
	}
	if blocksPerCompartment <= 0 {
		return Layout{}, fmt.Errorf("%w: blocks per compartment must be positive, got %d", fault.ErrConfig, blocksPerCompartment)
	}
	layout := Layout{
		BlockSize:            blockSize,
		BlocksPerCompartment: blocksPerCompartment,
		FragmentSize:         FragmentSize(blockSize),
	}
	if layout.DataCapacity() <= 0 {
		return Layout{}, fmt.Errorf("%w: %d blocks of %d bytes cannot hold the %d-byte aont package",
			fault.ErrConfig, blocksPerCompartment, blockSize, layout.PackageSize())
	}
	return layout, nil
}

// StreamSize is the total plaintext stream one compartment occupies.
func (l Layout) StreamSize() int {
	return l.BlockSize * l.BlocksPerCompartment
}

// PackageSize is the tail of the stream reserved for the AONT package.
func (l Layout) PackageSize() int {
	return PackageSize(l.FragmentSize)
}

// DataCapacity is the number of stream bytes available for the
// metadata record plus compressed payload.
func (l Layout) DataCapacity() int {
	return l.StreamSize() - l.PackageSize()
}

// Fragments is the total number of fragments in one compartment.
func (l Layout) Fragments() int {
	return l.StreamSize() / l.FragmentSize
}

// DataFragments is the number of fragments that carry metadata and
// payload and take part in shuffling and whitening.
func (l Layout) DataFragments() int {
	return l.DataCapacity() / l.FragmentSize
}

// PackageFragments is the number of fragments holding the AONT package.
func (l Layout) PackageFragments() int {
	return l.PackageSize() / l.FragmentSize
}

// Fit returns the smallest layout whose data region holds dataBytes
// (metadata record plus compressed payload) across blocksPerCompartment
// blocks. It starts from [RequiredBlockSize] and grows the block until
// the AONT package reserve also fits.
func Fit(dataBytes, blocksPerCompartment int) (Layout, error) {
	if blocksPerCompartment <= 0 {
		return Layout{}, fmt.Errorf("%w: blocks per compartment must be positive", fault.ErrConfig)
	}
	blockSize := RequiredBlockSize(dataBytes+PackageMinimum, blocksPerCompartment)
	for {
		layout, err := NewLayout(blockSize, blocksPerCompartment)
		if err == nil && layout.DataCapacity() >= dataBytes {
			return layout, nil
		}
		blockSize++
	}
}

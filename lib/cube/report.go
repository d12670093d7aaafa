// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cube

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

// SequenceSize is the length of the counter at the head of each record.
const SequenceSize = 16

// Report previews how a payload would occupy a container.
type Report struct {
	Preset Preset `json:"preset"`
	Layout Layout `json:"layout"`

	OriginalSize   int `json:"original_size"`
	CompressedSize int `json:"compressed_size"`
	// StreamSize is the metadata record plus compressed payload.
	StreamSize int `json:"stream_size"`

	MACBits    int `json:"mac_bits"`
	RecordSize int `json:"record_size"`

	// Headroom is how many more stream bytes the compartment's data
	// region could have absorbed at this block size.
	Headroom int `json:"headroom"`

	// ContainerSize is the file size of a sealed container of this
	// geometry, excluding the header.
	ContainerSize int64 `json:"container_size"`
}

// Plan sizes a compartment for a payload of originalSize bytes that
// compresses to compressedSize. When blockSize is nonzero the block
// size is fixed (a container that already has a header) and a payload
// that does not fit is [fault.ErrCapacityExceeded].
func Plan(preset Preset, originalSize, compressedSize, blockSize, macBits int) (*Report, error) {
	stream := MetadataSize + compressedSize

	var layout Layout
	var err error
	if blockSize == 0 {
		layout, err = Fit(stream, preset.BlocksPerCompartment)
	} else {
		layout, err = NewLayout(blockSize, preset.BlocksPerCompartment)
	}
	if err != nil {
		return nil, err
	}
	if stream > layout.DataCapacity() {
		return nil, fmt.Errorf("%w: %d-byte stream exceeds the %d-byte data region of %d blocks at %d bytes",
			fault.ErrCapacityExceeded, stream, layout.DataCapacity(), layout.BlocksPerCompartment, layout.BlockSize)
	}

	recordSize := RecordSize(layout.BlockSize, macBits)
	return &Report{
		Preset:         preset,
		Layout:         layout,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		StreamSize:     stream,
		MACBits:        macBits,
		RecordSize:     recordSize,
		Headroom:       layout.DataCapacity() - stream,
		ContainerSize:  int64(preset.Capacity()) * int64(recordSize),
	}, nil
}

// RecordSize is the on-disk length of one block record.
func RecordSize(blockSize, macBits int) int {
	return SequenceSize + blockSize + macBits/8
}

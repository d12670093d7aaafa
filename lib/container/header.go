// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/hypercube/lib/aont"
	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/codec"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/permute"
	"github.com/bureau-foundation/hypercube/lib/whiten"
)

// Magic opens every container file.
var Magic = [4]byte{'H', 'C', 'U', 'B'}

// FormatVersion is the header version this package writes and reads.
const FormatVersion = 1

// maxHeaderSize bounds the header length prefix. Real headers are
// under 256 bytes.
const maxHeaderSize = 4096

// Header is the cleartext container description. It is fixed when the
// first compartment is added.
type Header struct {
	Version int `json:"version"`

	// Cube is the preset id, or 0 for a custom dimension.
	Cube                 int `json:"cube"`
	Compartments         int `json:"compartments"`
	BlocksPerCompartment int `json:"blocks_per_compartment"`

	BlockSize    int `json:"block_size"`
	FragmentSize int `json:"fragment_size"`
	MACBits      int `json:"mac_bits"`

	Compression compress.Algorithm `json:"compression"`
	Shuffle     permute.Algorithm  `json:"shuffle"`
	Whitener    whiten.Algorithm   `json:"whitener"`
	AONT        aont.Variant       `json:"aont"`
	Hash        blockmac.Hash      `json:"hash"`
}

// Preset returns the header's cube geometry.
func (h *Header) Preset() cube.Preset {
	return cube.Preset{ID: h.Cube, Compartments: h.Compartments, BlocksPerCompartment: h.BlocksPerCompartment}
}

// Layout returns the per-compartment stream geometry.
func (h *Header) Layout() (cube.Layout, error) {
	return cube.NewLayout(h.BlockSize, h.BlocksPerCompartment)
}

// Capacity is the maximum number of blocks the container may hold.
func (h *Header) Capacity() int {
	return h.Compartments * h.BlocksPerCompartment
}

// RecordSize is the on-disk length of one block record.
func (h *Header) RecordSize() int {
	return cube.RecordSize(h.BlockSize, h.MACBits)
}

// MACSize is the tag length in bytes.
func (h *Header) MACSize() int {
	return h.MACBits / 8
}

// Validate checks every field. All failures are [fault.ErrConfig].
func (h *Header) Validate() error {
	var errs []error

	if h.Version != FormatVersion {
		errs = append(errs, fmt.Errorf("unsupported header version %d", h.Version))
	}

	var expected cube.Preset
	var err error
	if h.Cube == 0 {
		expected, err = cube.Custom(h.Compartments)
	} else {
		expected, err = cube.Lookup(h.Cube)
	}
	if err != nil {
		errs = append(errs, err)
	} else if expected.Compartments != h.Compartments || expected.BlocksPerCompartment != h.BlocksPerCompartment {
		errs = append(errs, fmt.Errorf("geometry %dx%d does not match %s",
			h.Compartments, h.BlocksPerCompartment, expected))
	}

	if layout, err := h.Layout(); err != nil {
		errs = append(errs, err)
	} else if layout.FragmentSize != h.FragmentSize {
		errs = append(errs, fmt.Errorf("fragment_size %d, block size %d implies %d",
			h.FragmentSize, h.BlockSize, layout.FragmentSize))
	}

	if !blockmac.ValidBits(h.MACBits) {
		errs = append(errs, fmt.Errorf("mac_bits %d not in {128,256,512}", h.MACBits))
	}
	if !h.Compression.Valid() {
		errs = append(errs, fmt.Errorf("compression is required"))
	}
	if !h.Shuffle.Valid() {
		errs = append(errs, fmt.Errorf("shuffle is required"))
	}
	if !h.Whitener.Valid() {
		errs = append(errs, fmt.Errorf("whitener is required"))
	}
	if !h.AONT.Valid() {
		errs = append(errs, fmt.Errorf("aont is required"))
	}
	if !h.Hash.Valid() {
		errs = append(errs, fmt.Errorf("hash is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: header: %w", fault.ErrConfig, errors.Join(errs...))
	}
	return nil
}

// writeHeader writes the magic, length prefix and encoded header.
func writeHeader(w io.Writer, header *Header) error {
	encoded, err := codec.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	prefix := make([]byte, 8)
	copy(prefix, Magic[:])
	binary.LittleEndian.PutUint32(prefix[4:], uint32(len(encoded)))
	if _, err := w.Write(prefix); err != nil {
		return err
	}
	_, err = w.Write(encoded)
	return err
}

// readHeader reads and validates the magic, length prefix and header.
// A file that ends inside this region is truncated; one that starts
// with the wrong magic is not a container at all.
func readHeader(r io.Reader) (*Header, error) {
	var prefix [8]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, shortRead(err, "header prefix")
	}
	if [4]byte(prefix[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %x", fault.ErrConfig, prefix[:4])
	}
	length := binary.LittleEndian.Uint32(prefix[4:])
	if length == 0 || length > maxHeaderSize {
		return nil, fmt.Errorf("%w: header length %d", fault.ErrConfig, length)
	}

	encoded := make([]byte, length)
	if _, err := io.ReadFull(r, encoded); err != nil {
		return nil, shortRead(err, "header")
	}
	var header Header
	if err := codec.Unmarshal(encoded, &header); err != nil {
		return nil, fmt.Errorf("%w: decoding header: %w", fault.ErrConfig, err)
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	return &header, nil
}

// shortRead classifies an io.ReadFull failure.
func shortRead(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: file ends inside %s", fault.ErrTruncatedContainer, what)
	}
	return fmt.Errorf("%w: reading %s: %w", fault.ErrIO, what, err)
}

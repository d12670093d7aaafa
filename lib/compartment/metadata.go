// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compartment

import (
	"encoding/binary"
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/permute"
)

// Metadata is the record at the front of every compartment stream.
// It is only readable after the whole pipeline has been inverted.
type Metadata struct {
	CompressedSize uint64
	OriginalSize   uint64
	ShuffleSeed    [permute.SeedSize]byte
}

// MarshalBinary encodes the 48-byte record, little-endian.
func (m *Metadata) MarshalBinary() ([]byte, error) {
	out := make([]byte, cube.MetadataSize)
	binary.LittleEndian.PutUint64(out[0:8], m.CompressedSize)
	binary.LittleEndian.PutUint64(out[8:16], m.OriginalSize)
	copy(out[16:], m.ShuffleSeed[:])
	return out, nil
}

// UnmarshalBinary decodes the first 48 bytes of data.
func (m *Metadata) UnmarshalBinary(data []byte) error {
	if len(data) < cube.MetadataSize {
		return fmt.Errorf("metadata record needs %d bytes, have %d", cube.MetadataSize, len(data))
	}
	m.CompressedSize = binary.LittleEndian.Uint64(data[0:8])
	m.OriginalSize = binary.LittleEndian.Uint64(data[8:16])
	copy(m.ShuffleSeed[:], data[16:cube.MetadataSize])
	return nil
}

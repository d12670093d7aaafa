// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/cube"
)

// Sequence is a 128-bit big-endian block counter. Byte order matches
// numeric order, so sequences sort with bytes.Compare.
type Sequence [cube.SequenceSize]byte

// Add returns s + n modulo 2^128.
func (s Sequence) Add(n uint64) Sequence {
	high := binary.BigEndian.Uint64(s[:8])
	low := binary.BigEndian.Uint64(s[8:])
	sum := low + n
	if sum < low {
		high++
	}
	var out Sequence
	binary.BigEndian.PutUint64(out[:8], high)
	binary.BigEndian.PutUint64(out[8:], sum)
	return out
}

// Compare orders sequences numerically.
func (s Sequence) Compare(other Sequence) int {
	return bytes.Compare(s[:], other[:])
}

func (s Sequence) String() string {
	return hex.EncodeToString(s[:])
}

// Block is one record: a sequence counter, a transformed payload and
// its MAC. A block carries nothing that names its compartment.
type Block struct {
	Sequence Sequence
	Payload  []byte
	MAC      []byte
}

// check verifies a block's field sizes against the header.
func (b *Block) check(header *Header) error {
	if len(b.Payload) != header.BlockSize {
		return fmt.Errorf("block payload is %d bytes, header block size is %d", len(b.Payload), header.BlockSize)
	}
	if len(b.MAC) != header.MACSize() {
		return fmt.Errorf("block mac is %d bytes, header mac size is %d", len(b.MAC), header.MACSize())
	}
	return nil
}

// appendRecord appends the record encoding of b to dst.
func appendRecord(dst []byte, b *Block) []byte {
	dst = append(dst, b.Sequence[:]...)
	dst = append(dst, b.Payload...)
	return append(dst, b.MAC...)
}

// parseRecord splits one record. The block's slices alias record.
func parseRecord(record []byte, header *Header) Block {
	var block Block
	copy(block.Sequence[:], record[:cube.SequenceSize])
	payloadEnd := cube.SequenceSize + header.BlockSize
	block.Payload = record[cube.SequenceSize:payloadEnd:payloadEnd]
	block.MAC = record[payloadEnd:header.RecordSize():header.RecordSize()]
	return block
}

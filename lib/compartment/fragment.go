// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compartment

import (
	"fmt"
)

// Segment splits stream into consecutive chunks of size bytes. The
// chunks alias stream.
func Segment(stream []byte, size int) ([][]byte, error) {
	if size <= 0 || len(stream)%size != 0 {
		return nil, fmt.Errorf("cannot split %d bytes into %d-byte pieces", len(stream), size)
	}
	pieces := make([][]byte, len(stream)/size)
	for i := range pieces {
		pieces[i] = stream[i*size : (i+1)*size : (i+1)*size]
	}
	return pieces, nil
}

// Unsegment concatenates pieces into a new buffer.
func Unsegment(pieces [][]byte) []byte {
	total := 0
	for _, piece := range pieces {
		total += len(piece)
	}
	out := make([]byte, 0, total)
	for _, piece := range pieces {
		out = append(out, piece...)
	}
	return out
}

// Fragment splits every block into fragments of size bytes, in block
// order. The fragments alias the blocks.
func Fragment(blocks [][]byte, size int) ([][]byte, error) {
	var fragments [][]byte
	for i, block := range blocks {
		pieces, err := Segment(block, size)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		fragments = append(fragments, pieces...)
	}
	return fragments, nil
}

// Defragment regroups fragments into blocks of perBlock fragments each.
// It is the exact inverse of Fragment.
func Defragment(fragments [][]byte, perBlock int) ([][]byte, error) {
	if perBlock <= 0 || len(fragments)%perBlock != 0 {
		return nil, fmt.Errorf("cannot group %d fragments by %d", len(fragments), perBlock)
	}
	blocks := make([][]byte, len(fragments)/perBlock)
	for i := range blocks {
		blocks[i] = Unsegment(fragments[i*perBlock : (i+1)*perBlock])
	}
	return blocks, nil
}

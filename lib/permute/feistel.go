// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package permute

import (
	"encoding/binary"
	"math/bits"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/hypercube/lib/parallel"
)

const feistelRounds = 6

// feistelDomain is "hypercube.feistel.v1" followed by padding to make
// round input a fixed 32 bytes.
var feistelDomain = [20]byte{'h', 'y', 'p', 'e', 'r', 'c', 'u', 'b', 'e', '.', 'f', 'e', 'i', 's', 't', 'e', 'l', '.', 'v', '1'}

// network is a keyed Feistel network over 2*half bits. It is not safe
// for concurrent use; each goroutine builds its own.
type network struct {
	hasher *blake3.Hasher
	half   uint
	mask   uint64
	input  [32]byte
	output [32]byte
}

func newNetwork(seed []byte, half uint) *network {
	hasher, err := blake3.NewKeyed(seed)
	if err != nil {
		panic("permute: BLAKE3 keyed hash initialization failed (seed must be 32 bytes): " + err.Error())
	}
	n := &network{hasher: hasher, half: half, mask: 1<<half - 1}
	copy(n.input[:], feistelDomain[:])
	return n
}

func (n *network) round(round int, value uint64) uint64 {
	n.input[20] = byte(round)
	binary.LittleEndian.PutUint64(n.input[21:29], value)
	n.hasher.Reset()
	n.hasher.Write(n.input[:])
	n.hasher.Sum(n.output[:0])
	return binary.LittleEndian.Uint64(n.output[:8]) & n.mask
}

func (n *network) encrypt(value uint64) uint64 {
	left, right := value>>n.half, value&n.mask
	for round := range feistelRounds {
		left, right = right, left^n.round(round, right)
	}
	return left<<n.half | right
}

func (n *network) decrypt(value uint64) uint64 {
	left, right := value>>n.half, value&n.mask
	for round := feistelRounds - 1; round >= 0; round-- {
		left, right = right^n.round(round, left), left
	}
	return left<<n.half | right
}

// walk applies step until the value falls back inside [0, limit).
// Because step is a bijection on the larger domain, the cycle through
// any in-range starting point returns to the range.
func walk(step func(uint64) uint64, value, limit uint64) uint64 {
	for {
		value = step(value)
		if value < limit {
			return value
		}
	}
}

// feistelHalfBits returns the half width of the smallest balanced
// domain covering n values. At least one bit per half.
func feistelHalfBits(n int) uint {
	width := uint(bits.Len64(uint64(n - 1)))
	return max((width+1)/2, 1)
}

func newFeistel(seed []byte, n, workers int) *Permutation {
	if n <= 1 {
		identity := make([]int, n)
		for i := range identity {
			identity[i] = i
		}
		return &Permutation{forward: identity, inverse: append([]int(nil), identity...)}
	}

	half := feistelHalfBits(n)
	limit := uint64(n)
	forward := make([]int, n)
	inverse := make([]int, n)

	parallel.For(n, workers, func(start, end int) {
		net := newNetwork(seed, half)
		for i := start; i < end; i++ {
			forward[i] = int(walk(net.encrypt, uint64(i), limit))
			inverse[i] = int(walk(net.decrypt, uint64(i), limit))
		}
	})

	return &Permutation{forward: forward, inverse: inverse}
}

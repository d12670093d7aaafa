// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package permute

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/chacha20"
)

// keystream draws uniform integers from a ChaCha20 keystream.
type keystream struct {
	cipher *chacha20.Cipher
	buffer [512]byte
	offset int
}

func newKeystream(seed []byte) *keystream {
	// The seed is single-use per permutation, so a zero nonce is fine.
	cipher, err := chacha20.NewUnauthenticatedCipher(seed, make([]byte, chacha20.NonceSize))
	if err != nil {
		panic("permute: ChaCha20 initialization failed (seed must be 32 bytes): " + err.Error())
	}
	k := &keystream{cipher: cipher}
	k.refill()
	return k
}

func (k *keystream) refill() {
	clear(k.buffer[:])
	k.cipher.XORKeyStream(k.buffer[:], k.buffer[:])
	k.offset = 0
}

func (k *keystream) uint64() uint64 {
	if k.offset+8 > len(k.buffer) {
		k.refill()
	}
	value := binary.LittleEndian.Uint64(k.buffer[k.offset:])
	k.offset += 8
	return value
}

// below returns a uniform value in [0, bound).
func (k *keystream) below(bound uint64) uint64 {
	// Values under threshold would bias the modulus toward small results.
	threshold := (math.MaxUint64 - bound + 1) % bound
	for {
		value := k.uint64()
		if value >= threshold {
			return value % bound
		}
	}
}

func newFisherYates(seed []byte, n int) *Permutation {
	forward := make([]int, n)
	for i := range forward {
		forward[i] = i
	}
	stream := newKeystream(seed)
	for i := n - 1; i > 0; i-- {
		j := int(stream.below(uint64(i + 1)))
		forward[i], forward[j] = forward[j], forward[i]
	}
	return &Permutation{forward: forward, inverse: invertTable(forward)}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package whiten XORs fragments with a keyed keystream so that no
// structure of the compressed payload survives into the block soup.
//
// Each fragment gets its own keystream, derived from the whitening key
// and the fragment's index, so fragments can be processed in any order
// or in parallel with byte-identical results. Whitening is its own
// inverse.
//
// Two generators are available: keccak (default), the SHAKE256 sponge,
// and xor, a ChaCha20 keystream with the fragment index as nonce.
package whiten

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"

	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/parallel"
)

// KeySize is the length of a whitening key.
const KeySize = 32

// Algorithm identifies the keystream generator in the container
// header. The zero value means "unspecified".
type Algorithm uint8

const (
	Keccak Algorithm = iota + 1
	XOR
)

// Default is the generator used when none is configured.
const Default = Keccak

func (a Algorithm) String() string {
	switch a {
	case Keccak:
		return "keccak"
	case XOR:
		return "xor"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Valid reports whether a names a supported generator.
func (a Algorithm) Valid() bool {
	return a == Keccak || a == XOR
}

// Parse returns the generator with the given header name.
func Parse(name string) (Algorithm, error) {
	switch name {
	case "keccak":
		return Keccak, nil
	case "xor":
		return XOR, nil
	default:
		return 0, fmt.Errorf("%w: unknown whitener %q", fault.ErrConfig, name)
	}
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: cannot encode whitener %d", fault.ErrConfig, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

var keccakDomain = []byte("hypercube.whiten.keccak.v1")

// Whitener produces per-fragment keystreams. It is safe for concurrent
// use; it holds only the algorithm and a borrowed key.
type Whitener struct {
	algorithm Algorithm
	key       []byte
	workers   int
}

// New returns a whitener for key. The key slice is borrowed and must
// stay valid while the whitener is in use.
func New(algorithm Algorithm, key []byte, workers int) (*Whitener, error) {
	if !algorithm.Valid() {
		return nil, fmt.Errorf("%w: unsupported whitener %s", fault.ErrConfig, algorithm)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("whiten: key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Whitener{algorithm: algorithm, key: key, workers: workers}, nil
}

// XORKeyStream XORs data in place with the keystream for index.
func (w *Whitener) XORKeyStream(index uint64, data []byte) {
	switch w.algorithm {
	case Keccak:
		var prefix [8]byte
		binary.LittleEndian.PutUint64(prefix[:], index)
		shake := sha3.NewShake256()
		shake.Write(keccakDomain)
		shake.Write(w.key)
		shake.Write(prefix[:])
		stream := make([]byte, len(data))
		shake.Read(stream)
		for i := range data {
			data[i] ^= stream[i]
		}
	case XOR:
		var nonce [chacha20.NonceSize]byte
		binary.LittleEndian.PutUint64(nonce[:], index)
		cipher, err := chacha20.NewUnauthenticatedCipher(w.key, nonce[:])
		if err != nil {
			panic("whiten: ChaCha20 initialization failed: " + err.Error())
		}
		cipher.XORKeyStream(data, data)
	}
}

// Apply whitens (or unwhitens) every fragment in place. Fragment i
// uses keystream index i.
func (w *Whitener) Apply(fragments [][]byte) {
	parallel.For(len(fragments), w.workers, func(start, end int) {
		for i := start; i < end; i++ {
			w.XORKeyStream(uint64(i), fragments[i])
		}
	})
}

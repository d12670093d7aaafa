// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockmac authenticates block records. A tag covers the
// 16-byte sequence counter and the transformed payload, and is the
// only thing that ties a block to a compartment.
//
// Tags are mac_bits/8 bytes (128, 256 or 512 bits) under one of three
// constructions:
//
//   - sha3: HMAC-SHA3-512
//   - sha256: HMAC-SHA256, expanded in counter mode beyond 32 bytes
//   - blake3: keyed BLAKE3 with extendable output
//
// The HMAC constructions run in counter mode until the tag is full;
// BLAKE3 reads the tag straight from its XOF. Tags are never padded.
package blockmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

// KeySize is the length of a MAC key.
const KeySize = 32

// Hash identifies the MAC construction in the container header. The
// zero value means "unspecified".
type Hash uint8

const (
	SHA3 Hash = iota + 1
	BLAKE3
	SHA256
)

// Default is the construction used when none is configured.
const Default = SHA3

// DefaultBits is the tag length used when none is configured.
const DefaultBits = 256

func (h Hash) String() string {
	switch h {
	case SHA3:
		return "sha3"
	case BLAKE3:
		return "blake3"
	case SHA256:
		return "sha256"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(h))
	}
}

// Valid reports whether h names a supported construction.
func (h Hash) Valid() bool {
	return h == SHA3 || h == BLAKE3 || h == SHA256
}

// Parse returns the construction with the given header name.
func Parse(name string) (Hash, error) {
	switch name {
	case "sha3":
		return SHA3, nil
	case "blake3":
		return BLAKE3, nil
	case "sha256":
		return SHA256, nil
	default:
		return 0, fmt.Errorf("%w: unknown hash %q", fault.ErrConfig, name)
	}
}

func (h Hash) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: cannot encode hash %d", fault.ErrConfig, uint8(h))
	}
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ValidBits reports whether bits is a supported tag length.
func ValidBits(bits int) bool {
	return bits == 128 || bits == 256 || bits == 512
}

// Authenticator computes and checks tags under one key. It is safe for
// concurrent use.
type Authenticator struct {
	hash Hash
	key  []byte
	size int
}

// New returns an authenticator producing macBits-bit tags. The key
// slice is borrowed.
func New(hash Hash, key []byte, macBits int) (*Authenticator, error) {
	if !hash.Valid() {
		return nil, fmt.Errorf("%w: unsupported hash %s", fault.ErrConfig, hash)
	}
	if !ValidBits(macBits) {
		return nil, fmt.Errorf("%w: mac_bits %d not in {128,256,512}", fault.ErrConfig, macBits)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("blockmac: key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Authenticator{hash: hash, key: key, size: macBits / 8}, nil
}

// Size is the tag length in bytes.
func (a *Authenticator) Size() int {
	return a.size
}

// Sum returns the tag for sequence ‖ payload.
func (a *Authenticator) Sum(sequence, payload []byte) []byte {
	tag := make([]byte, a.size)

	if a.hash == BLAKE3 {
		hasher, err := blake3.NewKeyed(a.key)
		if err != nil {
			panic("blockmac: BLAKE3 keyed hash initialization failed: " + err.Error())
		}
		hasher.Write(sequence)
		hasher.Write(payload)
		hasher.Digest().Read(tag)
		return tag
	}

	// HMAC(key, counter ‖ sequence ‖ payload) for counter = 1, 2, ...
	// until the tag is full.
	var constructor func() hash.Hash
	if a.hash == SHA3 {
		constructor = sha3.New512
	} else {
		constructor = sha256.New
	}
	mac := hmac.New(constructor, a.key)
	var digest []byte
	for counter, filled := byte(1), 0; filled < a.size; counter++ {
		mac.Reset()
		mac.Write([]byte{counter})
		mac.Write(sequence)
		mac.Write(payload)
		digest = mac.Sum(digest[:0])
		filled += copy(tag[filled:], digest)
	}
	return tag
}

// Verify reports whether tag authenticates sequence ‖ payload. The
// comparison is constant-time.
func (a *Authenticator) Verify(sequence, payload, tag []byte) bool {
	if len(tag) != a.size {
		return false
	}
	return hmac.Equal(a.Sum(sequence, payload), tag)
}

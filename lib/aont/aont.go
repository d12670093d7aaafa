// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package aont

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/parallel"
)

const (
	// KeySize is the length of the AONT key and of the combined key
	// stored in the package.
	KeySize = 32

	// MinPackageSize is the smallest package: the masked key plus a
	// 32-byte check value.
	MinPackageSize = 2 * KeySize
)

// Variant identifies the transform in the container header. The zero
// value means "unspecified".
type Variant uint8

const (
	Rivest Variant = iota + 1
	OAEP
)

// Default is the variant used when none is configured.
const Default = Rivest

func (v Variant) String() string {
	switch v {
	case Rivest:
		return "rivest"
	case OAEP:
		return "oaep"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// Valid reports whether v names a supported variant.
func (v Variant) Valid() bool {
	return v == Rivest || v == OAEP
}

// Parse returns the variant with the given header name.
func Parse(name string) (Variant, error) {
	switch name {
	case "rivest":
		return Rivest, nil
	case "oaep":
		return OAEP, nil
	default:
		return 0, fmt.Errorf("%w: unknown aont variant %q", fault.ErrConfig, name)
	}
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: cannot encode aont variant %d", fault.ErrConfig, uint8(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Domain labels. Each hash and keystream use is separated so no two
// roles ever share input.
var (
	rivestKeyDomain    = []byte("hypercube.aont.rivest.key")
	rivestBlockDomain  = []byte("hypercube.aont.rivest.block")
	rivestStreamDomain = []byte("hypercube.aont.rivest.stream")
	rivestCheckDomain  = []byte("hypercube.aont.rivest.check")
	oaepSeedDomain     = []byte("hypercube.aont.oaep.seed")
	oaepMaskDomain     = []byte("hypercube.aont.oaep.mask")
	oaepStreamDomain   = []byte("hypercube.aont.oaep.stream")
	oaepCheckDomain    = []byte("hypercube.aont.oaep.check")
)

// Transform applies one AONT variant under a fixed key.
type Transform struct {
	variant Variant
	key     []byte
	workers int
}

// New returns a transform for key. The key slice is borrowed.
func New(variant Variant, key []byte, workers int) (*Transform, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("%w: unsupported aont variant %s", fault.ErrConfig, variant)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("aont: key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Transform{variant: variant, key: key, workers: workers}, nil
}

// Forward transforms fragments in place and fills pkg, which must be
// at least [MinPackageSize] bytes.
func (t *Transform) Forward(fragments [][]byte, pkg []byte) error {
	if len(pkg) < MinPackageSize {
		return fmt.Errorf("aont: package of %d bytes, need at least %d", len(pkg), MinPackageSize)
	}
	switch t.variant {
	case Rivest:
		combined := t.digest(rivestKeyDomain, fragments)
		t.mask(combined[:], rivestStreamDomain, fragments)
		blocks := t.blockDigest(fragments)
		subtle.XORBytes(pkg[:KeySize], combined[:], blocks[:])
		expand(combined[:], rivestCheckDomain, 0, pkg[KeySize:])
	case OAEP:
		seed := t.digest(oaepSeedDomain, fragments)
		t.mask(seed[:], oaepStreamDomain, fragments)
		masked := t.digest(oaepMaskDomain, fragments)
		subtle.XORBytes(pkg[:KeySize], seed[:], masked[:])
		expand(seed[:], oaepCheckDomain, 0, pkg[KeySize:])
	}
	return nil
}

// Inverse restores fragments in place from their transformed form and
// pkg. Any missing, extra or modified byte yields ErrAONTIntegrity;
// the fragment contents are then undefined.
func (t *Transform) Inverse(fragments [][]byte, pkg []byte) error {
	if len(pkg) < MinPackageSize {
		return fmt.Errorf("%w: package of %d bytes", fault.ErrAONTIntegrity, len(pkg))
	}
	var (
		recovered    [KeySize]byte
		keyDomain    []byte
		streamDomain []byte
		checkDomain  []byte
	)
	switch t.variant {
	case Rivest:
		blocks := t.blockDigest(fragments)
		subtle.XORBytes(recovered[:], pkg[:KeySize], blocks[:])
		keyDomain, streamDomain, checkDomain = rivestKeyDomain, rivestStreamDomain, rivestCheckDomain
	case OAEP:
		masked := t.digest(oaepMaskDomain, fragments)
		subtle.XORBytes(recovered[:], pkg[:KeySize], masked[:])
		keyDomain, streamDomain, checkDomain = oaepSeedDomain, oaepStreamDomain, oaepCheckDomain
	}

	check := make([]byte, len(pkg)-KeySize)
	expand(recovered[:], checkDomain, 0, check)
	if subtle.ConstantTimeCompare(check, pkg[KeySize:]) != 1 {
		return fmt.Errorf("%w: package check value", fault.ErrAONTIntegrity)
	}

	t.mask(recovered[:], streamDomain, fragments)

	recomputed := t.digest(keyDomain, fragments)
	if subtle.ConstantTimeCompare(recomputed[:], recovered[:]) != 1 {
		return fmt.Errorf("%w: recovered key does not match content", fault.ErrAONTIntegrity)
	}
	return nil
}

// digest hashes the fragment count and every fragment under the AONT
// key.
func (t *Transform) digest(domain []byte, fragments [][]byte) [KeySize]byte {
	hasher := t.hasher()
	hasher.Write(domain)
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(fragments)))
	hasher.Write(count[:])
	for _, fragment := range fragments {
		hasher.Write(fragment)
	}
	var sum [KeySize]byte
	hasher.Sum(sum[:0])
	return sum
}

// blockDigest is the XOR over i of H(i ‖ fragment_i). XOR commutes,
// so per-chunk partial results combine to the same value however the
// range is split.
func (t *Transform) blockDigest(fragments [][]byte) [KeySize]byte {
	type partial struct {
		start int
		sum   [KeySize]byte
	}
	results := make(chan partial, len(fragments))
	parallel.For(len(fragments), t.workers, func(start, end int) {
		var accumulated [KeySize]byte
		var sum [KeySize]byte
		var index [8]byte
		for i := start; i < end; i++ {
			hasher := t.hasher()
			hasher.Write(rivestBlockDomain)
			binary.LittleEndian.PutUint64(index[:], uint64(i))
			hasher.Write(index[:])
			hasher.Write(fragments[i])
			hasher.Sum(sum[:0])
			subtle.XORBytes(accumulated[:], accumulated[:], sum[:])
		}
		results <- partial{start: start, sum: accumulated}
	})
	close(results)

	var total [KeySize]byte
	for result := range results {
		subtle.XORBytes(total[:], total[:], result.sum[:])
	}
	return total
}

// mask XORs every fragment with the keystream for its index.
func (t *Transform) mask(key, domain []byte, fragments [][]byte) {
	parallel.For(len(fragments), t.workers, func(start, end int) {
		stream := make([]byte, 0)
		for i := start; i < end; i++ {
			if cap(stream) < len(fragments[i]) {
				stream = make([]byte, len(fragments[i]))
			}
			stream = stream[:len(fragments[i])]
			expand(key, domain, uint64(i)+1, stream)
			subtle.XORBytes(fragments[i], fragments[i], stream)
		}
	})
}

func (t *Transform) hasher() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(t.key)
	if err != nil {
		panic("aont: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// expand fills out with the BLAKE3 XOF of (domain ‖ index) keyed with key.
func expand(key, domain []byte, index uint64, out []byte) {
	hasher, err := blake3.NewKeyed(key)
	if err != nil {
		panic("aont: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(domain)
	var encoded [8]byte
	binary.LittleEndian.PutUint64(encoded[:], index)
	hasher.Write(encoded[:])
	hasher.Digest().Read(out)
}

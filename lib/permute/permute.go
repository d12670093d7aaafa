// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package permute

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

// SeedSize is the length of a permutation seed.
const SeedSize = 32

// Algorithm identifies the permutation construction in the container
// header. The zero value means "unspecified".
type Algorithm uint8

const (
	Feistel Algorithm = iota + 1
	FisherYates
)

// Default is the permutation used when none is configured.
const Default = Feistel

func (a Algorithm) String() string {
	switch a {
	case Feistel:
		return "feistel"
	case FisherYates:
		return "fisher-yates"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Valid reports whether a names a supported construction.
func (a Algorithm) Valid() bool {
	return a == Feistel || a == FisherYates
}

// Parse returns the algorithm with the given header name.
func Parse(name string) (Algorithm, error) {
	switch name {
	case "feistel":
		return Feistel, nil
	case "fisher-yates":
		return FisherYates, nil
	default:
		return 0, fmt.Errorf("%w: unknown shuffle %q", fault.ErrConfig, name)
	}
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: cannot encode shuffle %d", fault.ErrConfig, uint8(a))
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

// Permutation is a bijection over [0, Len()).
type Permutation struct {
	forward []int
	inverse []int
}

// New builds the permutation of n indices selected by algorithm and
// seed. workers bounds the goroutines used for table generation.
func New(algorithm Algorithm, seed []byte, n, workers int) (*Permutation, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("permute: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	if n < 0 {
		return nil, fmt.Errorf("permute: negative count %d", n)
	}
	switch algorithm {
	case Feistel:
		return newFeistel(seed, n, workers), nil
	case FisherYates:
		return newFisherYates(seed, n), nil
	default:
		return nil, fmt.Errorf("%w: unsupported shuffle %s", fault.ErrConfig, algorithm)
	}
}

// Len returns the size of the permuted range.
func (p *Permutation) Len() int {
	return len(p.forward)
}

// Forward returns the position index i moves to.
func (p *Permutation) Forward(i int) int {
	return p.forward[i]
}

// Inverse returns the index that moves to position j.
func (p *Permutation) Inverse(j int) int {
	return p.inverse[j]
}

// Apply returns items reordered so that items[i] lands at Forward(i).
func Apply[T any](p *Permutation, items []T) ([]T, error) {
	if len(items) != p.Len() {
		return nil, fmt.Errorf("permute: %d items for a permutation of %d", len(items), p.Len())
	}
	output := make([]T, len(items))
	for i, item := range items {
		output[p.forward[i]] = item
	}
	return output, nil
}

// Invert undoes Apply using the independently computed inverse table.
func Invert[T any](p *Permutation, items []T) ([]T, error) {
	if len(items) != p.Len() {
		return nil, fmt.Errorf("permute: %d items for a permutation of %d", len(items), p.Len())
	}
	output := make([]T, len(items))
	for j, item := range items {
		output[p.inverse[j]] = item
	}
	return output, nil
}

func invertTable(table []int) []int {
	inverse := make([]int, len(table))
	for i, j := range table {
		inverse[j] = i
	}
	return inverse
}

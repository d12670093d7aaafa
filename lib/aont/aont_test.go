// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package aont

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

var variants = []Variant{Rivest, OAEP}

func testKey(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, KeySize)
}

func testFragments(count, size int) [][]byte {
	fragments := make([][]byte, count)
	for i := range fragments {
		fragments[i] = make([]byte, size)
		for j := range fragments[i] {
			fragments[i][j] = byte(i*31 + j)
		}
	}
	return fragments
}

func cloneAll(in [][]byte) [][]byte {
	out := make([][]byte, len(in))
	for i := range in {
		out[i] = bytes.Clone(in[i])
	}
	return out
}

func forward(t *testing.T, variant Variant, fragments [][]byte, packageSize int) ([][]byte, []byte) {
	t.Helper()
	transform, err := New(variant, testKey(4), 0)
	if err != nil {
		t.Fatal(err)
	}
	transformed := cloneAll(fragments)
	pkg := make([]byte, packageSize)
	if err := transform.Forward(transformed, pkg); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	return transformed, pkg
}

func inverse(variant Variant, fragments [][]byte, pkg []byte) error {
	transform, err := New(variant, testKey(4), 0)
	if err != nil {
		return err
	}
	return transform.Inverse(fragments, pkg)
}

func TestRoundTrip(t *testing.T) {
	for _, variant := range variants {
		for _, shape := range [][2]int{{1, 1}, {7, 1}, {100, 16}, {513, 4}} {
			original := testFragments(shape[0], shape[1])
			transformed, pkg := forward(t, variant, original, 64)

			for i := range original {
				if len(original[i]) >= 4 && bytes.Equal(original[i], transformed[i]) {
					t.Errorf("%s %v: fragment %d unchanged by transform", variant, shape, i)
				}
			}
			if err := inverse(variant, transformed, pkg); err != nil {
				t.Fatalf("%s %v: Inverse: %v", variant, shape, err)
			}
			for i := range original {
				if !bytes.Equal(original[i], transformed[i]) {
					t.Fatalf("%s %v: fragment %d not restored", variant, shape, i)
				}
			}
		}
	}
}

func TestForward_Deterministic(t *testing.T) {
	for _, variant := range variants {
		first, firstPackage := forward(t, variant, testFragments(20, 8), 128)
		second, secondPackage := forward(t, variant, testFragments(20, 8), 128)
		if !bytes.Equal(firstPackage, secondPackage) {
			t.Errorf("%s: packages differ for identical input", variant)
		}
		for i := range first {
			if !bytes.Equal(first[i], second[i]) {
				t.Fatalf("%s: fragment %d differs for identical input", variant, i)
			}
		}
	}
}

// Every single-bit flip, in any fragment or in the package, must
// prevent recovery of the whole set.
func TestInverse_AnyBitFlipFails(t *testing.T) {
	for _, variant := range variants {
		original := testFragments(6, 4)
		transformed, pkg := forward(t, variant, original, 64)

		for fragment := range transformed {
			for bit := range len(transformed[fragment]) * 8 {
				tampered := cloneAll(transformed)
				tampered[fragment][bit/8] ^= 1 << (bit % 8)
				err := inverse(variant, tampered, bytes.Clone(pkg))
				if !errors.Is(err, fault.ErrAONTIntegrity) {
					t.Fatalf("%s: flip fragment %d bit %d: error = %v", variant, fragment, bit, err)
				}
			}
		}
		for bit := range len(pkg) * 8 {
			tamperedPackage := bytes.Clone(pkg)
			tamperedPackage[bit/8] ^= 1 << (bit % 8)
			err := inverse(variant, cloneAll(transformed), tamperedPackage)
			if !errors.Is(err, fault.ErrAONTIntegrity) {
				t.Fatalf("%s: flip package bit %d: error = %v", variant, bit, err)
			}
		}
	}
}

func TestInverse_MissingOrReorderedFragment(t *testing.T) {
	for _, variant := range variants {
		transformed, pkg := forward(t, variant, testFragments(10, 8), 64)

		missing := cloneAll(transformed[:9])
		if err := inverse(variant, missing, bytes.Clone(pkg)); !errors.Is(err, fault.ErrAONTIntegrity) {
			t.Errorf("%s: missing fragment error = %v", variant, err)
		}

		swapped := cloneAll(transformed)
		swapped[2], swapped[7] = swapped[7], swapped[2]
		if err := inverse(variant, swapped, bytes.Clone(pkg)); !errors.Is(err, fault.ErrAONTIntegrity) {
			t.Errorf("%s: swapped fragments error = %v", variant, err)
		}
	}
}

func TestInverse_WrongKey(t *testing.T) {
	for _, variant := range variants {
		transformed, pkg := forward(t, variant, testFragments(10, 8), 64)
		other, _ := New(variant, testKey(5), 0)
		if err := other.Inverse(transformed, pkg); !errors.Is(err, fault.ErrAONTIntegrity) {
			t.Errorf("%s: wrong key error = %v", variant, err)
		}
	}
}

func TestPackageLooksRandom(t *testing.T) {
	// A zero payload must still yield a package with no long zero runs.
	zeros := make([][]byte, 64)
	for i := range zeros {
		zeros[i] = make([]byte, 16)
	}
	for _, variant := range variants {
		_, pkg := forward(t, variant, zeros, 256)
		if bytes.Contains(pkg, make([]byte, 8)) {
			t.Errorf("%s: package contains an 8-byte zero run", variant)
		}
	}
}

func TestForward_PackageTooSmall(t *testing.T) {
	transform, _ := New(Rivest, testKey(1), 0)
	if err := transform.Forward(testFragments(2, 2), make([]byte, MinPackageSize-1)); err == nil {
		t.Fatal("undersized package accepted")
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cube

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

func TestRequiredBlockSize(t *testing.T) {
	tests := []struct {
		stream, blocks, want int
	}{
		{5120, 32, 160},
		{5121, 32, 161},
		{1, 32, 1},
		{0, 32, 1},
		{4096, 64, 64},
	}
	for _, test := range tests {
		if got := RequiredBlockSize(test.stream, test.blocks); got != test.want {
			t.Errorf("RequiredBlockSize(%d, %d) = %d, want %d", test.stream, test.blocks, got, test.want)
		}
	}
}

func TestRecordSize_Preset1MAC256(t *testing.T) {
	if got := RecordSize(160, 256); got != 16+160+32 {
		t.Errorf("RecordSize(160, 256) = %d, want %d", got, 16+160+32)
	}
}

func TestFragmentSize(t *testing.T) {
	tests := []struct {
		blockSize, want int
	}{
		{1, 1},
		{7, 1},
		{17, 1},
		{18, 2},
		{160, 16},
		{161, 1},
		{162, 2},
		{4096, 256},
		{1 << 20, 256},
	}
	for _, test := range tests {
		got := FragmentSize(test.blockSize)
		if got != test.want {
			t.Errorf("FragmentSize(%d) = %d, want %d", test.blockSize, got, test.want)
		}
		if test.blockSize%got != 0 {
			t.Errorf("FragmentSize(%d) = %d does not divide the block", test.blockSize, got)
		}
	}
}

func TestFit(t *testing.T) {
	for _, dimension := range []int{MinDimension, 3, 16, 32, 61, 64, 255} {
		for _, data := range []int{MetadataSize, 100, 5120, 70000} {
			layout, err := Fit(data, dimension)
			if err != nil {
				t.Fatalf("Fit(%d, %d): %v", data, dimension, err)
			}
			if layout.DataCapacity() < data {
				t.Errorf("Fit(%d, %d) data region %d too small", data, dimension, layout.DataCapacity())
			}
			if layout.BlockSize > 1 {
				smaller, err := NewLayout(layout.BlockSize-1, dimension)
				if err == nil && smaller.DataCapacity() >= data {
					t.Errorf("Fit(%d, %d) = %d bytes, but %d also fits", data, dimension, layout.BlockSize, layout.BlockSize-1)
				}
			}
			if layout.DataFragments()+layout.PackageFragments() != layout.Fragments() {
				t.Errorf("Fit(%d, %d) fragment accounting off: %+v", data, dimension, layout)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	preset, err := Resolve(0, 0)
	if err != nil {
		t.Fatalf("Resolve(0, 0): %v", err)
	}
	if preset.ID != 1 || preset.Capacity() != 1024 {
		t.Errorf("default preset = %+v", preset)
	}

	custom, err := Resolve(1, 5)
	if err != nil {
		t.Fatalf("Resolve(1, 5): %v", err)
	}
	if custom.ID != 0 || custom.Capacity() != 25 {
		t.Errorf("custom = %+v", custom)
	}

	for _, bad := range [][2]int{{99, 0}, {0, 1}, {0, MaxDimension + 1}} {
		if _, err := Resolve(bad[0], bad[1]); !errors.Is(err, fault.ErrConfig) {
			t.Errorf("Resolve(%d, %d) error = %v, want ErrConfig", bad[0], bad[1], err)
		}
	}
}

func TestPlan(t *testing.T) {
	preset, _ := Lookup(1)

	report, err := Plan(preset, 10000, 5120-MetadataSize, 0, 256)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if report.StreamSize != 5120 {
		t.Errorf("StreamSize = %d, want 5120", report.StreamSize)
	}
	if report.Layout.BlockSize < 160 {
		t.Errorf("BlockSize = %d, want at least 160", report.Layout.BlockSize)
	}
	if report.RecordSize != 16+report.Layout.BlockSize+32 {
		t.Errorf("RecordSize = %d", report.RecordSize)
	}
	if report.Headroom < 0 {
		t.Errorf("Headroom = %d", report.Headroom)
	}

	// Reusing a fixed block size that is too small is a capacity error.
	if _, err := Plan(preset, 10000, 5120, 160, 256); !errors.Is(err, fault.ErrCapacityExceeded) {
		t.Errorf("fixed-size Plan error = %v, want ErrCapacityExceeded", err)
	}
}

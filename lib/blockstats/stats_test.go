// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockstats

import (
	"bytes"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

func summarize(data []byte) Summary {
	var accumulator Accumulator
	accumulator.Write(data)
	return accumulator.Summary()
}

func TestSummary_Extremes(t *testing.T) {
	zeros := summarize(make([]byte, 4096))
	if zeros.Entropy != 0 || zeros.Mean != 0 || zeros.MonobitRatio != 0 {
		t.Errorf("all zeros: entropy %v mean %v monobit %v", zeros.Entropy, zeros.Mean, zeros.MonobitRatio)
	}
	if zeros.PValue > 1e-10 {
		t.Errorf("all zeros: p-value %v, want ~0", zeros.PValue)
	}
	if zeros.LooksUniform() {
		t.Error("all zeros looks uniform")
	}

	ramp := make([]byte, 256*16)
	for i := range ramp {
		ramp[i] = byte(i)
	}
	flat := summarize(ramp)
	if math.Abs(flat.Entropy-8) > 1e-9 {
		t.Errorf("ramp entropy = %v, want 8", flat.Entropy)
	}
	if flat.ChiSquare != 0 || flat.PValue != 1 {
		t.Errorf("ramp chi-square %v p %v, want 0 and 1", flat.ChiSquare, flat.PValue)
	}
	if flat.Mean != 127.5 || flat.MonobitRatio != 0.5 {
		t.Errorf("ramp mean %v monobit %v", flat.Mean, flat.MonobitRatio)
	}
	// A ramp is perfectly uniform in distribution but strongly
	// serially correlated.
	if flat.SerialCorrelation < 0.9 {
		t.Errorf("ramp serial correlation = %v, want near 1", flat.SerialCorrelation)
	}
}

func TestSummary_PseudorandomLooksUniform(t *testing.T) {
	generator := rand.New(rand.NewChaCha8([32]byte{7}))
	data := make([]byte, 1<<16)
	for i := range data {
		data[i] = byte(generator.Uint32())
	}
	summary := summarize(data)
	if !summary.LooksUniform() {
		t.Errorf("ChaCha8 output fails: entropy %v p %v", summary.Entropy, summary.PValue)
	}
	if math.Abs(summary.Mean-127.5) > 2 {
		t.Errorf("mean = %v, want about 127.5", summary.Mean)
	}
	if math.Abs(summary.SerialCorrelation) > 0.02 {
		t.Errorf("serial correlation = %v, want about 0", summary.SerialCorrelation)
	}
	if math.Abs(summary.MonobitRatio-0.5) > 0.01 {
		t.Errorf("monobit = %v, want about 0.5", summary.MonobitRatio)
	}
}

func TestSummary_IncrementalMatchesWhole(t *testing.T) {
	data := bytes.Repeat([]byte("incremental writes "), 50)
	whole := summarize(data)

	var pieces Accumulator
	for chunk := range slices.Chunk(data, 7) {
		pieces.Write(chunk)
	}
	if got := pieces.Summary(); got != whole {
		t.Errorf("chunked summary %+v differs from whole %+v", got, whole)
	}
}

func TestUpperGamma(t *testing.T) {
	// Chi-square survival with 2 degrees of freedom is exp(-x/2).
	for _, x := range []float64{0.5, 1, 3, 10} {
		got := upperGamma(1, x/2)
		want := math.Exp(-x / 2)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Q(1, %v) = %v, want %v", x/2, got, want)
		}
	}
	// The median of chi-square with 255 degrees of freedom is near
	// 254.3.
	if p := upperGamma(127.5, 254.3/2); math.Abs(p-0.5) > 0.01 {
		t.Errorf("p-value at the 255-dof median = %v, want about 0.5", p)
	}
	if upperGamma(3, 0) != 1 {
		t.Error("Q(s, 0) != 1")
	}
}

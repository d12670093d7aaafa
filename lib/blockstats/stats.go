// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockstats

import (
	"math"
	"math/bits"
)

// Summary is the result of one accumulation.
type Summary struct {
	Bytes int64 `json:"bytes"`

	// Entropy is Shannon entropy in bits per byte, 0 to 8.
	Entropy float64 `json:"entropy"`

	// ChiSquare is Pearson's statistic over 256 byte values, 255
	// degrees of freedom. PValue is the probability a uniform source
	// exceeds it.
	ChiSquare float64 `json:"chi_square"`
	PValue    float64 `json:"p_value"`

	// Mean is the arithmetic mean byte value; 127.5 for uniform data.
	Mean float64 `json:"mean"`

	// SerialCorrelation is the correlation of each byte with its
	// successor, wrapping at the end. Near zero for uniform data.
	SerialCorrelation float64 `json:"serial_correlation"`

	// MonobitRatio is the fraction of set bits; 0.5 for uniform data.
	MonobitRatio float64 `json:"monobit_ratio"`
}

// Thresholds for [Summary.LooksUniform].
const (
	MinimumEntropy = 7.5
	MinimumPValue  = 0.001
)

// LooksUniform reports whether the summary passes the entropy and
// chi-square thresholds.
func (s Summary) LooksUniform() bool {
	return s.Entropy > MinimumEntropy && s.PValue > MinimumPValue
}

// Accumulator gathers byte statistics incrementally. The zero value is
// ready to use. It implements io.Writer.
type Accumulator struct {
	counts [256]int64
	total  int64
	ones   int64

	first, previous byte
	sum, sumSquares float64
	sumProducts     float64
}

// Write adds p to the accumulation. It never fails.
func (a *Accumulator) Write(p []byte) (int, error) {
	for _, value := range p {
		v := float64(value)
		if a.total == 0 {
			a.first = value
		} else {
			a.sumProducts += float64(a.previous) * v
		}
		a.counts[value]++
		a.ones += int64(bits.OnesCount8(value))
		a.sum += v
		a.sumSquares += v * v
		a.previous = value
		a.total++
	}
	return len(p), nil
}

// Summary computes the statistics over everything written so far.
func (a *Accumulator) Summary() Summary {
	summary := Summary{Bytes: a.total}
	if a.total == 0 {
		return summary
	}
	n := float64(a.total)

	expected := n / 256
	for _, count := range a.counts {
		if count > 0 {
			probability := float64(count) / n
			summary.Entropy -= probability * math.Log2(probability)
		}
		delta := float64(count) - expected
		summary.ChiSquare += delta * delta / expected
	}
	summary.PValue = upperGamma(255.0/2, summary.ChiSquare/2)
	summary.Mean = a.sum / n
	summary.MonobitRatio = float64(a.ones) / (n * 8)

	products := a.sumProducts + float64(a.previous)*float64(a.first)
	denominator := n*a.sumSquares - a.sum*a.sum
	if denominator != 0 {
		summary.SerialCorrelation = (n*products - a.sum*a.sum) / denominator
	}
	return summary
}

// upperGamma is the regularized upper incomplete gamma function
// Q(s, x), the chi-square survival function at 2x with 2s degrees of
// freedom.
func upperGamma(s, x float64) float64 {
	if x <= 0 {
		return 1
	}
	if x < s+1 {
		return 1 - lowerGammaSeries(s, x)
	}
	return upperGammaFraction(s, x)
}

const (
	gammaIterations = 500
	gammaEpsilon    = 1e-15
	gammaTiny       = 1e-300
)

// lowerGammaSeries evaluates P(s, x) by its power series.
func lowerGammaSeries(s, x float64) float64 {
	logGamma, _ := math.Lgamma(s)
	term := 1 / s
	sum := term
	for n := 1; n < gammaIterations; n++ {
		term *= x / (s + float64(n))
		sum += term
		if math.Abs(term) < math.Abs(sum)*gammaEpsilon {
			break
		}
	}
	return sum * math.Exp(-x+s*math.Log(x)-logGamma)
}

// upperGammaFraction evaluates Q(s, x) by its continued fraction with
// the modified Lentz method.
func upperGammaFraction(s, x float64) float64 {
	logGamma, _ := math.Lgamma(s)
	b := x + 1 - s
	c := 1 / gammaTiny
	d := 1 / b
	h := d
	for i := 1; i < gammaIterations; i++ {
		an := -float64(i) * (float64(i) - s)
		b += 2
		d = an*d + b
		if math.Abs(d) < gammaTiny {
			d = gammaTiny
		}
		c = b + an/c
		if math.Abs(c) < gammaTiny {
			c = gammaTiny
		}
		d = 1 / d
		delta := d * c
		h *= delta
		if math.Abs(delta-1) < gammaEpsilon {
			break
		}
	}
	return math.Exp(-x+s*math.Log(x)-logGamma) * h
}

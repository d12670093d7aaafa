// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockstats measures how random a container's blocks look.
//
// It reads a container through [hypercube.LoadHeader] and
// [hypercube.IterateBlocks] only and never sees a secret. The measures
// follow the classic ent battery: Shannon entropy per byte, Pearson
// chi-square against a uniform byte distribution with its p-value,
// arithmetic mean, serial correlation between adjacent bytes and the
// ratio of one bits.
//
// A container whose compartments are working as intended should be
// indistinguishable from one holding only chaff under every measure.
package blockstats

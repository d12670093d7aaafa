// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cube derives container geometry: how many compartments a
// container holds, how many blocks make up one compartment, how large
// each block payload is, and how block payloads divide into fragments.
//
// A cube of dimension N holds N compartments of N blocks each, N·N
// blocks in total. The block payload size is chosen once, by the first
// compartment added, and every later compartment reuses it.
//
// Sizing is pure arithmetic. [Plan] and [Analyze] never touch a file,
// so callers can preview a payload's footprint before writing anything.
package cube

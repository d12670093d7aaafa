// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hypercube is the entry point for deniable multi-compartment
// containers.
//
// A container is one file holding a header and an unordered soup of
// fixed-size blocks. Each [Cube.Add] encodes a payload under a secret
// into one compartment's worth of blocks, appends them and reshuffles
// the whole file. [Cube.Extract] scans every block, keeps those that
// authenticate under the secret and reassembles the payload.
// [Cube.Seal] pads the container with random chaff blocks that no
// secret authenticates.
//
// Nothing in the file records which blocks belong together or how many
// compartments exist. Callers must serialize writers to one file; the
// package does no locking.
//
// The error sentinels re-exported here are the complete failure
// taxonomy. Use errors.Is against them and errors.As with
// [*compartment.ExtractionError] for stage detail.
package hypercube

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compartment turns one payload into one compartment's blocks
// and back.
//
// Encoding runs a fixed nine-stage pipeline:
//
//	compress → metadata → segment → fragment → shuffle → whiten → aont → sequence → authenticate
//
// Only the algorithm inside a stage varies with the container header.
// A "none" algorithm still runs as a passthrough, so decoding always
// walks the same stages in reverse and never branches on which ones
// were applied.
//
// Decoding receives every block in the container and no hint which
// belong to the secret. It authenticates each block independently,
// keeps the survivors, orders them by sequence counter and inverts the
// remaining stages. No survivors is
// [fault.ErrWrongSecretOrEmptyCompartment]. Any later failure is an
// [*ExtractionError] naming the stage, which can be suppressed with
// [Options.QuietStages].
//
// All key material is derived from the secret with HKDF on every call
// and released before the call returns. A [Pipeline] holds no state
// between calls beyond the header it was built for.
package compartment

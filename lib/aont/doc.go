// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package aont implements the all-or-nothing transform applied to a
// compartment's whitened fragments.
//
// The transform derives a combined key from every fragment, masks each
// fragment with a keystream seeded by that key and the fragment index,
// and writes a package holding the masked key and a check value. The
// key can only be recovered from the complete, unmodified fragment
// set, so a single flipped bit anywhere makes the whole compartment
// unrecoverable. Inversion failures are reported as
// [fault.ErrAONTIntegrity].
//
// Two variants exist:
//
//   - rivest (default): Rivest's package transform. The combined key K
//     is masked by the XOR of per-fragment hashes of the output.
//   - oaep: a two-round OAEP-style construction. A content-derived
//     seed r masks the fragments and is itself masked by a hash of the
//     whole masked set.
//
// All hashing is BLAKE3 keyed with the compartment's AONT key, and all
// keystreams are BLAKE3 XOF output. The transform is deterministic, so
// encoding the same payload twice yields the same package.
package aont

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package permute builds the keyed fragment permutation of the
// shuffle stage.
//
// A [Permutation] is a bijection over [0, n) regenerated from a 32-byte
// seed every time it is needed. Nothing about it is stored. Two
// constructions are available:
//
//   - feistel (default): a balanced six-round Feistel network over the
//     smallest even bit width covering n, with a keyed BLAKE3 round
//     function. Cycle walking maps the network's power-of-four domain
//     back onto [0, n), so any count works, odd or not. The inverse
//     table is computed by running the rounds backwards.
//   - fisher-yates: a Fisher-Yates shuffle driven by a ChaCha20
//     keystream keyed with the seed, using rejection sampling so every
//     swap index is uniform.
package permute

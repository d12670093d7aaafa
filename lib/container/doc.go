// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package container owns the on-disk block soup: the cleartext header,
// the fixed-size block records, and the store that appends, reshuffles
// and rewrites them.
//
// # File layout
//
//	magic "HCUB" (4 bytes)
//	header length (uint32, little-endian)
//	header (CBOR, Core Deterministic Encoding)
//	record, record, ... to end of file
//
// Each record is sequence (16 bytes) ‖ payload (block_size bytes) ‖
// mac (mac_bits/8 bytes). There is no trailer, no index and no count;
// the number of blocks is the record region's length divided by the
// record size. A partial trailing record is [fault.ErrTruncatedContainer].
//
// # Writes
//
// Every mutation ([Store.Append], [Store.Seal]) rebuilds the full block
// list, shuffles it with a fresh permutation seeded from crypto/rand,
// and replaces the file atomically (temp file, fsync, rename). Block
// order therefore never reflects insertion order. The full rewrite is
// the intended cost of that property; do not replace it with an
// incremental update.
//
// The store does no locking. Callers that may write the same container
// from several processes must serialize those writes themselves.
package container

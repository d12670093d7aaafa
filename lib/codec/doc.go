// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR configuration used for the cleartext
// container header.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Two
// containers built with the same options carry byte-identical headers,
// so the header itself never distinguishes one container from another
// beyond the options it states.
//
// Algorithm identifiers implement encoding.TextMarshaler and are
// written as CBOR text strings ("zstd", "feistel", ...), which keeps
// `hypercube info` output and the on-disk header in the same
// vocabulary.
package codec

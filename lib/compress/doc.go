// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the first pipeline stage: compressing a
// compartment payload before it is prefixed with its metadata record.
//
// Four algorithms are available: zstd (default), lz4 (frame format),
// brotli, and none. "none" is a copying passthrough so that the stage
// always runs and the decoder never branches on whether it did.
// Decompression is told the original size from the metadata record
// and rejects any output that disagrees with it.
package compress

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps compartment secrets and the keys derived from
// them out of the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM and excluded
// from core dumps. Close zeroes and releases it. The garbage collector
// never sees the region, so it cannot leave stale copies behind.
//
// Secrets enter the process through [ReadFromPath] (a file, or stdin
// for "-") or [ReadFromTerminal] (an interactive prompt). Both return
// a Buffer the caller must Close.
package secret

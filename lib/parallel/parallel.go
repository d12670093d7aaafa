// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package parallel splits index ranges across goroutines for the
// pipeline's per-fragment and per-block work.
//
// Every call partitions [0, n) into contiguous chunks and gives each
// chunk to exactly one goroutine. Callers write only to their own
// indices, so output is identical to a sequential loop regardless of
// the worker count.
package parallel

import (
	"runtime"
	"sync"
)

// minChunk keeps tiny ranges on the calling goroutine.
const minChunk = 64

// Workers normalizes a configured worker count: zero or negative
// means GOMAXPROCS.
func Workers(configured int) int {
	if configured <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return configured
}

// For calls fn once per chunk of [0, n), using at most workers
// goroutines, and returns when every chunk has finished.
func For(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	chunks := min(workers, (n+minChunk-1)/minChunk)
	if chunks <= 1 {
		fn(0, n)
		return
	}

	size := (n + chunks - 1) / chunks
	var wg sync.WaitGroup
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault holds the error values shared by every hypercube
// package. Each value names one failure class from the container's
// error taxonomy, so callers compare with [errors.Is] instead of
// matching message text.
//
// Lower layers wrap these sentinels with context:
//
//	return fmt.Errorf("%w: mac_bits %d not in {128,256,512}", fault.ErrConfig, bits)
//
// OS-level failures are wrapped twice so both the class and the
// original cause stay visible:
//
//	return fmt.Errorf("%w: %w", fault.ErrIO, err)
//
// lib/hypercube re-exports every value for callers that only import
// the facade.
package fault

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint computes content digests of container files.
//
// Every write reshuffles the whole container, so two copies that hold
// the same compartments still differ byte for byte once either is
// rewritten. A fingerprint therefore identifies one specific write of
// a container, which is what `hypercube info` reports it for: checking
// that a copied or transferred file is the one that was written.
package fingerprint

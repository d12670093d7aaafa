// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hypercube

import (
	"github.com/bureau-foundation/hypercube/lib/compartment"
	"github.com/bureau-foundation/hypercube/lib/fault"
)

var (
	ErrConfig                        = fault.ErrConfig
	ErrCapacityExceeded              = fault.ErrCapacityExceeded
	ErrCubeFull                      = fault.ErrCubeFull
	ErrGeometryMismatch              = fault.ErrGeometryMismatch
	ErrAONTIntegrity                 = fault.ErrAONTIntegrity
	ErrIntegrityMismatch             = fault.ErrIntegrityMismatch
	ErrWrongSecretOrEmptyCompartment = fault.ErrWrongSecretOrEmptyCompartment
	ErrTruncatedContainer            = fault.ErrTruncatedContainer
	ErrIO                            = fault.ErrIO
)

// ExtractionError is returned by Extract when blocks authenticated but
// the compartment could not be reassembled.
type ExtractionError = compartment.ExtractionError

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import "errors"

// Error classes. Keep in alphabetic order.
var (
	// ErrAONTIntegrity means a block set authenticated under the
	// secret but the all-or-nothing transform could not be inverted:
	// a fragment is missing, duplicated, or modified. Never reported
	// as "not found".
	ErrAONTIntegrity = errors.New("aont integrity failure")

	// ErrCapacityExceeded means the payload does not fit the
	// established geometry, or the cube has no room left.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrConfig means an invalid or unknown header field or option
	// combination.
	ErrConfig = errors.New("invalid configuration")

	// ErrGeometryMismatch means an add requested a geometry that
	// differs from the one fixed by the container header.
	ErrGeometryMismatch = errors.New("geometry mismatch")

	// ErrIntegrityMismatch means the pipeline inverted cleanly but
	// the recovered metadata disagrees with the secret-derived values.
	ErrIntegrityMismatch = errors.New("integrity mismatch")

	// ErrIO wraps operating-system failures reading or writing a
	// container.
	ErrIO = errors.New("i/o failure")

	// ErrTruncatedContainer means the container ends in a partial
	// record or a partial header.
	ErrTruncatedContainer = errors.New("truncated container")

	// ErrWrongSecretOrEmptyCompartment means no block authenticated
	// under the secret. Deliberately does not say which.
	ErrWrongSecretOrEmptyCompartment = errors.New("wrong secret or empty compartment")
)

// ErrCubeFull means appending would exceed the cube's total block
// capacity. It matches [ErrCapacityExceeded] under errors.Is.
var ErrCubeFull = &cubeFullError{}

type cubeFullError struct{}

func (*cubeFullError) Error() string { return "cube full" }

func (*cubeFullError) Unwrap() error { return ErrCapacityExceeded }

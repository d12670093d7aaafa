// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compartment

import "fmt"

// ExtractionError reports a decode failure after at least one block
// authenticated. Err carries the failure class, for example
// fault.ErrAONTIntegrity, for errors.Is.
type ExtractionError struct {
	// Stage is the pipeline stage whose inverse failed. Empty when the
	// pipeline was built with QuietStages.
	Stage Stage
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Stage == "" {
		return "extraction failed"
	}
	return fmt.Sprintf("extraction failed at %s stage: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

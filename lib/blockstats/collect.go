// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockstats

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
)

// Selection restricts which blocks are measured, by file position.
// The zero value selects every block.
type Selection struct {
	Offset int `json:"offset"`
	// Limit caps the number of blocks; 0 means no cap.
	Limit int `json:"limit"`
}

func (s Selection) validate() error {
	if s.Offset < 0 || s.Limit < 0 {
		return fmt.Errorf("%w: negative block selection %d+%d", fault.ErrConfig, s.Offset, s.Limit)
	}
	return nil
}

// Report is the statistics of one container.
type Report struct {
	Header *container.Header `json:"header"`
	Blocks int               `json:"blocks"`

	// Payloads covers the transformed block payloads, MACs the tags
	// and Records the complete records including sequence counters.
	Payloads Summary `json:"payloads"`
	MACs     Summary `json:"macs"`
	Records  Summary `json:"records"`
}

// Collect measures the selected blocks of the container at path.
func Collect(path string, selection Selection) (*Report, error) {
	if err := selection.validate(); err != nil {
		return nil, err
	}
	header, err := hypercube.LoadHeader(path)
	if err != nil {
		return nil, err
	}

	var payloads, macs, records Accumulator
	report := &Report{Header: header}
	position := 0
	for block, err := range hypercube.IterateBlocks(path) {
		if err != nil {
			return nil, err
		}
		index := position
		position++
		if index < selection.Offset {
			continue
		}
		if selection.Limit > 0 && report.Blocks >= selection.Limit {
			break
		}
		payloads.Write(block.Payload)
		macs.Write(block.MAC)
		records.Write(block.Sequence[:])
		records.Write(block.Payload)
		records.Write(block.MAC)
		report.Blocks++
	}

	report.Payloads = payloads.Summary()
	report.MACs = macs.Summary()
	report.Records = records.Summary()
	return report, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hypercube

import (
	"fmt"

	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
)

// Analyze reports how payload would be laid out by Add into an empty
// container with options. It touches no file.
func Analyze(payload []byte, options AddOptions) (*cube.Report, error) {
	options = options.withDefaults()
	if !blockmac.ValidBits(options.MACBits) {
		return nil, fmt.Errorf("%w: mac_bits %d not in {128,256,512}", fault.ErrConfig, options.MACBits)
	}
	preset, err := cube.Resolve(options.Cube, options.Dimension)
	if err != nil {
		return nil, err
	}
	compressed, err := compress.Compress(options.Compression, payload)
	if err != nil {
		return nil, err
	}
	return cube.Plan(preset, len(payload), len(compressed), options.BlockSize, options.MACBits)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hypercube

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/bureau-foundation/hypercube/lib/compartment"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/parallel"
	"github.com/bureau-foundation/hypercube/lib/secret"
)

// Options configures a Cube.
type Options struct {
	// Logger receives operational records. Nil discards them.
	Logger *slog.Logger

	// Workers bounds parallel stage goroutines. Zero means GOMAXPROCS.
	Workers int

	// QuietStages hides the failing stage name in extraction errors.
	QuietStages bool
}

// Cube performs container operations. It holds no per-container state
// and is safe for concurrent use on different files.
type Cube struct {
	logger      *slog.Logger
	workers     int
	quietStages bool
}

// New returns a Cube with options.
func New(options Options) *Cube {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cube{
		logger:      logger,
		workers:     parallel.Workers(options.Workers),
		quietStages: options.QuietStages,
	}
}

// AddResult describes a completed Add.
type AddResult struct {
	// Created is true when this Add wrote the container's header.
	Created bool              `json:"created"`
	Header  *container.Header `json:"header"`

	// Blocks is the number of blocks this compartment occupies.
	Blocks int `json:"blocks"`
	// Stored is the container's block count after the write.
	Stored   int `json:"stored"`
	Capacity int `json:"capacity"`
}

func (c *Cube) pipeline(header *container.Header) (*compartment.Pipeline, error) {
	return compartment.New(header, compartment.Options{
		Logger:      c.logger,
		Workers:     c.workers,
		QuietStages: c.quietStages,
	})
}

// Add encodes payload under secretKey as a new compartment of the
// container at path, creating the file if it does not exist. On any
// error the file is left unchanged.
func (c *Cube) Add(path string, secretKey *secret.Buffer, payload []byte, options AddOptions) (*AddResult, error) {
	store, err := container.Open(path, c.logger)
	if err != nil {
		return nil, err
	}

	created := store.Header() == nil
	if created {
		header, err := c.planHeader(payload, options)
		if err != nil {
			return nil, err
		}
		if err := store.Initialize(header); err != nil {
			return nil, err
		}
	} else if err := checkCompatible(store.Header(), options); err != nil {
		return nil, err
	}
	header := store.Header()

	if store.Remaining() < header.BlocksPerCompartment {
		return nil, fmt.Errorf("%s holds %d of %d blocks, a compartment needs %d: %w",
			path, len(store.Blocks()), header.Capacity(), header.BlocksPerCompartment, fault.ErrCubeFull)
	}

	pipeline, err := c.pipeline(header)
	if err != nil {
		return nil, err
	}

	// Two compartments under one secret would authenticate together
	// and fail extraction.
	if !created {
		matched, err := pipeline.Match(secretKey, store.Blocks())
		if err != nil {
			return nil, err
		}
		if matched > 0 {
			return nil, fmt.Errorf("%w: secret already authenticates %d blocks in %s", fault.ErrConfig, matched, path)
		}
	}

	blocks, err := pipeline.Encode(secretKey, payload)
	if err != nil {
		return nil, err
	}
	if err := store.Append(blocks); err != nil {
		return nil, err
	}

	c.logger.Info("compartment added",
		"path", path,
		"created", created,
		"blocks", len(blocks),
		"block_size", header.BlockSize,
		"stored", len(store.Blocks()),
		"capacity", header.Capacity(),
	)
	return &AddResult{
		Created:  created,
		Header:   header,
		Blocks:   len(blocks),
		Stored:   len(store.Blocks()),
		Capacity: header.Capacity(),
	}, nil
}

// planHeader sizes the header for the first compartment of a new
// container.
func (c *Cube) planHeader(payload []byte, options AddOptions) (*container.Header, error) {
	options = options.withDefaults()
	preset, err := cube.Resolve(options.Cube, options.Dimension)
	if err != nil {
		return nil, err
	}
	compressed, err := compress.Compress(options.Compression, payload)
	if err != nil {
		return nil, err
	}
	report, err := cube.Plan(preset, len(payload), len(compressed), options.BlockSize, options.MACBits)
	if err != nil {
		return nil, err
	}
	header := newHeader(preset, report.Layout, options)
	if err := header.Validate(); err != nil {
		return nil, err
	}
	c.logger.Debug("container geometry planned",
		"preset", preset.String(),
		"block_size", report.Layout.BlockSize,
		"fragment_size", report.Layout.FragmentSize,
		"headroom", report.Headroom,
	)
	return header, nil
}

// Extract returns the payload secretKey encoded in the container at
// path.
func (c *Cube) Extract(path string, secretKey *secret.Buffer) ([]byte, error) {
	header, blocks, err := container.Load(path)
	if err != nil {
		return nil, err
	}
	pipeline, err := c.pipeline(header)
	if err != nil {
		return nil, err
	}
	return pipeline.Decode(secretKey, blocks)
}

// Seal adds count chaff blocks to the container at path, or fills it
// when count is 0. Returns the number added.
func (c *Cube) Seal(path string, count int) (int, error) {
	store, err := container.Open(path, c.logger)
	if err != nil {
		return 0, err
	}
	return store.Seal(count)
}

// LoadHeader reads only the header of the container at path.
func LoadHeader(path string) (*container.Header, error) {
	return container.LoadHeader(path)
}

// IterateBlocks yields the container's blocks in file order. Each
// range reopens the file.
func IterateBlocks(path string) iter.Seq2[container.Block, error] {
	return container.IterateBlocks(path)
}

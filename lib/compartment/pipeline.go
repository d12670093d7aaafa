// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compartment

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bureau-foundation/hypercube/lib/aont"
	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/parallel"
	"github.com/bureau-foundation/hypercube/lib/permute"
	"github.com/bureau-foundation/hypercube/lib/secret"
	"github.com/bureau-foundation/hypercube/lib/whiten"
)

// Options tunes a Pipeline. The zero value is usable.
type Options struct {
	// Logger receives per-call debug records. Nil discards them.
	Logger *slog.Logger

	// Workers bounds the goroutines used by the parallel stages.
	// Zero or negative means GOMAXPROCS. Output does not depend on
	// this value.
	Workers int

	// QuietStages drops the stage name from ExtractionError messages.
	// errors.Is still sees the underlying cause.
	QuietStages bool
}

// Pipeline encodes and decodes compartments for one container header.
type Pipeline struct {
	header  container.Header
	layout  cube.Layout
	logger  *slog.Logger
	workers int
	quiet   bool
}

// New returns a pipeline for header. The header is copied.
func New(header *container.Header, options Options) (*Pipeline, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: nil header", fault.ErrConfig)
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	layout, err := header.Layout()
	if err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		header:  *header,
		layout:  layout,
		logger:  logger,
		workers: parallel.Workers(options.Workers),
		quiet:   options.QuietStages,
	}, nil
}

// Layout returns the per-compartment geometry the pipeline encodes to.
func (p *Pipeline) Layout() cube.Layout {
	return p.layout
}

// stages builds the pipeline in encode order from derived keys. The
// returned stages borrow the key buffers, which must outlive them.
func (p *Pipeline) stages(k *keys) ([]stage, error) {
	data := p.layout.DataFragments()

	permutation, err := permute.New(p.header.Shuffle, k.shuffle.Bytes(), data, p.workers)
	if err != nil {
		return nil, err
	}
	whitener, err := whiten.New(p.header.Whitener, k.whiten.Bytes(), p.workers)
	if err != nil {
		return nil, err
	}
	transform, err := aont.New(p.header.AONT, k.aont.Bytes(), p.workers)
	if err != nil {
		return nil, err
	}
	authenticator, err := p.authenticator(k)
	if err != nil {
		return nil, err
	}

	return []stage{
		compressStage{algorithm: p.header.Compression},
		metadataStage{layout: p.layout, seed: k.shuffle.Bytes()},
		segmentStage{layout: p.layout},
		fragmentStage{layout: p.layout},
		shuffleStage{permutation: permutation, data: data},
		whitenStage{whitener: whitener, data: data},
		aontStage{transform: transform, data: data},
		sequenceStage{layout: p.layout},
		authenticateStage{authenticator: authenticator, workers: p.workers},
	}, nil
}

func (p *Pipeline) authenticator(k *keys) (*blockmac.Authenticator, error) {
	return blockmac.New(p.header.Hash, k.mac.Bytes(), p.header.MACBits)
}

// Encode turns payload into exactly BlocksPerCompartment authenticated
// blocks under secretKey. A payload whose compressed stream does not
// fit the data region is [fault.ErrCapacityExceeded].
func (p *Pipeline) Encode(secretKey *secret.Buffer, payload []byte) ([]container.Block, error) {
	started := time.Now()
	derived, err := deriveKeys(secretKey)
	if err != nil {
		return nil, err
	}
	defer derived.Close()

	stages, err := p.stages(derived)
	if err != nil {
		return nil, err
	}

	s := &state{payload: payload}
	for _, current := range stages {
		if err := current.forward(s); err != nil {
			return nil, fmt.Errorf("%s stage: %w", current.name(), err)
		}
	}

	p.logger.Debug("compartment encoded",
		"payload_bytes", len(payload),
		"compressed_bytes", len(s.compressed),
		"blocks", len(s.blocks),
		"block_size", p.layout.BlockSize,
		"duration", time.Since(started),
	)
	return s.blocks, nil
}

// Decode recovers the payload that secretKey encoded among blocks.
// blocks is typically every block in the container; it is not
// modified.
//
// No authenticating block is [fault.ErrWrongSecretOrEmptyCompartment].
// Every other failure is an [*ExtractionError].
func (p *Pipeline) Decode(secretKey *secret.Buffer, blocks []container.Block) ([]byte, error) {
	started := time.Now()
	derived, err := deriveKeys(secretKey)
	if err != nil {
		return nil, err
	}
	defer derived.Close()

	stages, err := p.stages(derived)
	if err != nil {
		return nil, err
	}

	s := &state{blocks: blocks}
	last := stages[len(stages)-1]
	if err := last.inverse(s); err != nil {
		return nil, p.extractionError(last.name(), err)
	}
	if len(s.blocks) == 0 {
		return nil, fault.ErrWrongSecretOrEmptyCompartment
	}
	survivors := len(s.blocks)

	for _, current := range slices.Backward(stages[:len(stages)-1]) {
		if err := current.inverse(s); err != nil {
			p.logger.Debug("compartment extraction failed",
				"stage", string(current.name()),
				"authenticated", survivors,
				"error", err,
			)
			return nil, p.extractionError(current.name(), err)
		}
	}

	p.logger.Debug("compartment decoded",
		"authenticated", survivors,
		"payload_bytes", len(s.payload),
		"duration", time.Since(started),
	)
	return s.payload, nil
}

// Match counts the blocks that authenticate under secretKey without
// decoding them.
func (p *Pipeline) Match(secretKey *secret.Buffer, blocks []container.Block) (int, error) {
	derived, err := deriveKeys(secretKey)
	if err != nil {
		return 0, err
	}
	defer derived.Close()

	authenticator, err := p.authenticator(derived)
	if err != nil {
		return 0, err
	}
	s := &state{blocks: blocks}
	filter := authenticateStage{authenticator: authenticator, workers: p.workers}
	if err := filter.inverse(s); err != nil {
		return 0, err
	}
	return len(s.blocks), nil
}

func (p *Pipeline) extractionError(name Stage, err error) error {
	if p.quiet {
		return &ExtractionError{Err: err}
	}
	return &ExtractionError{Stage: name, Err: err}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compartment

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"slices"

	"github.com/bureau-foundation/hypercube/lib/aont"
	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/container"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/parallel"
	"github.com/bureau-foundation/hypercube/lib/permute"
	"github.com/bureau-foundation/hypercube/lib/whiten"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageCompress     Stage = "compress"
	StageMetadata     Stage = "metadata"
	StageSegment      Stage = "segment"
	StageFragment     Stage = "fragment"
	StageShuffle      Stage = "shuffle"
	StageWhiten       Stage = "whiten"
	StageAONT         Stage = "aont"
	StageSequence     Stage = "sequence"
	StageAuthenticate Stage = "authenticate"
)

// Stages lists the pipeline in encode order.
var Stages = []Stage{
	StageCompress, StageMetadata, StageSegment, StageFragment, StageShuffle,
	StageWhiten, StageAONT, StageSequence, StageAuthenticate,
}

// state is the value threaded through the stages. Each stage reads the
// fields its predecessor wrote (forward) or its successor wrote
// (inverse).
type state struct {
	payload    []byte
	metadata   Metadata
	compressed []byte
	stream     []byte
	segments   [][]byte
	fragments  [][]byte
	blocks     []container.Block
}

type stage interface {
	name() Stage
	forward(*state) error
	inverse(*state) error
}

// maxOriginalSize bounds the decompression allocation a metadata
// record may request.
const maxOriginalSize = 1 << 36

type compressStage struct {
	algorithm compress.Algorithm
}

func (compressStage) name() Stage { return StageCompress }

func (c compressStage) forward(s *state) error {
	compressed, err := compress.Compress(c.algorithm, s.payload)
	if err != nil {
		return err
	}
	s.compressed = compressed
	return nil
}

func (c compressStage) inverse(s *state) error {
	if s.metadata.OriginalSize > maxOriginalSize {
		return fmt.Errorf("%w: original size %d", fault.ErrIntegrityMismatch, s.metadata.OriginalSize)
	}
	payload, err := compress.Decompress(c.algorithm, s.compressed, int(s.metadata.OriginalSize))
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIntegrityMismatch, err)
	}
	s.payload = payload
	return nil
}

type metadataStage struct {
	layout cube.Layout
	seed   []byte
}

func (metadataStage) name() Stage { return StageMetadata }

func (m metadataStage) forward(s *state) error {
	used := cube.MetadataSize + len(s.compressed)
	if used > m.layout.DataCapacity() {
		return fmt.Errorf("%w: %d-byte stream exceeds the %d-byte data region",
			fault.ErrCapacityExceeded, used, m.layout.DataCapacity())
	}
	s.metadata = Metadata{
		CompressedSize: uint64(len(s.compressed)),
		OriginalSize:   uint64(len(s.payload)),
	}
	copy(s.metadata.ShuffleSeed[:], m.seed)
	record, _ := s.metadata.MarshalBinary()

	s.stream = make([]byte, m.layout.StreamSize())
	copy(s.stream, record)
	copy(s.stream[cube.MetadataSize:], s.compressed)
	return nil
}

func (m metadataStage) inverse(s *state) error {
	if err := s.metadata.UnmarshalBinary(s.stream); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIntegrityMismatch, err)
	}
	if subtle.ConstantTimeCompare(s.metadata.ShuffleSeed[:], m.seed) != 1 {
		return fmt.Errorf("%w: shuffle seed differs from the secret's", fault.ErrIntegrityMismatch)
	}
	limit := uint64(m.layout.DataCapacity() - cube.MetadataSize)
	if s.metadata.CompressedSize > limit {
		return fmt.Errorf("%w: compressed size %d exceeds data region %d",
			fault.ErrIntegrityMismatch, s.metadata.CompressedSize, limit)
	}
	end := cube.MetadataSize + int(s.metadata.CompressedSize)
	if !isZero(s.stream[end:]) {
		return fmt.Errorf("%w: nonzero stream padding", fault.ErrIntegrityMismatch)
	}
	s.compressed = s.stream[cube.MetadataSize:end]
	return nil
}

func isZero(data []byte) bool {
	var accumulated byte
	for _, value := range data {
		accumulated |= value
	}
	return accumulated == 0
}

type segmentStage struct {
	layout cube.Layout
}

func (segmentStage) name() Stage { return StageSegment }

func (g segmentStage) forward(s *state) error {
	segments, err := Segment(s.stream, g.layout.BlockSize)
	if err != nil {
		return err
	}
	s.segments = segments
	return nil
}

func (g segmentStage) inverse(s *state) error {
	if len(s.segments) != g.layout.BlocksPerCompartment {
		return fmt.Errorf("%w: %d segments, want %d", fault.ErrIntegrityMismatch, len(s.segments), g.layout.BlocksPerCompartment)
	}
	s.stream = Unsegment(s.segments)
	return nil
}

type fragmentStage struct {
	layout cube.Layout
}

func (fragmentStage) name() Stage { return StageFragment }

func (f fragmentStage) forward(s *state) error {
	fragments, err := Fragment(s.segments, f.layout.FragmentSize)
	if err != nil {
		return err
	}
	s.fragments = fragments
	return nil
}

func (f fragmentStage) inverse(s *state) error {
	segments, err := Defragment(s.fragments, f.layout.BlockSize/f.layout.FragmentSize)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIntegrityMismatch, err)
	}
	s.segments = segments
	return nil
}

// shuffleStage permutes the data fragments. The package fragments at
// the tail are placeholders until the aont stage fills them.
type shuffleStage struct {
	permutation *permute.Permutation
	data        int
}

func (shuffleStage) name() Stage { return StageShuffle }

func (p shuffleStage) forward(s *state) error {
	shuffled, err := permute.Apply(p.permutation, s.fragments[:p.data])
	if err != nil {
		return err
	}
	copy(s.fragments, shuffled)
	return nil
}

func (p shuffleStage) inverse(s *state) error {
	restored, err := permute.Invert(p.permutation, s.fragments[:p.data])
	if err != nil {
		return err
	}
	copy(s.fragments, restored)
	return nil
}

type whitenStage struct {
	whitener *whiten.Whitener
	data     int
}

func (whitenStage) name() Stage { return StageWhiten }

func (w whitenStage) forward(s *state) error {
	w.whitener.Apply(s.fragments[:w.data])
	return nil
}

func (w whitenStage) inverse(s *state) error {
	w.whitener.Apply(s.fragments[:w.data])
	return nil
}

type aontStage struct {
	transform *aont.Transform
	data      int
}

func (aontStage) name() Stage { return StageAONT }

func (a aontStage) forward(s *state) error {
	packageFragments := s.fragments[a.data:]
	pkg := make([]byte, len(packageFragments)*len(packageFragments[0]))
	if err := a.transform.Forward(s.fragments[:a.data], pkg); err != nil {
		return err
	}
	for i, fragment := range packageFragments {
		copy(fragment, pkg[i*len(fragment):])
	}
	return nil
}

func (a aontStage) inverse(s *state) error {
	packageFragments := s.fragments[a.data:]
	pkg := Unsegment(packageFragments)
	if err := a.transform.Inverse(s.fragments[:a.data], pkg); err != nil {
		return err
	}
	for _, fragment := range packageFragments {
		clear(fragment)
	}
	return nil
}

type sequenceStage struct {
	layout cube.Layout
}

func (sequenceStage) name() Stage { return StageSequence }

func (q sequenceStage) forward(s *state) error {
	payloads, err := Defragment(s.fragments, q.layout.BlockSize/q.layout.FragmentSize)
	if err != nil {
		return err
	}
	var base container.Sequence
	if _, err := rand.Read(base[:]); err != nil {
		return fmt.Errorf("drawing sequence base: %w", err)
	}
	s.blocks = make([]container.Block, len(payloads))
	for i, payload := range payloads {
		s.blocks[i] = container.Block{Sequence: base.Add(uint64(i)), Payload: payload}
	}
	return nil
}

func (q sequenceStage) inverse(s *state) error {
	ordered, err := orderRun(s.blocks, q.layout.BlocksPerCompartment)
	if err != nil {
		return err
	}
	payloads := make([][]byte, len(ordered))
	for i := range ordered {
		payloads[i] = ordered[i].Payload
	}
	// Copy out of the loaded blocks; later inverses work in place.
	concatenated := Unsegment(payloads)
	blocks, err := Segment(concatenated, q.layout.BlockSize)
	if err != nil {
		return err
	}
	fragments, err := Fragment(blocks, q.layout.FragmentSize)
	if err != nil {
		return err
	}
	s.fragments = fragments
	return nil
}

// orderRun sorts blocks by sequence and checks they form exactly one
// run of want consecutive counters. The run may wrap past 2^128-1.
func orderRun(blocks []container.Block, want int) ([]container.Block, error) {
	if len(blocks) != want {
		return nil, fmt.Errorf("%w: %d authenticated blocks, compartment has %d",
			fault.ErrAONTIntegrity, len(blocks), want)
	}
	ordered := slices.Clone(blocks)
	slices.SortFunc(ordered, func(a, b container.Block) int {
		return a.Sequence.Compare(b.Sequence)
	})

	breaks, at := 0, 0
	for i := 0; i+1 < len(ordered); i++ {
		if ordered[i].Sequence.Add(1) != ordered[i+1].Sequence {
			breaks++
			at = i + 1
		}
	}
	switch {
	case breaks == 0:
		return ordered, nil
	case breaks == 1 && ordered[len(ordered)-1].Sequence.Add(1) == ordered[0].Sequence:
		return append(ordered[at:], ordered[:at]...), nil
	default:
		return nil, fmt.Errorf("%w: sequence counters are not one consecutive run", fault.ErrAONTIntegrity)
	}
}

type authenticateStage struct {
	authenticator *blockmac.Authenticator
	workers       int
}

func (authenticateStage) name() Stage { return StageAuthenticate }

func (a authenticateStage) forward(s *state) error {
	parallel.For(len(s.blocks), a.workers, func(start, end int) {
		for i := start; i < end; i++ {
			block := &s.blocks[i]
			block.MAC = a.authenticator.Sum(block.Sequence[:], block.Payload)
		}
	})
	return nil
}

// inverse keeps only the blocks whose MAC verifies. Rejection is the
// normal outcome for other compartments and chaff, not an error.
func (a authenticateStage) inverse(s *state) error {
	keep := make([]bool, len(s.blocks))
	parallel.For(len(s.blocks), a.workers, func(start, end int) {
		for i := start; i < end; i++ {
			block := &s.blocks[i]
			keep[i] = a.authenticator.Verify(block.Sequence[:], block.Payload, block.MAC)
		}
	})
	survivors := make([]container.Block, 0, 64)
	for i, block := range s.blocks {
		if keep[i] {
			survivors = append(survivors, block)
		}
	}
	s.blocks = survivors
	return nil
}

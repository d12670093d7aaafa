// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	mathrand "math/rand/v2"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

// Store is an in-memory snapshot of a container file plus the
// operations that rewrite it. A Store for a path that does not exist
// yet has no header; the first Initialize fixes it.
type Store struct {
	path   string
	logger *slog.Logger
	header *Header
	blocks []Block
}

// Open loads the container at path. A missing file yields an empty
// store with no header.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := &Store{path: path, logger: logger}

	// A zero-length file (for example from mktemp) is an empty
	// container, not a truncated one.
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		logger.Debug("container file is empty", "path", path)
		return store, nil
	}

	header, blocks, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("container does not exist yet", "path", path)
		return store, nil
	}
	if err != nil {
		return nil, err
	}
	store.header = header
	store.blocks = blocks
	logger.Debug("container loaded",
		"path", path,
		"blocks", len(blocks),
		"capacity", header.Capacity(),
		"block_size", header.BlockSize,
	)
	return store, nil
}

// Load reads the whole container: header, then records to end of file.
func Load(path string) (*Header, []Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	reader := bytes.NewReader(data)
	header, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}

	records := data[len(data)-reader.Len():]
	recordSize := header.RecordSize()
	if len(records)%recordSize != 0 {
		return nil, nil, fmt.Errorf("%w: %d trailing bytes after %d whole records",
			fault.ErrTruncatedContainer, len(records)%recordSize, len(records)/recordSize)
	}
	count := len(records) / recordSize
	if count > header.Capacity() {
		return nil, nil, fmt.Errorf("%w: %d blocks exceed capacity %d", fault.ErrConfig, count, header.Capacity())
	}

	blocks := make([]Block, count)
	for i := range blocks {
		blocks[i] = parseRecord(records[i*recordSize:(i+1)*recordSize], header)
	}
	return header, blocks, nil
}

// LoadHeader reads only the header.
func LoadHeader(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	defer file.Close()
	return readHeader(bufio.NewReader(file))
}

// IterateBlocks yields the container's blocks in file order, reading
// one record at a time. Each range over the sequence reopens the file,
// so the sequence can be consumed any number of times. An error is
// yielded once, as the final element.
func IterateBlocks(path string) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			yield(Block{}, fmt.Errorf("%w: %w", fault.ErrIO, err))
			return
		}
		defer file.Close()

		reader := bufio.NewReader(file)
		header, err := readHeader(reader)
		if err != nil {
			yield(Block{}, err)
			return
		}

		for {
			record := make([]byte, header.RecordSize())
			n, err := io.ReadFull(reader, record)
			if err == io.EOF {
				return
			}
			if err != nil {
				if n > 0 && errors.Is(err, io.ErrUnexpectedEOF) {
					err = fmt.Errorf("%w: %d-byte partial record", fault.ErrTruncatedContainer, n)
				} else {
					err = fmt.Errorf("%w: %w", fault.ErrIO, err)
				}
				yield(Block{}, err)
				return
			}
			if !yield(parseRecord(record, header), nil) {
				return
			}
		}
	}
}

// Path returns the container's file path.
func (s *Store) Path() string {
	return s.path
}

// Header returns the container header, or nil before Initialize.
func (s *Store) Header() *Header {
	return s.header
}

// Blocks returns the loaded blocks. The slice must not be modified.
func (s *Store) Blocks() []Block {
	return s.blocks
}

// Remaining is the number of blocks that can still be added.
func (s *Store) Remaining() int {
	if s.header == nil {
		return 0
	}
	return s.header.Capacity() - len(s.blocks)
}

// Initialize fixes the header of an empty store. Nothing is written
// until the first Append.
func (s *Store) Initialize(header *Header) error {
	if s.header != nil {
		return fmt.Errorf("container %s already has a header", s.path)
	}
	if err := header.Validate(); err != nil {
		return err
	}
	copied := *header
	s.header = &copied
	return nil
}

// Append adds blocks, reshuffles the complete block list and rewrites
// the file. On any error the file is left as it was.
func (s *Store) Append(blocks []Block) error {
	if s.header == nil {
		return fmt.Errorf("%w: container %s has no header", fault.ErrConfig, s.path)
	}
	if len(s.blocks)+len(blocks) > s.header.Capacity() {
		return fmt.Errorf("appending %d blocks to %d of %d: %w",
			len(blocks), len(s.blocks), s.header.Capacity(), fault.ErrCubeFull)
	}
	for i := range blocks {
		if err := blocks[i].check(s.header); err != nil {
			return fmt.Errorf("%w: block %d: %w", fault.ErrGeometryMismatch, i, err)
		}
	}

	combined := make([]Block, 0, len(s.blocks)+len(blocks))
	combined = append(combined, s.blocks...)
	combined = append(combined, blocks...)
	if err := shuffle(combined); err != nil {
		return err
	}

	if err := s.write(combined); err != nil {
		return err
	}
	s.blocks = combined
	s.logger.Info("container written",
		"path", s.path,
		"added", len(blocks),
		"blocks", len(combined),
		"capacity", s.header.Capacity(),
	)
	return nil
}

// Seal fills the container with chaff: blocks whose sequence, payload
// and MAC are independent random bytes. count 0 fills all remaining
// capacity. Returns the number of chaff blocks added.
func (s *Store) Seal(count int) (int, error) {
	if s.header == nil {
		return 0, fmt.Errorf("%w: container %s has no header; add a compartment first", fault.ErrConfig, s.path)
	}
	if count < 0 {
		return 0, fmt.Errorf("%w: negative chaff count %d", fault.ErrConfig, count)
	}
	if count == 0 {
		count = s.Remaining()
	}
	if count == 0 {
		return 0, nil
	}

	chaff, err := Chaff(s.header, count)
	if err != nil {
		return 0, err
	}
	if err := s.Append(chaff); err != nil {
		return 0, err
	}
	return count, nil
}

// Chaff generates count random blocks shaped for header.
func Chaff(header *Header, count int) ([]Block, error) {
	recordSize := header.RecordSize()
	random := make([]byte, count*recordSize)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("generating chaff: %w", err)
	}
	blocks := make([]Block, count)
	for i := range blocks {
		blocks[i] = parseRecord(random[i*recordSize:(i+1)*recordSize], header)
	}
	return blocks, nil
}

// shuffle applies a uniformly random permutation from a ChaCha8
// generator seeded by crypto/rand. The permutation is independent of
// every previous one.
func shuffle(blocks []Block) error {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("seeding reshuffle: %w", err)
	}
	generator := mathrand.New(mathrand.NewChaCha8(seed))
	generator.Shuffle(len(blocks), func(i, j int) {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	})
	return nil
}

// write replaces the container file with header and blocks via a temp
// file in the same directory and a rename.
func (s *Store) write(blocks []Block) error {
	directory := filepath.Dir(s.path)
	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp container: %w", fault.ErrIO, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	writer := bufio.NewWriterSize(tmpFile, 1<<16)
	if err := writeHeader(writer, s.header); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: writing header: %w", fault.ErrIO, err)
	}
	record := make([]byte, 0, s.header.RecordSize())
	for i := range blocks {
		record = appendRecord(record[:0], &blocks[i])
		if _, err := writer.Write(record); err != nil {
			tmpFile.Close()
			return fmt.Errorf("%w: writing records: %w", fault.ErrIO, err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: flushing container: %w", fault.ErrIO, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("%w: syncing container: %w", fault.ErrIO, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: closing temp container: %w", fault.ErrIO, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: renaming container to %s: %w", fault.ErrIO, s.path, err)
	}

	success = true
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hypercube

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/hypercube/lib/aont"
	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/permute"
	"github.com/bureau-foundation/hypercube/lib/secret"
	"github.com/bureau-foundation/hypercube/lib/whiten"
)

func testSecret(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(value))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func containerPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "cube.hc")
}

func mustAdd(t *testing.T, c *Cube, path, key string, payload []byte, options AddOptions) *AddResult {
	t.Helper()
	result, err := c.Add(path, testSecret(t, key), payload, options)
	if err != nil {
		t.Fatalf("Add(%s): %v", key, err)
	}
	return result
}

func mustExtract(t *testing.T, c *Cube, path, key string) []byte {
	t.Helper()
	payload, err := c.Extract(path, testSecret(t, key))
	if err != nil {
		t.Fatalf("Extract(%s): %v", key, err)
	}
	return payload
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}

func TestAddExtract_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox "), 40)

	tests := []struct {
		name    string
		options AddOptions
	}{
		{"defaults small cube", AddOptions{Dimension: 4}},
		{"preset 3", AddOptions{Cube: 3}},
		{"lz4 fisher-yates", AddOptions{Dimension: 4, Compression: compress.LZ4, Shuffle: permute.FisherYates}},
		{"brotli xor oaep", AddOptions{Dimension: 4, Compression: compress.Brotli, Whitener: whiten.XOR, AONT: aont.OAEP}},
		{"none blake3 128", AddOptions{Dimension: 4, Compression: compress.None, Hash: blockmac.BLAKE3, MACBits: 128}},
		{"sha256 512", AddOptions{Dimension: 4, Hash: blockmac.SHA256, MACBits: 512}},
		{"fixed block size", AddOptions{Dimension: 4, BlockSize: 1024}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := containerPath(t)
			c := New(Options{})
			result := mustAdd(t, c, path, "alpha", payload, test.options)
			if !result.Created {
				t.Error("first Add did not report Created")
			}
			if result.Blocks != result.Header.BlocksPerCompartment || result.Stored != result.Blocks {
				t.Errorf("result blocks %d stored %d, want %d", result.Blocks, result.Stored, result.Header.BlocksPerCompartment)
			}
			if got := mustExtract(t, c, path, "alpha"); !bytes.Equal(got, payload) {
				t.Fatalf("Extract returned %d bytes, want %d", len(got), len(payload))
			}
		})
	}
}

func TestAdd_NonInterference(t *testing.T) {
	path := containerPath(t)
	c := New(Options{Workers: 2})

	first := []byte("first compartment")
	mustAdd(t, c, path, "one", first, AddOptions{Dimension: 4})
	for i := 2; i <= 4; i++ {
		key := fmt.Sprintf("key-%d", i)
		result := mustAdd(t, c, path, key, []byte(key), AddOptions{})
		if result.Created {
			t.Errorf("Add %d reported Created on an existing container", i)
		}
		if got := mustExtract(t, c, path, "one"); !bytes.Equal(got, first) {
			t.Fatalf("after adding %s, first compartment = %q", key, got)
		}
	}
	for i := 2; i <= 4; i++ {
		key := fmt.Sprintf("key-%d", i)
		if got := mustExtract(t, c, path, key); string(got) != key {
			t.Errorf("Extract(%s) = %q", key, got)
		}
	}
}

func TestAdd_CubeFullLeavesFileUntouched(t *testing.T) {
	path := containerPath(t)
	c := New(Options{})
	mustAdd(t, c, path, "one", []byte("a"), AddOptions{Dimension: 2})
	mustAdd(t, c, path, "two", []byte("b"), AddOptions{})
	before := readFile(t, path)

	_, err := c.Add(path, testSecret(t, "three"), []byte("c"), AddOptions{})
	if !errors.Is(err, ErrCubeFull) {
		t.Fatalf("Add error = %v, want ErrCubeFull", err)
	}
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("ErrCubeFull does not match ErrCapacityExceeded: %v", err)
	}
	if !bytes.Equal(before, readFile(t, path)) {
		t.Error("failed Add modified the container")
	}
}

func TestAdd_PayloadTooLargeForEstablishedBlockSize(t *testing.T) {
	path := containerPath(t)
	c := New(Options{})
	mustAdd(t, c, path, "small", []byte("tiny"), AddOptions{Dimension: 4, Compression: compress.None})
	before := readFile(t, path)

	large := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 400)
	_, err := c.Add(path, testSecret(t, "large"), large, AddOptions{})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Add error = %v, want ErrCapacityExceeded", err)
	}
	if errors.Is(err, ErrCubeFull) {
		t.Error("oversized payload reported as a full cube")
	}
	if !bytes.Equal(before, readFile(t, path)) {
		t.Error("failed Add modified the container")
	}
}

func TestAdd_RejectsMismatchedOptions(t *testing.T) {
	path := containerPath(t)
	c := New(Options{})
	first := mustAdd(t, c, path, "one", []byte("payload"), AddOptions{Dimension: 4, MACBits: 256})
	blockSize := first.Header.BlockSize

	tests := []struct {
		name    string
		options AddOptions
		want    error
	}{
		{"block size", AddOptions{BlockSize: blockSize + 1}, ErrGeometryMismatch},
		{"dimension", AddOptions{Dimension: 8}, ErrGeometryMismatch},
		{"preset on custom cube", AddOptions{Cube: 1}, ErrGeometryMismatch},
		{"mac bits", AddOptions{MACBits: 512}, ErrGeometryMismatch},
		{"compression", AddOptions{Compression: compress.LZ4}, ErrConfig},
		{"hash", AddOptions{Hash: blockmac.BLAKE3}, ErrConfig},
	}
	before := readFile(t, path)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := c.Add(path, testSecret(t, "two"), []byte("other"), test.options)
			if !errors.Is(err, test.want) {
				t.Fatalf("Add error = %v, want %v", err, test.want)
			}
		})
	}
	if !bytes.Equal(before, readFile(t, path)) {
		t.Error("rejected Add modified the container")
	}

	// Matching explicit values are accepted.
	mustAdd(t, c, path, "three", []byte("ok"), AddOptions{Dimension: 4, BlockSize: blockSize, MACBits: 256, Compression: compress.Zstd})
}

func TestAdd_RejectsDuplicateSecret(t *testing.T) {
	path := containerPath(t)
	c := New(Options{})
	mustAdd(t, c, path, "same", []byte("first"), AddOptions{Dimension: 4})

	_, err := c.Add(path, testSecret(t, "same"), []byte("second"), AddOptions{})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("Add error = %v, want ErrConfig", err)
	}
	if got := mustExtract(t, c, path, "same"); string(got) != "first" {
		t.Errorf("Extract = %q, want %q", got, "first")
	}
}

func TestAdd_EmptyFileIsNewContainer(t *testing.T) {
	path := containerPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c := New(Options{})
	result := mustAdd(t, c, path, "key", []byte("payload"), AddOptions{Dimension: 2})
	if !result.Created {
		t.Error("Add to an empty file did not create a header")
	}
}

func TestExtract_TamperSensitivity(t *testing.T) {
	path := containerPath(t)
	c := New(Options{})
	result := mustAdd(t, c, path, "victim", []byte("sensitive"), AddOptions{Dimension: 2})
	pristine := readFile(t, path)

	key := testSecret(t, "victim")
	recordSize := result.Header.RecordSize()
	recordsStart := len(pristine) - result.Stored*recordSize
	for offset := recordsStart; offset < len(pristine); offset++ {
		tampered := bytes.Clone(pristine)
		tampered[offset] ^= 0x10
		if err := os.WriteFile(path, tampered, 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		payload, err := c.Extract(path, key)
		if err == nil {
			t.Fatalf("Extract succeeded after flipping a bit at offset %d: %q", offset, payload)
		}
		if !errors.Is(err, ErrAONTIntegrity) {
			t.Fatalf("offset %d: Extract error = %v, want ErrAONTIntegrity", offset, err)
		}
	}
}

func TestExtract_Errors(t *testing.T) {
	c := New(Options{QuietStages: true})

	_, err := c.Extract(filepath.Join(t.TempDir(), "missing"), testSecret(t, "x"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("missing file: error = %v, want ErrIO", err)
	}

	path := containerPath(t)
	mustAdd(t, c, path, "present", []byte("here"), AddOptions{Dimension: 2})
	_, err = c.Extract(path, testSecret(t, "absent"))
	if !errors.Is(err, ErrWrongSecretOrEmptyCompartment) {
		t.Errorf("wrong secret: error = %v, want ErrWrongSecretOrEmptyCompartment", err)
	}

	data := readFile(t, path)
	if err := os.WriteFile(path, data[:len(data)-1], 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err = c.Extract(path, testSecret(t, "present"))
	if !errors.Is(err, ErrTruncatedContainer) {
		t.Errorf("truncated: error = %v, want ErrTruncatedContainer", err)
	}
}

func TestSeal(t *testing.T) {
	path := containerPath(t)
	c := New(Options{})

	if _, err := c.Seal(path, 0); !errors.Is(err, ErrConfig) {
		t.Fatalf("Seal without header: error = %v, want ErrConfig", err)
	}

	mustAdd(t, c, path, "real", []byte("real payload"), AddOptions{Dimension: 4})
	added, err := c.Seal(path, 3)
	if err != nil {
		t.Fatalf("Seal(3): %v", err)
	}
	if added != 3 {
		t.Errorf("Seal(3) added %d", added)
	}
	added, err = c.Seal(path, 0)
	if err != nil {
		t.Fatalf("Seal(0): %v", err)
	}
	if added != 16-4-3 {
		t.Errorf("Seal(0) added %d, want %d", added, 16-4-3)
	}

	if got := mustExtract(t, c, path, "real"); string(got) != "real payload" {
		t.Errorf("Extract after seal = %q", got)
	}
	if _, err := c.Seal(path, 1); !errors.Is(err, ErrCubeFull) {
		t.Errorf("Seal on full cube: error = %v, want ErrCubeFull", err)
	}

	count := 0
	for _, err := range IterateBlocks(path) {
		if err != nil {
			t.Fatalf("IterateBlocks: %v", err)
		}
		count++
	}
	if count != 16 {
		t.Errorf("IterateBlocks yielded %d blocks, want 16", count)
	}
	header, err := LoadHeader(path)
	if err != nil {
		t.Fatalf("LoadHeader: %v", err)
	}
	if header.Capacity() != 16 {
		t.Errorf("header capacity = %d, want 16", header.Capacity())
	}
}

func TestAnalyze(t *testing.T) {
	// 5072 incompressible-by-choice bytes plus the 48-byte record is a
	// 5120-byte stream over 32 blocks.
	payload := bytes.Repeat([]byte{0xab}, 5120-cube.MetadataSize)
	if got := cube.RequiredBlockSize(5120, 32); got != 160 {
		t.Fatalf("RequiredBlockSize(5120, 32) = %d, want 160", got)
	}

	report, err := Analyze(payload, AddOptions{Compression: compress.None, MACBits: 256})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.StreamSize != 5120 {
		t.Errorf("StreamSize = %d, want 5120", report.StreamSize)
	}
	if report.Preset.Capacity() != 1024 {
		t.Errorf("default preset capacity = %d, want 1024", report.Preset.Capacity())
	}
	// The aont package reserve raises 160 to 162.
	if report.Layout.BlockSize != 162 {
		t.Errorf("BlockSize = %d, want 162", report.Layout.BlockSize)
	}
	if report.RecordSize != 16+report.Layout.BlockSize+32 {
		t.Errorf("RecordSize = %d, want %d", report.RecordSize, 16+report.Layout.BlockSize+32)
	}

	if _, err := Analyze(payload, AddOptions{MACBits: 100}); !errors.Is(err, ErrConfig) {
		t.Errorf("Analyze with mac_bits 100: error = %v, want ErrConfig", err)
	}
	if _, err := Analyze(payload, AddOptions{Compression: compress.None, BlockSize: 16}); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Analyze with a small fixed block: error = %v, want ErrCapacityExceeded", err)
	}
}

func TestAnalyze_MatchesAdd(t *testing.T) {
	payload := bytes.Repeat([]byte("sizing "), 100)
	options := AddOptions{Dimension: 8}
	report, err := Analyze(payload, options)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	result := mustAdd(t, New(Options{}), containerPath(t), "k", payload, options)
	if result.Header.BlockSize != report.Layout.BlockSize {
		t.Errorf("Add block size %d, Analyze predicted %d", result.Header.BlockSize, report.Layout.BlockSize)
	}
}

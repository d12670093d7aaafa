// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

// Algorithm identifies a compression algorithm in the container
// header. The zero value means "unspecified".
type Algorithm uint8

const (
	Zstd Algorithm = iota + 1
	LZ4
	Brotli
	None
)

// Default is the compression used when none is configured.
const Default = Zstd

var names = map[Algorithm]string{
	Zstd:   "zstd",
	LZ4:    "lz4",
	Brotli: "brotli",
	None:   "none",
}

func (a Algorithm) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(a))
}

// Valid reports whether a names a supported algorithm.
func (a Algorithm) Valid() bool {
	_, ok := names[a]
	return ok
}

// Parse returns the algorithm with the given header name.
func Parse(name string) (Algorithm, error) {
	for algorithm, candidate := range names {
		if candidate == name {
			return algorithm, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown compression %q", fault.ErrConfig, name)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: cannot encode compression %d", fault.ErrConfig, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll/DecodeAll, so one of each serves the whole process.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderCRC(false),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses data with algorithm. The result never aliases data.
func Compress(algorithm Algorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case None:
		return bytes.Clone(data), nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case LZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if err := writer.Apply(lz4.CompressionLevelOption(lz4.Level9), lz4.ChecksumOption(false)); err != nil {
			return nil, fmt.Errorf("lz4 options: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buffer.Bytes(), nil
	case Brotli:
		var buffer bytes.Buffer
		writer := brotli.NewWriterLevel(&buffer, brotli.BestCompression)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("brotli compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("brotli compress: %w", err)
		}
		return buffer.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %s", fault.ErrConfig, algorithm)
	}
}

// Decompress reverses Compress. originalSize must equal the length of
// the data that was compressed; output of any other length is an error.
func Decompress(algorithm Algorithm, compressed []byte, originalSize int) ([]byte, error) {
	var (
		output []byte
		err    error
	)
	switch algorithm {
	case None:
		output = bytes.Clone(compressed)
	case Zstd:
		output, err = zstdDecoder.DecodeAll(compressed, make([]byte, 0, originalSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	case LZ4:
		output, err = readLimited(lz4.NewReader(bytes.NewReader(compressed)), originalSize)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
	case Brotli:
		output, err = readLimited(brotli.NewReader(bytes.NewReader(compressed)), originalSize)
		if err != nil {
			return nil, fmt.Errorf("brotli decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported compression %s", fault.ErrConfig, algorithm)
	}

	if len(output) != originalSize {
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d", algorithm, len(output), originalSize)
	}
	return output, nil
}

// readLimited reads at most limit+1 bytes so an oversized stream is
// detected without inflating it fully.
func readLimited(reader io.Reader, limit int) ([]byte, error) {
	output := bytes.NewBuffer(make([]byte, 0, limit))
	if _, err := io.Copy(output, io.LimitReader(reader, int64(limit)+1)); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

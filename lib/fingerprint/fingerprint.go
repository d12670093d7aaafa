// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/hypercube/lib/fault"
)

// Size is the digest length in bytes.
const Size = 32

// Digest is a BLAKE3-256 file digest.
type Digest [Size]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the digest as hex for JSON output.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a hex digest.
func (d *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != Size {
		return fmt.Errorf("%w: digest must be %d hex characters, got %d", fault.ErrConfig, 2*Size, len(text))
	}
	_, err := hex.Decode(d[:], text)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrConfig, err)
	}
	return nil
}

// File streams the file at path through BLAKE3.
func File(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: opening %s for hashing: %w", fault.ErrIO, path, err)
	}
	defer file.Close()
	return Reader(file)
}

// Reader hashes everything r yields.
func Reader(r io.Reader) (Digest, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, fmt.Errorf("%w: hashing: %w", fault.ErrIO, err)
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

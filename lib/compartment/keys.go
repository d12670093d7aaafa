// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compartment

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/hypercube/lib/secret"
)

// keySize is the length of every derived key.
const keySize = 32

// HKDF info labels. Changing any of these makes existing containers
// unreadable.
const (
	labelMAC     = "hypercube.v1.mac"
	labelShuffle = "hypercube.v1.shuffle"
	labelWhiten  = "hypercube.v1.whiten"
	labelAONT    = "hypercube.v1.aont"
)

// keys holds the per-stage keys derived from one secret. The shuffle
// key doubles as the permutation seed recorded in the metadata record.
type keys struct {
	mac     *secret.Buffer
	shuffle *secret.Buffer
	whiten  *secret.Buffer
	aont    *secret.Buffer
}

func deriveKeys(master *secret.Buffer) (*keys, error) {
	if master == nil || master.Len() == 0 {
		return nil, fmt.Errorf("compartment: empty secret")
	}
	derived := &keys{}
	targets := []struct {
		label string
		into  **secret.Buffer
	}{
		{labelMAC, &derived.mac},
		{labelShuffle, &derived.shuffle},
		{labelWhiten, &derived.whiten},
		{labelAONT, &derived.aont},
	}
	for _, target := range targets {
		buffer, err := deriveKey(master.Bytes(), target.label)
		if err != nil {
			derived.Close()
			return nil, err
		}
		*target.into = buffer
	}
	return derived, nil
}

// deriveKey expands one labeled key from the secret into locked memory.
func deriveKey(inputKeyMaterial []byte, label string) (*secret.Buffer, error) {
	reader := hkdf.New(sha256.New, inputKeyMaterial, nil, []byte(label))
	derived := make([]byte, keySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("deriving %s key: %w", label, err)
	}
	return secret.NewFromBytes(derived)
}

// Close releases every derived key.
func (k *keys) Close() {
	for _, buffer := range []*secret.Buffer{k.mac, k.shuffle, k.whiten, k.aont} {
		if buffer != nil {
			buffer.Close()
		}
	}
}

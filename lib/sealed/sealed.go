// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/secret"
)

// binaryHeader is the first line of an unarmored age file.
const binaryHeader = "age-encryption.org/v1"

// Keypair holds an age x25519 keypair. The private key lives in a
// secret.Buffer; the public key is safe to publish.
//
// The caller must call Close when the keypair is no longer needed.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... identity string.
	PrivateKey *secret.Buffer
	PublicKey  string
}

// Close releases the private key memory. Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}
	// The identity string itself is heap memory age owns; the buffer
	// is the copy we keep.
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// WriteIdentity writes the keypair in age's identity file format:
// comment lines with the creation time and public key, then the
// private key.
func (k *Keypair) WriteIdentity(w io.Writer, created time.Time) error {
	if _, err := fmt.Fprintf(w, "# created: %s\n# public key: %s\n",
		created.UTC().Format(time.RFC3339), k.PublicKey); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	if _, err := w.Write(k.PrivateKey.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	return nil
}

// ParsePublicKey parses an age1... recipient string.
func ParsePublicKey(publicKey string) (*age.X25519Recipient, error) {
	recipient, err := age.ParseX25519Recipient(strings.TrimSpace(publicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid age public key: %w", fault.ErrConfig, err)
	}
	return recipient, nil
}

// Wrap encrypts the secret to every recipient and writes the armored
// result to w.
func Wrap(w io.Writer, key *secret.Buffer, recipientKeys []string) error {
	if len(recipientKeys) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", fault.ErrConfig)
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, publicKey := range recipientKeys {
		recipient, err := ParsePublicKey(publicKey)
		if err != nil {
			return err
		}
		recipients = append(recipients, recipient)
	}

	armored := armor.NewWriter(w)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(key.Bytes()); err != nil {
		return fmt.Errorf("%w: writing wrapped secret: %w", fault.ErrIO, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: finalizing age encryption: %w", fault.ErrIO, err)
	}
	if err := armored.Close(); err != nil {
		return fmt.Errorf("%w: finalizing armor: %w", fault.ErrIO, err)
	}
	return nil
}

// IsWrapped reports whether data is an age file, armored or binary.
func IsWrapped(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte(armor.Header)) ||
		bytes.HasPrefix(trimmed, []byte(binaryHeader))
}

// Unwrap decrypts a wrapped secret with the identities in identity,
// which holds the contents of an age identity file. The identity is
// borrowed. The caller must Close the returned buffer.
func Unwrap(data []byte, identity *secret.Buffer) (*secret.Buffer, error) {
	identities, err := age.ParseIdentities(bytes.NewReader(identity.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing age identity: %w", fault.ErrConfig, err)
	}

	var source io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(armor.Header)) {
		source = armor.NewReader(bytes.NewReader(bytes.TrimLeft(data, " \t\r\n")))
	}
	reader, err := age.Decrypt(source, identities...)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrapping secret: %w", fault.ErrConfig, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("%w: reading unwrapped secret: %w", fault.ErrConfig, err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("%w: wrapped secret is empty", fault.ErrConfig)
	}
	return secret.NewFromBytes(plaintext)
}

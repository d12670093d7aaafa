// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/secret"
)

func generate(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func buffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	b, err := secret.NewFromBytes([]byte(value))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func identityFile(t *testing.T, keypair *Keypair) *secret.Buffer {
	t.Helper()
	var out bytes.Buffer
	if err := keypair.WriteIdentity(&out, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("WriteIdentity: %v", err)
	}
	return buffer(t, out.String())
}

func TestGenerateKeypair(t *testing.T) {
	first := generate(t)
	second := generate(t)

	if !strings.HasPrefix(first.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Errorf("PrivateKey lacks prefix AGE-SECRET-KEY-1")
	}
	if !strings.HasPrefix(first.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", first.PublicKey)
	}
	if first.PublicKey == second.PublicKey || first.PrivateKey.Equal(second.PrivateKey) {
		t.Error("two generated keypairs are identical")
	}
}

func TestWriteIdentity(t *testing.T) {
	keypair := generate(t)
	var out bytes.Buffer
	if err := keypair.WriteIdentity(&out, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("WriteIdentity: %v", err)
	}
	text := out.String()
	if !strings.HasPrefix(text, "# created: 2026-01-02T03:04:05Z\n") {
		t.Errorf("identity file starts %q", text)
	}
	if !strings.Contains(text, "# public key: "+keypair.PublicKey+"\n") {
		t.Error("identity file does not name the public key")
	}
}

func TestWrapUnwrap(t *testing.T) {
	alice := generate(t)
	bob := generate(t)

	var wrapped bytes.Buffer
	if err := Wrap(&wrapped, buffer(t, "compartment secret"), []string{alice.PublicKey, bob.PublicKey}); err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if !IsWrapped(wrapped.Bytes()) {
		t.Fatalf("IsWrapped(armored output) = false: %q", wrapped.String())
	}
	if bytes.Contains(wrapped.Bytes(), []byte("compartment secret")) {
		t.Fatal("wrapped output contains the plaintext")
	}

	for name, keypair := range map[string]*Keypair{"alice": alice, "bob": bob} {
		unwrapped, err := Unwrap(wrapped.Bytes(), identityFile(t, keypair))
		if err != nil {
			t.Fatalf("Unwrap as %s: %v", name, err)
		}
		if unwrapped.String() != "compartment secret" {
			t.Errorf("Unwrap as %s = %q", name, unwrapped.String())
		}
		unwrapped.Close()
	}

	stranger := generate(t)
	if _, err := Unwrap(wrapped.Bytes(), identityFile(t, stranger)); !errors.Is(err, fault.ErrConfig) {
		t.Errorf("Unwrap with a foreign identity: error = %v, want ErrConfig", err)
	}
}

func TestWrap_Errors(t *testing.T) {
	var out bytes.Buffer
	if err := Wrap(&out, buffer(t, "s"), nil); !errors.Is(err, fault.ErrConfig) {
		t.Errorf("Wrap with no recipients: error = %v, want ErrConfig", err)
	}
	if err := Wrap(&out, buffer(t, "s"), []string{"age1notakey"}); !errors.Is(err, fault.ErrConfig) {
		t.Errorf("Wrap with a bad recipient: error = %v, want ErrConfig", err)
	}
}

func TestIsWrapped(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{"-----BEGIN AGE ENCRYPTED FILE-----\nYWdl\n-----END AGE ENCRYPTED FILE-----\n", true},
		{"\n  -----BEGIN AGE ENCRYPTED FILE-----\n", true},
		{"age-encryption.org/v1\n-> X25519 abc\n", true},
		{"correct horse battery staple\n", false},
		{"", false},
	}
	for _, test := range tests {
		if got := IsWrapped([]byte(test.data)); got != test.want {
			t.Errorf("IsWrapped(%q) = %v, want %v", test.data, got, test.want)
		}
	}
}

func TestUnwrap_BadIdentity(t *testing.T) {
	if _, err := Unwrap([]byte("irrelevant"), buffer(t, "not an identity")); !errors.Is(err, fault.ErrConfig) {
		t.Errorf("Unwrap with a malformed identity: error = %v, want ErrConfig", err)
	}
}

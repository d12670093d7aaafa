// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

type level int

func (l level) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("level-%d", int(l))), nil
}

func (l *level) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "level-%d", (*int)(l))
	return err
}

type sampleHeader struct {
	Version   int    `cbor:"version"`
	BlockSize int    `cbor:"block_size"`
	Level     level  `cbor:"level"`
	Name      string `cbor:"name,omitempty"`
}

func TestMarshal_Deterministic(t *testing.T) {
	header := sampleHeader{Version: 1, BlockSize: 160, Level: 3}

	first, err := Marshal(header)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(header)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical values encoded differently")
	}

	var decoded sampleHeader
	if err := Unmarshal(first, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != header {
		t.Errorf("decoded %+v, want %+v", decoded, header)
	}
}

func TestMarshal_TextMarshalerAsString(t *testing.T) {
	data, err := Marshal(sampleHeader{Level: 7})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"level-7"`) {
		t.Errorf("diagnostic %s does not carry the text form", diagnostic)
	}
}

func TestUnmarshal_RejectsDuplicateKeys(t *testing.T) {
	// {"version": 1, "version": 2}
	data := []byte{0xa2, 0x67, 'v', 'e', 'r', 's', 'i', 'o', 'n', 0x01, 0x67, 'v', 'e', 'r', 's', 'i', 'o', 'n', 0x02}
	var decoded sampleHeader
	if err := Unmarshal(data, &decoded); err == nil {
		t.Fatal("duplicate map key accepted")
	}
}

func TestUnmarshal_IgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"version": 2, "future_field": "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleHeader
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Version != 2 {
		t.Errorf("Version = %d, want 2", decoded.Version)
	}
}

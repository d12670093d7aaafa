// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/blockstats"
	"github.com/bureau-foundation/hypercube/lib/config"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
)

// execute runs the command tree with args and returns what it wrote
// to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	previous := cli.Stdout
	cli.Stdout = &out
	defer func() { cli.Stdout = previous }()
	err := Root().Execute(args)
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("hypercube %s: %v", strings.Join(args, " "), err)
	}
	return out
}

type workspace struct {
	dir       string
	container string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	dir := t.TempDir()
	return &workspace{dir: dir, container: filepath.Join(dir, "vault.hc")}
}

// file writes content to name in the workspace and returns its path.
func (w *workspace) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const notes = "meeting moved to thursday; bring the ledger and the blue folder\n"

func TestAddExtract_RoundTrip(t *testing.T) {
	w := newWorkspace(t)
	key := w.file(t, "a.key", "correct horse battery staple\n")
	payload := w.file(t, "notes.txt", strings.Repeat(notes, 20))

	out := mustExecute(t, "add", w.container, payload, "-s", key, "--cube", "3", "--log-level", "error")
	if !strings.Contains(out, "created "+w.container) || !strings.Contains(out, "16 blocks (16 of 256 stored)") {
		t.Errorf("add output:\n%s", out)
	}

	restored := filepath.Join(w.dir, "restored.txt")
	mustExecute(t, "extract", w.container, "-s", key, "-o", restored, "--log-level", "error")
	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != strings.Repeat(notes, 20) {
		t.Errorf("extracted %d bytes, want the original %d", len(got), len(notes)*20)
	}

	if out := mustExecute(t, "extract", w.container, "-s", key); out != strings.Repeat(notes, 20) {
		t.Errorf("extract to stdout returned %d bytes", len(out))
	}
}

func TestExtract_Check(t *testing.T) {
	w := newWorkspace(t)
	key := w.file(t, "a.key", "first secret")
	other := w.file(t, "b.key", "second secret")
	mustExecute(t, "add", w.container, w.file(t, "p", notes), "-s", key, "--dimension", "8")

	out, err := execute(t, "extract", w.container, "-s", key, "--check")
	if err != nil || out != "" {
		t.Errorf("--check with the right secret = (%q, %v), want no output and no error", out, err)
	}

	out, err = execute(t, "extract", w.container, "-s", other, "--check")
	var exit *cli.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Errorf("--check with a foreign secret: err = %v, want exit code 1", err)
	}
	if out != "" {
		t.Errorf("--check printed %q", out)
	}

	_, err = execute(t, "extract", w.container, "-s", other)
	if !errors.Is(err, hypercube.ErrWrongSecretOrEmptyCompartment) {
		t.Errorf("extract with a foreign secret: err = %v", err)
	}
}

func TestAdd_DefaultsOnlyApplyToNewContainers(t *testing.T) {
	w := newWorkspace(t)
	configPath := w.file(t, "config.yaml", "defaults:\n  cube: 2\n  compression: lz4\n")

	mustExecute(t, "add", w.container, w.file(t, "p1", notes), "-s", w.file(t, "k1", "one"),
		"--cube", "3", "--config", configPath)
	header, err := hypercube.LoadHeader(w.container)
	if err != nil {
		t.Fatal(err)
	}
	if header.Compartments != 16 || header.Compression.String() != "lz4" {
		t.Errorf("header = %+v, want a 16x16 lz4 cube", header)
	}

	// The config names cube 2 but the container exists, so the
	// defaults are not applied.
	mustExecute(t, "add", w.container, w.file(t, "p2", notes), "-s", w.file(t, "k2", "two"),
		"--config", configPath)

	_, err = execute(t, "add", w.container, w.file(t, "p3", notes), "-s", w.file(t, "k3", "three"),
		"--cube", "2")
	if !errors.Is(err, hypercube.ErrGeometryMismatch) {
		t.Errorf("explicit --cube 2 on a cube 3 container: err = %v, want ErrGeometryMismatch", err)
	}
	_, err = execute(t, "add", w.container, w.file(t, "p4", notes), "-s", w.file(t, "k4", "four"),
		"--compression", "zstd")
	if !errors.Is(err, hypercube.ErrConfig) {
		t.Errorf("explicit --compression zstd on an lz4 container: err = %v, want ErrConfig", err)
	}
}

func TestAdd_RejectsUnknownAlgorithm(t *testing.T) {
	w := newWorkspace(t)
	_, err := execute(t, "add", w.container, w.file(t, "p", notes), "-s", w.file(t, "k", "key"),
		"--whitener", "rot13")
	if !errors.Is(err, hypercube.ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}
	if _, statErr := os.Stat(w.container); !os.IsNotExist(statErr) {
		t.Error("a rejected add created the container")
	}
}

func TestSealInfoBlocksStats(t *testing.T) {
	w := newWorkspace(t)
	mustExecute(t, "add", w.container, w.file(t, "p", notes), "-s", w.file(t, "k", "key"), "--cube", "3")

	var sealed sealResult
	if err := json.Unmarshal([]byte(mustExecute(t, "seal", w.container, "--count", "40", "--json")), &sealed); err != nil {
		t.Fatal(err)
	}
	if sealed.Added != 40 {
		t.Errorf("seal --count 40 added %d", sealed.Added)
	}
	if out := mustExecute(t, "seal", w.container); out != "added 200 chaff blocks\n" {
		t.Errorf("seal output = %q", out)
	}

	var info containerInfo
	if err := json.Unmarshal([]byte(mustExecute(t, "info", w.container, "--json")), &info); err != nil {
		t.Fatal(err)
	}
	if info.Blocks != 256 || info.Capacity != 256 {
		t.Errorf("info = %d of %d blocks, want 256 of 256", info.Blocks, info.Capacity)
	}
	if info.RecordSize != cube.RecordSize(info.Header.BlockSize, info.Header.MACBits) {
		t.Errorf("record size %d disagrees with the header", info.RecordSize)
	}
	if text := mustExecute(t, "info", w.container); !strings.Contains(text, "full") ||
		!strings.Contains(text, "preset 3 (16x16)") {
		t.Errorf("info text:\n%s", text)
	}

	var entries []blockEntry
	if err := json.Unmarshal([]byte(mustExecute(t, "blocks", w.container, "--offset", "250", "--json", "--mac")), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 6 || entries[0].Index != 250 {
		t.Fatalf("blocks --offset 250 = %+v", entries)
	}
	for _, entry := range entries {
		if len(entry.Sequence) != 2*cube.SequenceSize || len(entry.MAC) != info.Header.MACBits/4 {
			t.Errorf("entry %+v has wrong field lengths", entry)
		}
	}
	if text := mustExecute(t, "blocks", w.container, "--limit", "3"); strings.Count(text, "\n") != 3 {
		t.Errorf("blocks --limit 3 printed:\n%s", text)
	}

	var report blockstats.Report
	if err := json.Unmarshal([]byte(mustExecute(t, "stats", w.container, "--json")), &report); err != nil {
		t.Fatal(err)
	}
	if report.Blocks != 256 || report.Payloads.Bytes != int64(256*info.Header.BlockSize) {
		t.Errorf("stats covered %d blocks and %d payload bytes", report.Blocks, report.Payloads.Bytes)
	}
	if text := mustExecute(t, "stats", w.container); !strings.Contains(text, "payloads") {
		t.Errorf("stats text:\n%s", text)
	}

	_, err := execute(t, "add", w.container, w.file(t, "p2", notes), "-s", w.file(t, "k2", "other"))
	if !errors.Is(err, hypercube.ErrCubeFull) {
		t.Errorf("add to a sealed container: err = %v, want ErrCubeFull", err)
	}
	var after containerInfo
	if err := json.Unmarshal([]byte(mustExecute(t, "info", w.container, "--json")), &after); err != nil {
		t.Fatal(err)
	}
	if after.Fingerprint != info.Fingerprint {
		t.Errorf("rejected add changed the file: fingerprint %s, was %s", after.Fingerprint, info.Fingerprint)
	}
}

func TestAnalyze(t *testing.T) {
	w := newWorkspace(t)
	// A 5120-byte stream once the metadata record is prefixed.
	payload := w.file(t, "p", strings.Repeat("x", 5120-cube.MetadataSize))

	var report cube.Report
	out := mustExecute(t, "analyze", payload, "--compression", "none", "--json")
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.Preset.Compartments != 32 || report.Layout.BlockSize != 162 || report.OriginalSize != 5120-cube.MetadataSize {
		t.Errorf("analyze report = %+v", report)
	}
	if _, err := os.Stat(w.container); !os.IsNotExist(err) {
		t.Error("analyze wrote a container")
	}
}

func TestWrappedSecret(t *testing.T) {
	w := newWorkspace(t)
	identity := filepath.Join(w.dir, "identity.txt")
	publicKey := strings.TrimSpace(mustExecute(t, "secret", "keygen", "-o", identity))
	if !strings.HasPrefix(publicKey, "age1") {
		t.Fatalf("keygen printed %q, want a public key", publicKey)
	}
	if _, err := execute(t, "secret", "keygen", "-o", identity); err == nil {
		t.Error("keygen overwrote an existing identity")
	}

	plain := w.file(t, "plain.key", "a long passphrase\n")
	wrapped := filepath.Join(w.dir, "plain.key.age")
	mustExecute(t, "secret", "wrap", "-s", plain, "-r", publicKey, "-o", wrapped)

	payload := w.file(t, "p", notes)
	mustExecute(t, "add", w.container, payload, "-s", wrapped, "-i", identity, "--dimension", "8")

	// The wrapped file carries the same secret as the plain one.
	if out := mustExecute(t, "extract", w.container, "-s", plain); out != notes {
		t.Errorf("extract with the plain secret = %q", out)
	}

	_, err := execute(t, "extract", w.container, "-s", wrapped)
	if !errors.Is(err, hypercube.ErrConfig) || !strings.Contains(err.Error(), "--identity") {
		t.Errorf("wrapped secret without identity: err = %v", err)
	}

	configPath := w.file(t, "config.yaml", "secrets:\n  identity: "+identity+"\n")
	if out := mustExecute(t, "extract", w.container, "-s", wrapped, "--config", configPath); out != notes {
		t.Errorf("extract with the identity from config = %q", out)
	}

	if _, err := execute(t, "secret", "wrap", "-s", plain); !errors.Is(err, hypercube.ErrConfig) {
		t.Errorf("wrap without recipients: err = %v", err)
	}
}

func TestUsageErrors(t *testing.T) {
	w := newWorkspace(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"add without payload", []string{"add", w.container}, "missing argument"},
		{"info with two paths", []string{"info", "a", "b"}, `unexpected argument "b"`},
		{"both stdin", []string{"add", w.container, "-", "-s", "-"}, "cannot both be stdin"},
		{"negative offset", []string{"blocks", w.container, "--offset", "-1"}, "must not be negative"},
		{"unknown command", []string{"extrcat"}, `did you mean "extract"`},
		{"empty secret", []string{"extract", w.container, "-s", w.file(t, "empty", " \n")}, "is empty"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, test.args...)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("err = %v, want it to contain %q", err, test.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	var build struct {
		Version       string `json:"version"`
		FormatVersion int    `json:"format_version"`
	}
	if err := json.Unmarshal([]byte(mustExecute(t, "version", "--json")), &build); err != nil {
		t.Fatal(err)
	}
	if build.Version == "" || build.FormatVersion != 1 {
		t.Errorf("version = %+v", build)
	}
	if out := mustExecute(t, "version"); !strings.HasPrefix(out, "hypercube ") {
		t.Errorf("version output = %q", out)
	}
}

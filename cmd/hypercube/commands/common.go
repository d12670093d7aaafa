// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/hypercube/cmd/hypercube/cli"
	"github.com/bureau-foundation/hypercube/lib/config"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
	"github.com/bureau-foundation/hypercube/lib/sealed"
	"github.com/bureau-foundation/hypercube/lib/secret"
)

// Styles for terminal output. lipgloss drops the escapes when stdout
// is not a terminal.
var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// ConfigParams are the flags every container command accepts. Exported
// because [cli.BindFlags] cannot reach fields of unexported embedded
// structs.
type ConfigParams struct {
	Config   string `flag:"config" desc:"config file (default $HYPERCUBE_CONFIG)"`
	LogLevel string `flag:"log-level" desc:"debug, info, warn or error (overrides config)"`
	Workers  int    `flag:"workers" desc:"parallel stage workers; 0 uses the config value, then GOMAXPROCS"`
}

// environment is the resolved configuration and logger for one run.
type environment struct {
	config *config.Config
	logger *slog.Logger
}

// load reads the config file named by --config or HYPERCUBE_CONFIG,
// falling back to [config.Default] when neither is set, and applies
// flag overrides.
func (p *ConfigParams) load() (*environment, error) {
	path := p.Config
	if path == "" {
		path = os.Getenv(config.EnvironmentVariable)
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if p.LogLevel != "" {
		cfg.LogLevel = p.LogLevel
	}
	if p.Workers != 0 {
		cfg.Workers = p.Workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return &environment{config: cfg, logger: cli.NewCommandLogger(level)}, nil
}

func (e *environment) cube(quietStages bool) *hypercube.Cube {
	return hypercube.New(hypercube.Options{
		Logger:      e.logger,
		Workers:     e.config.Workers,
		QuietStages: quietStages || e.config.Extract.QuietStages,
	})
}

// SecretParams locate the compartment secret.
type SecretParams struct {
	SecretFile string `flag:"secret-file,s" desc:"file holding the secret, - for stdin; age-wrapped files are unwrapped"`
	Identity   string `flag:"identity,i" desc:"age identity file for wrapped secrets (default secrets.identity from config)"`
}

// read returns the secret from --secret-file, or prompts for it when
// stdin is a terminal. The caller must Close the buffer.
func (p *SecretParams) read(cfg *config.Config) (*secret.Buffer, error) {
	if p.SecretFile == "" {
		buffer, err := secret.ReadFromTerminal(int(os.Stdin.Fd()), os.Stderr, "Secret: ")
		if err != nil {
			return nil, fmt.Errorf("no --secret-file given and no passphrase read: %w", err)
		}
		return buffer, nil
	}

	data, err := readInput(p.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	defer secret.Zero(data)

	if sealed.IsWrapped(data) {
		return p.unwrap(data, cfg)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: secret file %s is empty", fault.ErrConfig, p.SecretFile)
	}
	return secret.NewFromBytes(trimmed)
}

func (p *SecretParams) unwrap(data []byte, cfg *config.Config) (*secret.Buffer, error) {
	identityPath := p.Identity
	if identityPath == "" {
		identityPath = cfg.Secrets.Identity
	}
	if identityPath == "" {
		return nil, fmt.Errorf("%w: %s is age-wrapped; pass --identity or set secrets.identity",
			fault.ErrConfig, p.SecretFile)
	}
	identity, err := secret.ReadFromPath(identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity %s: %w", identityPath, err)
	}
	defer identity.Close()
	return sealed.Unwrap(data, identity)
}

// GeometryParams override the container geometry and algorithms.
type GeometryParams struct {
	Cube        int    `flag:"cube" desc:"cube preset: 1 (32x32), 2 (64x64) or 3 (16x16)"`
	Dimension   int    `flag:"dimension" desc:"custom NxN cube; overrides --cube"`
	BlockSize   int    `flag:"block-size" desc:"fixed block payload size in bytes (default fitted to the payload)"`
	MACBits     int    `flag:"mac-bits" desc:"MAC length: 128, 256 or 512"`
	Compression string `flag:"compression" desc:"zstd, lz4, brotli or none"`
	Shuffle     string `flag:"shuffle" desc:"fragment permutation: feistel or fisher-yates"`
	Whitener    string `flag:"whitener" desc:"whitening keystream: keccak or xor"`
	AONT        string `flag:"aont" desc:"all-or-nothing transform: rivest or oaep"`
	Hash        string `flag:"hash" desc:"block MAC hash: sha3, blake3 or sha256"`
}

// options converts explicit flags to AddOptions. When withDefaults is
// set, config defaults fill what the flags leave unspecified; that is
// only wanted for a container that has no header yet, since defaults
// that disagree with an existing header would be rejected.
func (p *GeometryParams) options(defaults config.DefaultsConfig, withDefaults bool) (hypercube.AddOptions, error) {
	merged := config.DefaultsConfig{}
	if withDefaults {
		merged = defaults
		if p.Cube != 0 && p.Dimension == 0 {
			merged.Dimension = 0
		}
	}
	if p.Cube != 0 {
		merged.Cube = p.Cube
	}
	if p.Dimension != 0 {
		merged.Dimension = p.Dimension
	}
	if p.MACBits != 0 {
		merged.MACBits = p.MACBits
	}
	for _, override := range []struct {
		flag   string
		target *string
	}{
		{p.Compression, &merged.Compression},
		{p.Shuffle, &merged.Shuffle},
		{p.Whitener, &merged.Whitener},
		{p.AONT, &merged.AONT},
		{p.Hash, &merged.Hash},
	} {
		if override.flag != "" {
			*override.target = override.flag
		}
	}

	options, err := merged.AddOptions()
	if err != nil {
		return hypercube.AddOptions{}, fmt.Errorf("%w: %w", fault.ErrConfig, err)
	}
	options.BlockSize = p.BlockSize
	return options, nil
}

// hasHeader reports whether path holds a readable container header.
func hasHeader(path string) bool {
	_, err := hypercube.LoadHeader(path)
	return err == nil
}

// readInput reads a whole file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: reading stdin: %w", fault.ErrIO, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrIO, err)
	}
	return data, nil
}

// requireArgs checks the positional argument count.
func requireArgs(args []string, want int, usage string) error {
	if len(args) < want {
		return fmt.Errorf("missing argument\n\nUsage: %s", usage)
	}
	if len(args) > want {
		return fmt.Errorf("unexpected argument %q\n\nUsage: %s", args[want], usage)
	}
	return nil
}

// verdict renders a pass/fail word.
func verdict(ok bool, pass, fail string) string {
	if ok {
		return passStyle.Render(pass)
	}
	return failStyle.Render(fail)
}

// isNoCompartment reports the one extraction outcome that is an answer
// rather than a failure.
func isNoCompartment(err error) bool {
	return errors.Is(err, hypercube.ErrWrongSecretOrEmptyCompartment)
}

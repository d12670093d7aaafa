// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/hypercube/lib/aont"
	"github.com/bureau-foundation/hypercube/lib/blockmac"
	"github.com/bureau-foundation/hypercube/lib/compress"
	"github.com/bureau-foundation/hypercube/lib/cube"
	"github.com/bureau-foundation/hypercube/lib/fault"
	"github.com/bureau-foundation/hypercube/lib/hypercube"
	"github.com/bureau-foundation/hypercube/lib/permute"
	"github.com/bureau-foundation/hypercube/lib/whiten"
)

// EnvironmentVariable names the config file for [Load].
const EnvironmentVariable = "HYPERCUBE_CONFIG"

// Config is the complete hypercube configuration.
type Config struct {
	// Defaults apply to the first compartment of a new container.
	Defaults DefaultsConfig `yaml:"defaults" json:"defaults"`

	// Workers bounds parallel stage goroutines. 0 means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Extract ExtractConfig `yaml:"extract" json:"extract"`
	Secrets SecretsConfig `yaml:"secrets" json:"secrets"`
}

// DefaultsConfig names the geometry and algorithms for new containers.
// Algorithm names are those accepted by each package's Parse.
type DefaultsConfig struct {
	Cube      int `yaml:"cube" json:"cube"`
	Dimension int `yaml:"dimension" json:"dimension"`
	MACBits   int `yaml:"mac_bits" json:"mac_bits"`

	Compression string `yaml:"compression" json:"compression"`
	Shuffle     string `yaml:"shuffle" json:"shuffle"`
	Whitener    string `yaml:"whitener" json:"whitener"`
	AONT        string `yaml:"aont" json:"aont"`
	Hash        string `yaml:"hash" json:"hash"`
}

// ExtractConfig tunes extraction.
type ExtractConfig struct {
	// QuietStages drops the failing stage name from extraction
	// errors, for use where error text reaches an adversary.
	QuietStages bool `yaml:"quiet_stages" json:"quiet_stages"`
}

// SecretsConfig locates key material for wrapped secret files.
type SecretsConfig struct {
	// Identity is an age identity file used to unwrap secret files
	// when no --identity flag is given.
	Identity string `yaml:"identity" json:"identity"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Cube:        cube.DefaultPreset,
			MACBits:     blockmac.DefaultBits,
			Compression: compress.Zstd.String(),
			Shuffle:     permute.Feistel.String(),
			Whitener:    whiten.Keccak.String(),
			AONT:        aont.Rivest.String(),
			Hash:        blockmac.SHA3.String(),
		},
		LogLevel: "info",
	}
}

// Load loads the file named by HYPERCUBE_CONFIG. It fails when the
// variable is unset; callers that treat the file as optional check
// the variable first.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%w: %s environment variable not set; "+
			"set it to the path of a hypercube config file, or use --config",
			fault.ErrConfig, EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads and validates the file at path over [Default].
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrIO, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("%w: parsing %s: %w", fault.ErrConfig, path, err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: parsing %s: %w", fault.ErrConfig, path, err)
		}
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Secrets.Identity = expandVars(c.Secrets.Identity, map[string]string{
		"HOME": os.Getenv("HOME"),
	})
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks every field. All failures are [fault.ErrConfig].
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Defaults.AddOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.Defaults.Cube != 0 && c.Defaults.Dimension == 0 {
		if _, err := cube.Lookup(c.Defaults.Cube); err != nil {
			errs = append(errs, fmt.Errorf("defaults.cube: %w", err))
		}
	}
	if c.Defaults.Dimension != 0 {
		if _, err := cube.Custom(c.Defaults.Dimension); err != nil {
			errs = append(errs, fmt.Errorf("defaults.dimension: %w", err))
		}
	}
	if c.Defaults.MACBits != 0 && !blockmac.ValidBits(c.Defaults.MACBits) {
		errs = append(errs, fmt.Errorf("defaults.mac_bits must be one of 128, 256, 512, got %d", c.Defaults.MACBits))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", fault.ErrConfig, errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}

// AddOptions converts the defaults into facade options. Empty
// algorithm names stay unspecified.
func (d DefaultsConfig) AddOptions() (hypercube.AddOptions, error) {
	options := hypercube.AddOptions{
		Cube:      d.Cube,
		Dimension: d.Dimension,
		MACBits:   d.MACBits,
	}
	var errs []error
	parse := func(field, name string, into func(string) error) {
		if name == "" {
			return
		}
		if err := into(name); err != nil {
			errs = append(errs, fmt.Errorf("defaults.%s: %w", field, err))
		}
	}
	parse("compression", d.Compression, func(name string) (err error) {
		options.Compression, err = compress.Parse(name)
		return err
	})
	parse("shuffle", d.Shuffle, func(name string) (err error) {
		options.Shuffle, err = permute.Parse(name)
		return err
	})
	parse("whitener", d.Whitener, func(name string) (err error) {
		options.Whitener, err = whiten.Parse(name)
		return err
	})
	parse("aont", d.AONT, func(name string) (err error) {
		options.AONT, err = aont.Parse(name)
		return err
	})
	parse("hash", d.Hash, func(name string) (err error) {
		options.Hash, err = blockmac.Parse(name)
		return err
	})
	if len(errs) > 0 {
		return hypercube.AddOptions{}, errors.Join(errs...)
	}
	return options, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads hypercube's optional configuration file.
//
// The file is named by the HYPERCUBE_CONFIG environment variable (via
// [Load]) or a --config flag (via [LoadFile]). There is no discovery
// and no per-field environment override: what the file says, plus
// [Default] for anything it omits, is the configuration.
//
// Files ending in .json or .jsonc are parsed as JSON with comments and
// trailing commas; anything else is YAML.
//
// The file supplies defaults for new containers (cube geometry and
// algorithms), the worker count, the log level, the default age
// identity for unwrapping secret files, and whether extraction errors
// name the failing stage. ${HOME} and ${VAR:-default} are expanded in
// path fields.
package config

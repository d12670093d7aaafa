// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the hypercube
// binary.
//
// A [Command] is a tree node with a name, help text, optional
// subcommands and a Run function. Flags are declared either with an
// explicit Flags function or, more commonly, by tagging the fields of
// a params struct (flag, desc and default tags) and returning it from
// Params; [FlagsFromParams] binds those fields to a pflag.FlagSet.
// Unknown commands and flags get "did you mean" suggestions.
//
// Commands that support machine-readable output embed [JSONOutput].
// Commands whose non-zero exit is an expected outcome return an
// [ExitError], which main turns into an exit code without printing.
package cli

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the hypercube binary.
//
// Three package-level variables may be injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When they are not injected, [Read] falls back to the VCS stamp the
// Go toolchain embeds (runtime/debug.ReadBuildInfo), so a plain
// `go build` inside a checkout still reports its revision.
//
// The container format version is separate and lives in the header
// (container.FormatVersion); [Full] reports both.
package version

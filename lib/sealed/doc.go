// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed wraps hypercube secrets for storage at rest with age.
//
// A compartment secret is only as safe as the file it is kept in.
// [Wrap] encrypts a secret to one or more age x25519 recipients and
// writes it ASCII-armored, so a wrapped secret file can sit next to the
// container without revealing anything. [Unwrap] reverses it with an
// identity file. [IsWrapped] lets callers accept plain and wrapped
// secret files through one flag.
//
// Identities and unwrapped secrets are held in [secret.Buffer] values
// and never in ordinary heap slices beyond the unavoidable parse step.
package sealed

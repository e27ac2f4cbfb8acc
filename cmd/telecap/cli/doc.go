// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the telecap binary.
//
// A [Command] is a named node with an optional pflag set, nested
// subcommands, and a Run function that receives the process context.
// [Command.Execute] routes the first positional argument to a
// subcommand, parses flags, and prints structured help. Unknown
// commands and flags get a "did you mean" suggestion when one is within
// edit distance 3.
package cli

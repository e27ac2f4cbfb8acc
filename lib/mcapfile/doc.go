// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcapfile reads and writes MCAP files.
//
// [Writer] is the structured log writer behind a file sink: it creates
// the file, registers schemas and channels, and appends timestamped
// messages into chunks compressed with zstd (klauspost/compress) or
// lz4 (pierrec/lz4). Closing writes the summary section and indexes.
//
// [Reader] opens a file for playback. It reads the summary when one is
// present and falls back to a linear scan for files that were never
// closed. Each call to [Reader.Messages] returns an independent,
// forward-only [Iterator] over one topic backed by its own file
// handle, so cursors on different channels never disturb each other.
package mcapfile

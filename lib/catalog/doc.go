// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog tracks, per sink, which channels exist and which
// schema each one was registered with.
//
// A channel is registered at most once. The first write on a channel
// either supplies an explicit [Definition] (the foxglove well-known
// shapes, or a caller schema) or lets [Infer] derive one from the
// sample. Registration goes through a [Registrar] supplied by the sink,
// which creates the schema and channel in the container or on the
// live server and returns the id messages are written with.
//
// Redefining a channel is allowed only with a byte-for-byte equivalent
// schema (compared by BLAKE3 fingerprint of the compacted document);
// anything else fails with [ErrConflict] and leaves the original entry
// in place, so the messages already written keep a valid schema.
package catalog

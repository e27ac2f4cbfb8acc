// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration used for channels
// whose message encoding is "cbor".
//
// telecap builds every message as JSON. A sink configured for CBOR
// transcodes each JSON payload with [FromJSON] just before it reaches
// the container or the live server, and the reader reverses the step
// with [ToJSON] so callers always see JSON. Schemas stay JSON Schema
// in both cases, which is what MCAP viewers expect for cbor channels.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys and the smallest integer encoding, so the same document
// always produces the same bytes.
package codec

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink implements the destinations telemetry is written to.
//
// A [Sink] is either a [FileSink], which records into an MCAP file, or
// a [NetworkSink], which streams to Foxglove viewers over a websocket.
// Both share one write pipeline:
//
//   - Producers call typed methods (PushSample, WriteImage, WriteLog,
//     WriteObject, AddPosition, ...) from any goroutine. Each call
//     builds or stages its message and returns without writing a
//     message to the file or the network.
//   - Expensive conversions (JPEG encoding and downscaling, calibration
//     and log documents, raw JSON text) are staged and performed by the
//     worker, so the producer's goroutine never pays for them.
//   - One worker goroutine per sink wakes when work arrives or on the
//     flush interval (16 ms by default), takes everything pending in a
//     single lock acquisition, converts staged items first, then writes
//     the main queue in FIFO order.
//   - The first write on a channel registers its schema on the
//     producer's goroutine, before the message is queued: explicit for
//     the foxglove well-known shapes, inferred from the sample for free
//     JSON. A conflicting schema is reported to that producer. See
//     package catalog.
//
// Every enqueued item carries a sequence number. After each cycle the
// worker publishes the highest sequence it has flushed, and a sink in
// sync mode blocks each producer until its own item is flushed, bounded
// by the sync timeout. Write failures inside the worker are logged,
// counted in [Stats] and metrics, and never stop the pipeline.
//
// Close stops intake, lets the worker drain everything already queued,
// then releases the file or server.
package sink

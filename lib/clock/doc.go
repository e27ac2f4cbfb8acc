// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used by sink workers.
//
// Sinks never call time.Now, time.After, or time.NewTicker directly.
// They accept a Clock so the flush cadence and the synchronous-write
// timeout can be driven deterministically in tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s, _ := sink.OpenFile(path, sink.FileOptions{Options: sink.Options{Clock: c}})
//	c.WaitForTimers(1)               // worker registered its flush ticker
//	c.Advance(16 * time.Millisecond) // one flush cycle
//
// Real() is the production implementation.
package clock

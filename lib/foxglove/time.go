// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package foxglove

import "math"

const nanosPerSecond = 1_000_000_000

// Time is a point in time split into whole seconds and nanoseconds.
type Time struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

// Duration has the same wire shape as Time.
type Duration struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

// MaxNanos is the latest timestamp a Time can hold, early in 2106.
const MaxNanos = math.MaxUint32*nanosPerSecond + nanosPerSecond - 1

// FromNanos splits a nanosecond timestamp into {sec: ts/1e9,
// nsec: ts%1e9}. Seconds are 32 bits on the wire, so timestamps past
// MaxNanos saturate to MaxNanos.
func FromNanos(timestamp uint64) Time {
	if timestamp > MaxNanos {
		timestamp = MaxNanos
	}
	return Time{
		Sec:  uint32(timestamp / nanosPerSecond),
		Nsec: uint32(timestamp % nanosPerSecond),
	}
}

// Nanos is the inverse of FromNanos.
func (t Time) Nanos() uint64 {
	return uint64(t.Sec)*nanosPerSecond + uint64(t.Nsec)
}

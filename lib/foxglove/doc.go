// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package foxglove defines the Go shapes of the foxglove well-known
// messages that telecap writes, and the JSON Schemas that describe
// them.
//
// Every message serializes with encoding/json to the field names the
// Foxglove viewers expect. The schemas returned by [Schema] are
// generated from these structs, so a message built here always
// validates against the schema registered for its channel.
//
// Timestamps are nanoseconds since the Unix epoch throughout telecap;
// [FromNanos] splits them into the {sec, nsec} pair the messages carry.
// Poses arrive as 4x4 homogeneous matrices and are converted with
// [Matrix4.Pose].
package foxglove

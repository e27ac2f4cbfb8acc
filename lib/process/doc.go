// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for telecap binaries: the
// error report and exit that happen before the structured logger exists
// or after main has given up.
package process

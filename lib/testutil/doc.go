// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for telecap packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests never hang on a channel. [RequireEventually] polls
// state owned by a sink worker. These are the only helpers that use
// the wall clock; pipeline timing in tests goes through clock.Fake.
//
// [Gradient] and [PSNR] build and compare test images for the JPEG
// path. [UniqueID] generates distinct channel and connection names.
//
// Helpers call t.Fatalf on failure rather than returning errors.
// This package has no telecap-internal dependencies.
package testutil

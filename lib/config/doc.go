// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads telecap configuration from YAML.
//
// Configuration comes from a single file named by the TELECAP_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no discovery and no merging of several files.
//
// The file describes the write pipeline shared by every sink, the
// sinks to open (file or network), the Prometheus listen address, and
// explicit channel schemas kept in JSONC files next to the config.
//
// After loading, ${VAR} and ${VAR:-default} patterns are expanded in
// paths and hosts. Two environment variables override file values:
// TELECAP_LOG_LEVEL and TELECAP_METRICS_LISTEN. Nothing else does.
//
// [Config.Validate] reports every problem at once rather than stopping
// at the first.
package config

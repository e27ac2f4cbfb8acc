// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the telecap build.
//
// Release builds inject the commit and build time with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/telecap/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/telecap
//
// Builds without ldflags fall back to the VCS stamp the Go toolchain
// embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via -ldflags.
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

var stampOnce sync.Once

// stamp fills unset variables from the embedded build info.
func stamp() {
	stampOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" && len(setting.Value) >= 12 {
					GitCommit = setting.Value[:12]
				}
			case "vcs.time":
				if BuildTime == "unknown" {
					BuildTime = setting.Value
				}
			case "vcs.modified":
				if setting.Value == "true" {
					GitDirty = "true"
				}
			}
		}
	})
}

// Info returns "version (commit[-dirty], build time)".
func Info() string {
	stamp()
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns the version number. File sinks record it as the MCAP
// library string.
func Short() string {
	return Version
}

// Commit returns the git commit.
func Commit() string {
	stamp()
	return GitCommit
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the telecap command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/telecap/cmd/telecap/cli"
	"github.com/bureau-foundation/telecap/lib/version"
)

// Root returns the telecap command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "telecap",
		Description: `telecap: telemetry capture for robotics and vision.

Record images, 3D scenes, transforms, logs and free-form JSON to MCAP
files, stream them live to Foxglove-compatible viewers, and read
recordings back.`,
		Subcommands: []*cli.Command{
			demoCommand(),
			inspectCommand(os.Stdout),
			versionCommand(os.Stdout),
		},
	}
}

func versionCommand(stdout io.Writer) *cli.Command {
	var full bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print the telecap version",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include Go version and platform")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: version takes no arguments", cli.ErrUsage)
			}
			if full {
				fmt.Fprintln(stdout, version.Full())
			} else {
				fmt.Fprintln(stdout, version.Info())
			}
			return nil
		},
	}
}

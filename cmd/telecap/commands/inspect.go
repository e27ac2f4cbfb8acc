// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/telecap/cmd/telecap/cli"
	"github.com/bureau-foundation/telecap/lib/codec"
	"github.com/bureau-foundation/telecap/lib/reader"
)

type inspectParams struct {
	channel string
	limit   int
	full    bool
	diag    bool
	schema  bool
	extract string
	json    bool
}

// channelSummary is one row of the channel listing.
type channelSummary struct {
	Channel  string `json:"channel"`
	Type     string `json:"type"`
	Schema   string `json:"schema"`
	Messages int    `json:"messages"`
}

// dumpedMessage is one message in --json dump output.
type dumpedMessage struct {
	Timestamp uint64 `json:"timestamp"`
	Data      string `json:"data"`
}

// previewLimit is the number of payload bytes shown per message
// without --full.
const previewLimit = 160

func inspectCommand(stdout io.Writer) *cli.Command {
	var params inspectParams
	return &cli.Command{
		Name:    "inspect",
		Summary: "List channels in a recording or dump one channel",
		Description: `Read a recording written by a file sink.

Without --channel, list every channel with its type, schema and message
count. With --channel, print its messages in order. Log channels are
printed as log lines; image channels can be extracted to PNG files with
--extract.`,
		Usage: "telecap inspect <file> [flags]",
		Examples: []cli.Example{
			{Description: "List channels", Command: "telecap inspect run.mcap"},
			{Description: "Show the first five IMU samples", Command: "telecap inspect run.mcap --channel sensors/imu --limit 5"},
			{Description: "Save camera frames", Command: "telecap inspect run.mcap --channel camera/image --extract frames/"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.StringVarP(&params.channel, "channel", "c", "", "channel to dump")
			flagSet.IntVarP(&params.limit, "limit", "n", 0, "stop after this many messages (0 for all)")
			flagSet.BoolVar(&params.full, "full", false, "print whole payloads instead of a preview")
			flagSet.BoolVar(&params.diag, "diag", false, "print payloads in CBOR diagnostic notation")
			flagSet.BoolVar(&params.schema, "schema", false, "print the channel schema instead of messages")
			flagSet.StringVar(&params.extract, "extract", "", "write image frames as PNG files to this directory")
			flagSet.BoolVar(&params.json, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: inspect takes exactly one file", cli.ErrUsage)
			}
			return runInspect(stdout, args[0], params)
		},
	}
}

func runInspect(stdout io.Writer, path string, params inspectParams) error {
	recording, err := reader.Open(path)
	if err != nil {
		return err
	}
	defer recording.Close()

	if params.channel == "" {
		return listChannels(stdout, recording, params.json)
	}

	channels := recording.Channels()
	kind, ok := channels[params.channel]
	if !ok {
		return fmt.Errorf("%w: %q", reader.ErrUnknownChannel, params.channel)
	}

	switch {
	case params.schema:
		name, data, err := recording.Schema(params.channel)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "# %s\n%s\n", name, data)
		return nil
	case params.extract != "":
		return extractImages(stdout, recording, params)
	case kind == reader.Log && !params.json && !params.diag:
		return dumpLogs(stdout, recording, params)
	default:
		return dumpMessages(stdout, recording, params)
	}
}

// listChannels reads every channel to the end to count its messages.
func listChannels(stdout io.Writer, recording *reader.Reader, asJSON bool) error {
	channels := recording.Channels()
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]channelSummary, 0, len(names))
	for _, name := range names {
		schemaName, _, err := recording.Schema(name)
		if err != nil {
			return err
		}
		count := 0
		for {
			_, err := recording.NextMessage(name)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			count++
		}
		summaries = append(summaries, channelSummary{
			Channel:  name,
			Type:     channels[name].String(),
			Schema:   schemaName,
			Messages: count,
		})
	}

	if asJSON {
		return cli.WriteJSON(stdout, summaries)
	}
	tw := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tTYPE\tSCHEMA\tMESSAGES")
	for _, summary := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", summary.Channel, summary.Type, summary.Schema, summary.Messages)
	}
	return tw.Flush()
}

func dumpMessages(stdout io.Writer, recording *reader.Reader, params inspectParams) error {
	var dumped []dumpedMessage
	for count := 0; params.limit == 0 || count < params.limit; count++ {
		message, err := recording.NextMessage(params.channel)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		text := string(message.Data)
		if params.diag {
			encoded, err := codec.FromJSON(message.Data)
			if err != nil {
				return err
			}
			if text, err = codec.Diagnose(encoded); err != nil {
				return err
			}
		}
		if !params.full && len(text) > previewLimit {
			text = text[:previewLimit] + "..."
		}

		if params.json {
			dumped = append(dumped, dumpedMessage{Timestamp: message.Timestamp, Data: text})
			continue
		}
		fmt.Fprintf(stdout, "%s  %s\n", formatTimestamp(message.Timestamp), text)
	}
	if params.json {
		return cli.WriteJSON(stdout, dumped)
	}
	return nil
}

func dumpLogs(stdout io.Writer, recording *reader.Reader, params inspectParams) error {
	for count := 0; params.limit == 0 || count < params.limit; count++ {
		entry, err := recording.NextLog(params.channel)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		source := entry.Name
		if entry.File != "" {
			source = fmt.Sprintf("%s %s:%d", entry.Name, entry.File, entry.Line)
		}
		fmt.Fprintf(stdout, "%s  %-7s %s: %s\n", formatTimestamp(entry.Timestamp), entry.Level, source, entry.Message)
	}
	return nil
}

func extractImages(stdout io.Writer, recording *reader.Reader, params inspectParams) error {
	if err := os.MkdirAll(params.extract, 0755); err != nil {
		return err
	}
	count := 0
	for params.limit == 0 || count < params.limit {
		frame, err := recording.NextImage(params.channel)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		path := filepath.Join(params.extract, fmt.Sprintf("frame_%06d.png", count))
		if err := writePNG(path, frame); err != nil {
			return err
		}
		count++
	}
	fmt.Fprintf(stdout, "extracted %d frames to %s\n", count, params.extract)
	return nil
}

func writePNG(path string, frame reader.ImageFrame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, frame.Image); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return file.Close()
}

func formatTimestamp(timestamp uint64) string {
	return time.Unix(0, int64(timestamp)).UTC().Format("2006-01-02T15:04:05.000000Z")
}

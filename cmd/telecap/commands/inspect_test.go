// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/telecap/cmd/telecap/cli"
	"github.com/bureau-foundation/telecap/lib/reader"
)

func TestInspectListsChannels(t *testing.T) {
	path := recordDemo(t, 3, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{json: true}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	var summaries []channelSummary
	if err := json.Unmarshal(output.Bytes(), &summaries); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, output.String())
	}

	byName := make(map[string]channelSummary)
	for _, summary := range summaries {
		byName[summary.Channel] = summary
	}
	image := byName[channelImage]
	if image.Type != "image" || image.Messages != 3 || image.Schema != "foxglove.CompressedImage" {
		t.Errorf("camera/image summary = %+v", image)
	}
	if byName[objectGround].Messages != 1 {
		t.Errorf("ground summary = %+v", byName[objectGround])
	}
}

func TestInspectTable(t *testing.T) {
	path := recordDemo(t, 1, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if !strings.HasPrefix(lines[0], "CHANNEL") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(output.String(), "sensors/imu") {
		t.Errorf("table missing sensors/imu:\n%s", output.String())
	}
}

func TestInspectDumpsChannel(t *testing.T) {
	path := recordDemo(t, 4, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{channel: channelIMU, limit: 2, json: true}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	var messages []dumpedMessage
	if err := json.Unmarshal(output.Bytes(), &messages); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if !strings.Contains(messages[1].Data, `"frame":1`) {
		t.Errorf("second sample = %s", messages[1].Data)
	}
	if messages[0].Timestamp > messages[1].Timestamp {
		t.Errorf("messages out of order: %d then %d", messages[0].Timestamp, messages[1].Timestamp)
	}
}

func TestInspectPreviewTruncates(t *testing.T) {
	path := recordDemo(t, 1, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{channel: channelImage}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(output.String()), "...") {
		t.Errorf("image payload not truncated: %.200s", output.String())
	}
}

func TestInspectLogs(t *testing.T) {
	path := recordDemo(t, 1, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{channel: channelLog}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	if !strings.Contains(output.String(), "INFO") || !strings.Contains(output.String(), "demo: completed frame 0") {
		t.Errorf("log output = %q", output.String())
	}
}

func TestInspectDiag(t *testing.T) {
	path := recordDemo(t, 1, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{channel: channelDiagnostics, diag: true, full: true}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	if !strings.Contains(output.String(), `"status": "ok"`) {
		t.Errorf("diagnostic output = %q", output.String())
	}
}

func TestInspectSchema(t *testing.T) {
	path := recordDemo(t, 1, "json")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{channel: channelIMU, schema: true}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	if !strings.HasPrefix(output.String(), "# "+channelIMU) {
		t.Errorf("schema output = %q", output.String())
	}
	if !strings.Contains(output.String(), `"accel"`) {
		t.Errorf("inferred schema missing accel property: %s", output.String())
	}
}

func TestInspectExtractsImages(t *testing.T) {
	path := recordDemo(t, 3, "json")
	directory := filepath.Join(t.TempDir(), "frames")

	var output bytes.Buffer
	if err := runInspect(&output, path, inspectParams{channel: channelImage, extract: directory}); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Name() != "frame_000000.png" {
		t.Errorf("extracted %v", entries)
	}
}

func TestInspectUnknownChannel(t *testing.T) {
	path := recordDemo(t, 1, "json")

	err := runInspect(&bytes.Buffer{}, path, inspectParams{channel: "nope"})
	if !errors.Is(err, reader.ErrUnknownChannel) {
		t.Errorf("error = %v, want ErrUnknownChannel", err)
	}
}

func TestInspectRequiresFile(t *testing.T) {
	err := inspectCommand(&bytes.Buffer{}).Execute(context.Background(), nil)
	if !errors.Is(err, cli.ErrUsage) {
		t.Errorf("error = %v, want ErrUsage", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var output bytes.Buffer
	if err := versionCommand(&output).Execute(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if output.Len() == 0 {
		t.Error("version printed nothing")
	}
}

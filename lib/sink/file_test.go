// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"strconv"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/codec"
	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/mcapfile"
	telecaptest "github.com/bureau-foundation/telecap/lib/testutil"
)

func TestFileSinkSampleRoundTrip(t *testing.T) {
	s := openTestFile(t, FileOptions{Options: Options{Name: "capture"}})
	path := s.Path()

	for i := range 20 {
		sample := `{"index":` + strconv.Itoa(i) + `,"label":"sample","nested":{"ok":true}}`
		if err := s.PushSample("telemetry", []byte(sample), uint64(1_000_000_000+i)); err != nil {
			t.Fatalf("PushSample %d: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader, err := mcapfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	channel, ok := reader.Channel("telemetry")
	if !ok {
		t.Fatal("telemetry channel missing")
	}
	if channel.SchemaName != "telemetry" || channel.SchemaEncoding != catalog.EncodingJSONSchema || channel.MessageEncoding != EncodingJSON {
		t.Errorf("channel = %+v", channel)
	}
	schema := gjson.ParseBytes(channel.Schema)
	if schema.Get("properties.index.type").String() != "number" ||
		schema.Get("properties.label.type").String() != "string" ||
		schema.Get("properties.nested.properties.ok.type").String() != "boolean" {
		t.Errorf("inferred schema = %s", channel.Schema)
	}

	messages := readAll(t, path, "telemetry")
	if len(messages) != 20 {
		t.Fatalf("read %d messages, want 20", len(messages))
	}
	for i, message := range messages {
		want := uint64(1_000_000_000 + i)
		if message.LogTime != want || message.PublishTime != want {
			t.Errorf("message %d times = %d/%d, want %d", i, message.LogTime, message.PublishTime, want)
		}
		if gjson.GetBytes(message.Data, "index").Int() != int64(i) {
			t.Errorf("message %d = %s", i, message.Data)
		}
	}
}

func TestFileSinkImage(t *testing.T) {
	s := openTestFile(t, FileOptions{})
	original := telecaptest.Gradient(256, 256)

	if err := s.WriteImage("camera", original, 42, "camera_optical"); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	messages := readAll(t, s.Path(), "camera")
	if len(messages) != 1 {
		t.Fatalf("%d messages, want 1", len(messages))
	}
	var compressed foxglove.CompressedImage
	if err := json.Unmarshal(messages[0].Data, &compressed); err != nil {
		t.Fatalf("decoding CompressedImage: %v", err)
	}
	if compressed.Format != "jpeg" || compressed.FrameID != "camera_optical" || compressed.Timestamp.Nanos() != 42 {
		t.Errorf("image header = %+v", compressed)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(compressed.Data))
	if err != nil {
		t.Fatalf("decoding JPEG: %v", err)
	}
	if psnr := telecaptest.PSNR(original, decoded); psnr < 40 {
		t.Errorf("PSNR = %.1f dB, want >= 40", psnr)
	}
}

func TestFileSinkImageDownscale(t *testing.T) {
	s := openTestFile(t, FileOptions{Options: Options{MaxImageWidth: 64}})

	if err := s.WriteImage("camera", telecaptest.Gradient(256, 128), 1, "cam"); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	s.Close()

	messages := readAll(t, s.Path(), "camera")
	var compressed foxglove.CompressedImage
	if err := json.Unmarshal(messages[0].Data, &compressed); err != nil {
		t.Fatalf("decoding CompressedImage: %v", err)
	}
	config, err := jpeg.DecodeConfig(bytes.NewReader(compressed.Data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if config.Width != 64 || config.Height != 32 {
		t.Errorf("scaled to %dx%d, want 64x32", config.Width, config.Height)
	}
}

func TestFileSinkLogRoundTrip(t *testing.T) {
	s := openTestFile(t, FileOptions{})
	record := LogRecord{
		Timestamp: 1_700_000_000_123_456_789,
		Level:     foxglove.LogWarning,
		Message:   "battery low",
		Name:      "power",
		File:      "power.go",
		Line:      88,
	}
	if err := s.WriteLog("logs", record); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	s.Close()

	messages := readAll(t, s.Path(), "logs")
	if len(messages) != 1 {
		t.Fatalf("%d messages, want 1", len(messages))
	}
	if messages[0].LogTime != record.Timestamp {
		t.Errorf("log time = %d, want %d", messages[0].LogTime, record.Timestamp)
	}
	var got foxglove.Log
	if err := json.Unmarshal(messages[0].Data, &got); err != nil {
		t.Fatalf("decoding Log: %v", err)
	}
	want := foxglove.Log{
		Timestamp: foxglove.Time{Sec: 1_700_000_000, Nsec: 123_456_789},
		Level:     foxglove.LogWarning,
		Message:   "battery low",
		Name:      "power",
		File:      "power.go",
		Line:      88,
	}
	if got != want {
		t.Errorf("log = %+v, want %+v", got, want)
	}
}

func TestFileSinkCameraCalibration(t *testing.T) {
	s := openTestFile(t, FileOptions{})
	calibration := Calibration{
		Width:           640,
		Height:          480,
		DistortionModel: "plumb_bob",
		D:               []float64{0.1, -0.2, 0, 0, 0.05},
		K:               [9]float64{500, 0, 320, 0, 500, 240, 0, 0, 1},
	}
	if err := s.WriteCameraCalibration("calibration", calibration, 10, "cam"); err != nil {
		t.Fatalf("WriteCameraCalibration: %v", err)
	}
	s.Close()

	reader, err := mcapfile.Open(s.Path())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if channel, _ := reader.Channel("calibration"); channel.SchemaName != foxglove.CameraCalibrationSchema {
		t.Errorf("schema = %q", channel.SchemaName)
	}
	document := gjson.ParseBytes(readAll(t, s.Path(), "calibration")[0].Data)
	if document.Get("width").Int() != 640 || document.Get("K.2").Float() != 320 || document.Get("D.#").Int() != 5 {
		t.Errorf("calibration = %s", document.Raw)
	}
}

func TestFileSinkCBORChannel(t *testing.T) {
	s := openTestFile(t, FileOptions{Options: Options{Encoding: EncodingCBOR}})

	if err := s.PushSample("telemetry", []byte(`{"count":3,"name":"x","ratio":0.5}`), 9); err != nil {
		t.Fatalf("PushSample: %v", err)
	}
	s.Close()

	reader, err := mcapfile.Open(s.Path())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if channel, _ := reader.Channel("telemetry"); channel.MessageEncoding != EncodingCBOR {
		t.Errorf("message encoding = %q, want cbor", channel.MessageEncoding)
	}
	messages := readAll(t, s.Path(), "telemetry")
	if json.Valid(messages[0].Data) {
		t.Error("payload is JSON, want CBOR")
	}
	decoded, err := codec.ToJSON(messages[0].Data)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if got, want := string(decoded), `{"count":3,"name":"x","ratio":0.5}`; got != want {
		t.Errorf("decoded = %s, want %s", got, want)
	}
}

func TestFileSinkCompression(t *testing.T) {
	for _, compression := range []mcapfile.Compression{mcapfile.CompressionNone, mcapfile.CompressionLZ4, mcapfile.CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			s := openTestFile(t, FileOptions{Compression: compression, ChunkSize: 512})
			for i := range 100 {
				if err := s.AddPosition("track", foxglove.Translation(float64(i), 0, 0), uint64(i), "map"); err != nil {
					t.Fatalf("AddPosition: %v", err)
				}
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			messages := readAll(t, s.Path(), "track")
			if len(messages) != 100 {
				t.Fatalf("read %d messages, want 100", len(messages))
			}
			if n := gjson.GetBytes(messages[99].Data, "poses.#").Int(); n != 100 {
				t.Errorf("last track has %d poses, want 100", n)
			}
		})
	}
}

func TestOpenFileErrors(t *testing.T) {
	if _, err := OpenFile(t.TempDir()+"/missing/dir/file.mcap", FileOptions{Options: Options{Logger: quietLogger()}}); err == nil {
		t.Error("OpenFile in a missing directory succeeded")
	}
	if _, err := OpenFile(t.TempDir()+"/x.mcap", FileOptions{Options: Options{Encoding: "protobuf"}}); err == nil {
		t.Error("OpenFile accepted an unsupported encoding")
	}
}

// Decoded images must keep their dimensions when no width limit is set.
func TestEncodeJPEGKeepsSize(t *testing.T) {
	data, err := encodeJPEG(telecaptest.Gradient(33, 17), DefaultImageQuality, 0)
	if err != nil {
		t.Fatalf("encodeJPEG: %v", err)
	}
	config, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if config.Width != 33 || config.Height != 17 {
		t.Errorf("size = %dx%d", config.Width, config.Height)
	}
	if _, err := encodeJPEG(image.NewRGBA(image.Rect(0, 0, 0, 0)), 90, 0); err == nil {
		t.Error("empty image encoded")
	}
}

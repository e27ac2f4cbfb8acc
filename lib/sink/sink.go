// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/clock"
	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/metrics"
	"github.com/bureau-foundation/telecap/lib/scene"
)

// Kind distinguishes the sink implementations.
type Kind string

const (
	KindFile    Kind = "file"
	KindNetwork Kind = "network"
)

// Message encodings.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// Defaults for Options.
const (
	DefaultFlushInterval = 16 * time.Millisecond
	DefaultSyncTimeout   = time.Second
	DefaultImageQuality  = 95
)

var (
	// ErrClosed is returned by writes on a closed sink.
	ErrClosed = errors.New("sink closed")

	// ErrUnknownObject is returned for primitive, metadata and write
	// operations on an object that was never created on the sink.
	ErrUnknownObject = scene.ErrUnknownObject

	// ErrMalformedJSON is returned when a sample or raw message is not
	// a JSON object. The sample is dropped.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrSyncTimeout is returned in sync mode when the worker has not
	// flushed the message within the sync timeout. The message stays
	// queued and is still written.
	ErrSyncTimeout = errors.New("timed out waiting for sink flush")
)

// Sink is the contract shared by file and network sinks. All methods
// are safe for concurrent use.
type Sink interface {
	Name() string
	Kind() Kind
	IsOpen() bool
	Close() error
	SetSync(enabled bool)

	// CreateSchema registers channel with an explicit schema. An
	// identical redefinition is a no-op; a different one fails with
	// catalog.ErrConflict.
	CreateSchema(channel string, definition catalog.Definition) error
	IsSchemaPresent(channel string) bool

	// PushSample queues a JSON object on channel, inferring the
	// channel schema from it if the channel is new.
	PushSample(channel string, sample []byte, timestamp uint64) error

	// WriteImage JPEG-encodes img on the worker. img must not be
	// modified after the call.
	WriteImage(channel string, img image.Image, timestamp uint64, frameID string) error
	WriteCameraCalibration(channel string, calibration Calibration, timestamp uint64, frameID string) error
	WriteRawMessage(channel string, text string, timestamp uint64) error
	WriteLog(channel string, record LogRecord) error
	WriteFrameTransform(channel, parent, child string, pose foxglove.Matrix4, timestamp uint64) error
	WriteImageAnnotations(channel string, annotations foxglove.ImageAnnotations, timestamp uint64) error

	// CreateObject starts (or restarts) a 3D object and returns its id.
	CreateObject(name, frameID string, frameLocked bool) uint64
	AddMetadata(object, key, value string) error
	AddPrimitive(object string, primitive scene.Primitive) error

	// WriteObject publishes the object's full geometry on a channel
	// named after the object.
	WriteObject(object string, timestamp uint64) error

	// AddPosition appends pose to the track on channel and publishes
	// the retained track.
	AddPosition(channel string, pose foxglove.Matrix4, timestamp uint64, frameID string) error

	Stats() Stats
}

// Options configures the pipeline shared by every sink kind.
type Options struct {
	// Name identifies the sink in logs and metrics.
	Name string

	// Encoding is the message encoding, "json" (default) or "cbor".
	Encoding string

	// Sync starts the sink in sync mode.
	Sync bool

	// FlushInterval bounds how long a message waits for the worker
	// when no wakeup arrives. Default 16 ms.
	FlushInterval time.Duration

	// SyncTimeout bounds a sync-mode producer's wait. Default 1 s.
	SyncTimeout time.Duration

	// PositionHistory is the number of poses retained per position
	// track. Zero keeps the whole track.
	PositionHistory int

	// ImageQuality is the JPEG quality, 1-100. Default 95.
	ImageQuality int

	// MaxImageWidth downsizes wider images before encoding, keeping
	// the aspect ratio. Zero disables scaling.
	MaxImageWidth int

	// Objects allocates 3D object ids. Sinks opened by one registry
	// share the registry's allocator. Nil gives the sink its own.
	Objects *scene.IDAllocator

	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Encoding == "" {
		o.Encoding = EncodingJSON
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = DefaultSyncTimeout
	}
	if o.ImageQuality <= 0 || o.ImageQuality > 100 {
		o.ImageQuality = DefaultImageQuality
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) validate() error {
	switch o.Encoding {
	case "", EncodingJSON, EncodingCBOR:
	default:
		return fmt.Errorf("sink %q: unsupported message encoding %q", o.Name, o.Encoding)
	}
	if o.PositionHistory < 0 {
		return fmt.Errorf("sink %q: negative position history %d", o.Name, o.PositionHistory)
	}
	if o.MaxImageWidth < 0 {
		return fmt.Errorf("sink %q: negative max image width %d", o.Name, o.MaxImageWidth)
	}
	return nil
}

// Calibration holds camera intrinsics for WriteCameraCalibration.
type Calibration struct {
	Width           uint32
	Height          uint32
	DistortionModel string
	D               []float64
	K               [9]float64
	R               [9]float64
	P               [12]float64
}

// LogRecord is one entry for WriteLog.
type LogRecord struct {
	Timestamp uint64
	Level     foxglove.LogLevel
	Message   string
	Name      string
	File      string
	Line      uint32
}

// Stats is a snapshot of a sink's counters.
type Stats struct {
	Name        string
	Kind        Kind
	Open        bool
	Sync        bool
	Pending     int
	Channels    int
	Written     uint64
	Dropped     uint64
	WriteErrors uint64
	LastError   string
}

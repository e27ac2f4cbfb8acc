// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reader plays back telemetry recorded by a file sink.
//
// Each channel has its own forward-only cursor: reading one channel
// never advances another. Channels are classified by schema name into
// a [ChannelType], and the typed accessors ([Reader.NextImage],
// [Reader.NextLog]) refuse channels of the wrong type without moving
// the cursor. Messages on CBOR channels are transcoded to JSON, so
// callers see the same documents whatever encoding the sink used.
package reader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/tidwall/gjson"

	"github.com/bureau-foundation/telecap/lib/codec"
	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/mcapfile"
)

// ChannelType is the semantic type of a recorded channel.
type ChannelType int

const (
	RawJSON ChannelType = iota
	Image
	Object3D
	Log
	Transform
)

func (t ChannelType) String() string {
	switch t {
	case RawJSON:
		return "raw_json"
	case Image:
		return "image"
	case Object3D:
		return "object_3d"
	case Log:
		return "log"
	case Transform:
		return "transform"
	default:
		return fmt.Sprintf("ChannelType(%d)", int(t))
	}
}

// Classify maps a schema name to a channel type.
func Classify(schemaName string) ChannelType {
	switch schemaName {
	case foxglove.CompressedImageSchema:
		return Image
	case foxglove.LogSchema:
		return Log
	case foxglove.SceneUpdateSchema:
		return Object3D
	case foxglove.FrameTransformsSchema:
		return Transform
	default:
		return RawJSON
	}
}

var (
	// ErrUnknownChannel is returned for a channel not in the file.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrChannelType is returned when a typed accessor is used on a
	// channel of another type.
	ErrChannelType = errors.New("channel type mismatch")
)

// Message is one recorded message as JSON.
type Message struct {
	Channel   string
	Timestamp uint64
	Data      []byte
}

// ImageFrame is a decoded image message.
type ImageFrame struct {
	Timestamp uint64
	FrameID   string
	Format    string
	Image     image.Image
}

// LogEntry is a decoded log message.
type LogEntry struct {
	Timestamp uint64
	Level     foxglove.LogLevel
	Message   string
	Name      string
	File      string
	Line      uint32
}

type cursor struct {
	channel  mcapfile.Channel
	kind     ChannelType
	iterator *mcapfile.Iterator
	done     bool
}

// Reader reads one recording. Not safe for concurrent use.
type Reader struct {
	file    *mcapfile.Reader
	cursors map[string]*cursor
}

// Open reads the channel list of path. Files left without a summary by
// an interrupted writer are scanned instead.
func Open(path string) (*Reader, error) {
	file, err := mcapfile.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: file, cursors: make(map[string]*cursor)}
	for _, channel := range file.Channels() {
		r.cursors[channel.Topic] = &cursor{channel: channel, kind: Classify(channel.SchemaName)}
	}
	return r, nil
}

// Channels maps every channel name to its type.
func (r *Reader) Channels() map[string]ChannelType {
	channels := make(map[string]ChannelType, len(r.cursors))
	for name, c := range r.cursors {
		channels[name] = c.kind
	}
	return channels
}

// Schema returns the schema name and document of channel.
func (r *Reader) Schema(channel string) (name string, data []byte, err error) {
	c, ok := r.cursors[channel]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	return c.channel.SchemaName, c.channel.Schema, nil
}

// NextMessage returns the next message on channel as JSON, or io.EOF
// after the last one. Any channel type may be read this way.
func (r *Reader) NextMessage(channel string) (Message, error) {
	c, err := r.lookup(channel, nil)
	if err != nil {
		return Message{}, err
	}
	return r.next(c)
}

// NextImage decodes the next image on an Image channel.
func (r *Reader) NextImage(channel string) (ImageFrame, error) {
	kind := Image
	c, err := r.lookup(channel, &kind)
	if err != nil {
		return ImageFrame{}, err
	}
	message, err := r.next(c)
	if err != nil {
		return ImageFrame{}, err
	}

	document := gjson.ParseBytes(message.Data)
	encoded := document.Get("data")
	if !encoded.Exists() {
		return ImageFrame{}, fmt.Errorf("channel %q: image message without data", channel)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		return ImageFrame{}, fmt.Errorf("channel %q: decoding image data: %w", channel, err)
	}
	decoded, err := decodeImage(document.Get("format").String(), raw)
	if err != nil {
		return ImageFrame{}, fmt.Errorf("channel %q: %w", channel, err)
	}
	return ImageFrame{
		Timestamp: message.Timestamp,
		FrameID:   document.Get("frame_id").String(),
		Format:    document.Get("format").String(),
		Image:     decoded,
	}, nil
}

func decodeImage(format string, data []byte) (image.Image, error) {
	switch format {
	case "jpeg", "jpg", "":
		return jpeg.Decode(bytes.NewReader(data))
	default:
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s image: %w", format, err)
		}
		return decoded, nil
	}
}

// NextLog decodes the next record on a Log channel.
func (r *Reader) NextLog(channel string) (LogEntry, error) {
	kind := Log
	c, err := r.lookup(channel, &kind)
	if err != nil {
		return LogEntry{}, err
	}
	message, err := r.next(c)
	if err != nil {
		return LogEntry{}, err
	}

	document := gjson.ParseBytes(message.Data)
	text := document.Get("message")
	if !text.Exists() {
		return LogEntry{}, fmt.Errorf("channel %q: log message without text", channel)
	}
	timestamp := foxglove.Time{
		Sec:  uint32(document.Get("timestamp.sec").Uint()),
		Nsec: uint32(document.Get("timestamp.nsec").Uint()),
	}
	return LogEntry{
		Timestamp: timestamp.Nanos(),
		Level:     foxglove.LogLevel(document.Get("level").Uint()),
		Message:   text.String(),
		Name:      document.Get("name").String(),
		File:      document.Get("file").String(),
		Line:      uint32(document.Get("line").Uint()),
	}, nil
}

func (r *Reader) lookup(channel string, want *ChannelType) (*cursor, error) {
	c, ok := r.cursors[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	if want != nil && c.kind != *want {
		return nil, fmt.Errorf("%w: channel %q is %s, not %s", ErrChannelType, channel, c.kind, *want)
	}
	return c, nil
}

func (r *Reader) next(c *cursor) (Message, error) {
	if c.done {
		return Message{}, io.EOF
	}
	if c.iterator == nil {
		iterator, err := r.file.Messages(c.channel.Topic)
		if err != nil {
			return Message{}, err
		}
		c.iterator = iterator
	}

	message, err := c.iterator.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.done = true
			c.iterator.Close()
			c.iterator = nil
		}
		return Message{}, err
	}

	data := message.Data
	if c.channel.MessageEncoding == "cbor" {
		data, err = codec.ToJSON(message.Data)
		if err != nil {
			return Message{}, fmt.Errorf("channel %q: %w", c.channel.Topic, err)
		}
	}
	return Message{Channel: c.channel.Topic, Timestamp: message.LogTime, Data: data}, nil
}

// Close releases any open cursors.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.cursors {
		if c.iterator != nil {
			errs = append(errs, c.iterator.Close())
			c.iterator = nil
		}
	}
	return errors.Join(errs...)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcapfile

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/foxglove/mcap/go/mcap"
)

// DefaultChunkSize is the uncompressed chunk size used when Options
// leaves ChunkSize at zero.
const DefaultChunkSize = 1 << 20

// ErrClosed is returned by operations on a closed Writer.
var ErrClosed = errors.New("mcap writer closed")

// Options configures a Writer.
type Options struct {
	Compression Compression
	Level       Level

	// ChunkSize is the target uncompressed chunk size in bytes.
	ChunkSize int64

	// Profile is written to the MCAP header. Empty for telecap's
	// JSON-schema recordings.
	Profile string

	// Library identifies the producer in the header.
	Library string
}

// Writer appends messages to one MCAP file. Safe for concurrent use.
type Writer struct {
	path string

	mu            sync.Mutex
	file          *os.File
	writer        *mcap.Writer
	nextSchemaID  uint16
	nextChannelID uint16
	sequences     map[uint16]uint32
	closed        bool
}

// Create truncates or creates path and writes the MCAP header.
func Create(path string, options Options) (*Writer, error) {
	writerOptions := &mcap.WriterOptions{
		IncludeCRC: true,
		Chunked:    true,
		ChunkSize:  options.ChunkSize,
	}
	if writerOptions.ChunkSize <= 0 {
		writerOptions.ChunkSize = DefaultChunkSize
	}
	if err := options.Compression.configure(options.Level, writerOptions); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	writer, err := mcap.NewWriter(file, writerOptions)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("initializing mcap writer: %w", err)
	}
	if err := writer.WriteHeader(&mcap.Header{Profile: options.Profile, Library: options.Library}); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing mcap header: %w", err)
	}

	return &Writer{
		path:         path,
		file:         file,
		writer:       writer,
		nextSchemaID: 1, // schema id 0 means "no schema" in MCAP
		sequences:    make(map[uint16]uint32),
	}, nil
}

// Path returns the file path.
func (w *Writer) Path() string { return w.path }

// AddSchema writes a schema record and returns its id.
func (w *Writer) AddSchema(name, encoding string, data []byte) (uint16, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}
	if w.nextSchemaID == math.MaxUint16 {
		return 0, fmt.Errorf("schema id space exhausted")
	}

	id := w.nextSchemaID
	if err := w.writer.WriteSchema(&mcap.Schema{ID: id, Name: name, Encoding: encoding, Data: data}); err != nil {
		return 0, fmt.Errorf("writing schema %q: %w", name, err)
	}
	w.nextSchemaID++
	return id, nil
}

// AddChannel writes a channel record and returns its id.
func (w *Writer) AddChannel(topic, messageEncoding string, schemaID uint16) (uint16, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}
	if w.nextChannelID == math.MaxUint16 {
		return 0, fmt.Errorf("channel id space exhausted")
	}

	id := w.nextChannelID
	err := w.writer.WriteChannel(&mcap.Channel{
		ID:              id,
		SchemaID:        schemaID,
		Topic:           topic,
		MessageEncoding: messageEncoding,
		Metadata:        map[string]string{},
	})
	if err != nil {
		return 0, fmt.Errorf("writing channel %q: %w", topic, err)
	}
	w.nextChannelID++
	return id, nil
}

// Write appends one message. Log and publish time are both timestamp.
func (w *Writer) Write(channelID uint16, timestamp uint64, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	sequence := w.sequences[channelID]
	w.sequences[channelID] = sequence + 1
	return w.writer.WriteMessage(&mcap.Message{
		ChannelID:   channelID,
		Sequence:    sequence,
		LogTime:     timestamp,
		PublishTime: timestamp,
		Data:        data,
	})
}

// Close flushes the last chunk, writes the summary and closes the
// file. Calling Close twice returns ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	finishErr := w.writer.Close()
	closeErr := w.file.Close()
	if finishErr != nil {
		return fmt.Errorf("finishing %s: %w", w.path, finishErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing %s: %w", w.path, closeErr)
	}
	return nil
}

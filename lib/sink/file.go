// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"fmt"
	"math"
	"sync"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/mcapfile"
	"github.com/bureau-foundation/telecap/lib/version"
)

// FileOptions configures OpenFile.
type FileOptions struct {
	Options

	Compression mcapfile.Compression
	Level       mcapfile.Level
	ChunkSize   int64
}

// FileSink records telemetry into an MCAP file.
type FileSink struct {
	*pipeline

	writer *mcapfile.Writer

	// Channels sharing a schema body share one schema record.
	schemasMu sync.Mutex
	schemas   map[catalog.Digest]uint16
}

var _ Sink = (*FileSink)(nil)

// OpenFile creates (or truncates) path and starts the sink's worker.
// The sink name defaults to path.
func OpenFile(path string, options FileOptions) (*FileSink, error) {
	if options.Name == "" {
		options.Name = path
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	writer, err := mcapfile.Create(path, mcapfile.Options{
		Compression: options.Compression,
		Level:       options.Level,
		ChunkSize:   options.ChunkSize,
		Library:     "telecap " + version.Short(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening file sink %q: %w", options.Name, err)
	}

	s := &FileSink{writer: writer, schemas: make(map[catalog.Digest]uint16)}
	s.pipeline = newPipeline(options.Options, s)
	s.start()
	s.logger.Info("file sink opened", "path", path, "compression", options.Compression.String())
	return s, nil
}

// Path returns the file being written.
func (s *FileSink) Path() string { return s.writer.Path() }

func (s *FileSink) kind() Kind { return KindFile }

func (s *FileSink) register(channel string, definition catalog.Definition, encoding string) (uint64, error) {
	digest := catalog.Fingerprint(definition)

	s.schemasMu.Lock()
	defer s.schemasMu.Unlock()
	schemaID, ok := s.schemas[digest]
	if !ok {
		var err error
		schemaID, err = s.writer.AddSchema(definition.Name, definition.Encoding, definition.Data)
		if err != nil {
			return 0, err
		}
		s.schemas[digest] = schemaID
	}
	channelID, err := s.writer.AddChannel(channel, encoding, schemaID)
	if err != nil {
		return 0, err
	}
	return uint64(channelID), nil
}

func (s *FileSink) write(channelID, timestamp uint64, data []byte) error {
	if channelID > math.MaxUint16 {
		return fmt.Errorf("channel id %d out of range", channelID)
	}
	return s.writer.Write(uint16(channelID), timestamp, data)
}

func (s *FileSink) release() error {
	return s.writer.Close()
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/clock"
	"github.com/bureau-foundation/telecap/lib/mcapfile"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(name string) Options {
	return Options{
		Name:   name,
		Clock:  clock.Fake(epoch),
		Logger: quietLogger(),
	}
}

// openTestFile opens a file sink in a temp directory and closes it at
// cleanup if the test did not.
func openTestFile(t *testing.T, options FileOptions) *FileSink {
	t.Helper()
	if options.Clock == nil {
		options.Clock = clock.Fake(epoch)
	}
	if options.Logger == nil {
		options.Logger = quietLogger()
	}
	path := filepath.Join(t.TempDir(), "capture.mcap")
	s, err := OpenFile(path, options)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// readAll returns every message on topic from a closed file.
func readAll(t *testing.T, path, topic string) []mcapfile.Message {
	t.Helper()
	reader, err := mcapfile.Open(path)
	if err != nil {
		t.Fatalf("mcapfile.Open: %v", err)
	}
	iterator, err := reader.Messages(topic)
	if err != nil {
		t.Fatalf("Messages(%q): %v", topic, err)
	}
	defer iterator.Close()

	var messages []mcapfile.Message
	for {
		message, err := iterator.Next()
		if errors.Is(err, io.EOF) {
			return messages
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		messages = append(messages, message)
	}
}

type recorded struct {
	channel   string
	timestamp uint64
	data      []byte
}

// recordingBackend keeps registrations and writes in memory. When
// block is non-nil, write waits for it to be closed.
type recordingBackend struct {
	block    chan struct{}
	failWith error

	mu          sync.Mutex
	channels    map[uint64]string
	definitions map[string]catalog.Definition
	messages    []recorded
	released    bool
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		channels:    make(map[uint64]string),
		definitions: make(map[string]catalog.Definition),
	}
}

func (b *recordingBackend) kind() Kind { return KindFile }

func (b *recordingBackend) register(channel string, definition catalog.Definition, _ string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uint64(len(b.channels) + 1)
	b.channels[id] = channel
	b.definitions[channel] = definition
	return id, nil
}

func (b *recordingBackend) write(channelID, timestamp uint64, data []byte) error {
	if b.block != nil {
		<-b.block
	}
	if b.failWith != nil {
		return b.failWith
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, recorded{channel: b.channels[channelID], timestamp: timestamp, data: data})
	return nil
}

func (b *recordingBackend) release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
	return nil
}

func (b *recordingBackend) snapshot() []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recorded(nil), b.messages...)
}

// startPipeline runs a pipeline over backend and closes it at cleanup.
func startPipeline(t *testing.T, options Options, backend *recordingBackend) *pipeline {
	t.Helper()
	p := newPipeline(options, backend)
	p.start()
	t.Cleanup(func() { p.Close() })
	return p
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcapfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/foxglove/mcap/go/mcap"
)

// Channel describes one channel and its schema.
type Channel struct {
	ID              uint16
	Topic           string
	MessageEncoding string
	SchemaName      string
	SchemaEncoding  string
	Schema          []byte
}

// Message is one message read back from a file.
type Message struct {
	Topic       string
	Sequence    uint32
	LogTime     uint64
	PublishTime uint64
	Data        []byte
}

// Reader gives access to the channels of one MCAP file.
type Reader struct {
	path     string
	indexed  bool
	channels map[string]Channel
}

// Open reads the channel list of path. Files with a summary section
// are read through their index; files without one (a writer that was
// never closed) are scanned from the start.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader, err := mcap.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	r := &Reader{path: path, channels: make(map[string]Channel)}
	if info, infoErr := reader.Info(); infoErr == nil {
		r.indexed = true
		for _, channel := range info.Channels {
			r.channels[channel.Topic] = describe(channel, info.Schemas[channel.SchemaID])
		}
		return r, nil
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding %s: %w", path, err)
	}
	if err := r.scan(file); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) scan(file *os.File) error {
	reader, err := mcap.NewReader(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", r.path, err)
	}
	iterator, err := reader.Messages(mcap.UsingIndex(false))
	if err != nil {
		return fmt.Errorf("scanning %s: %w", r.path, err)
	}
	for {
		schema, channel, _, err := iterator.Next(nil)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// A truncated tail is expected for unclosed files; keep
			// what was readable.
			if len(r.channels) > 0 {
				return nil
			}
			return fmt.Errorf("scanning %s: %w", r.path, err)
		}
		if _, seen := r.channels[channel.Topic]; !seen {
			r.channels[channel.Topic] = describe(channel, schema)
		}
	}
}

func describe(channel *mcap.Channel, schema *mcap.Schema) Channel {
	described := Channel{
		ID:              channel.ID,
		Topic:           channel.Topic,
		MessageEncoding: channel.MessageEncoding,
	}
	if schema != nil {
		described.SchemaName = schema.Name
		described.SchemaEncoding = schema.Encoding
		described.Schema = schema.Data
	}
	return described
}

// Indexed reports whether the file was read through its summary.
func (r *Reader) Indexed() bool { return r.indexed }

// Channels returns the channels sorted by topic.
func (r *Reader) Channels() []Channel {
	channels := make([]Channel, 0, len(r.channels))
	for _, channel := range r.channels {
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Topic < channels[j].Topic })
	return channels
}

// Channel returns the channel named topic.
func (r *Reader) Channel(topic string) (Channel, bool) {
	channel, ok := r.channels[topic]
	return channel, ok
}

// Messages opens a forward-only iterator over topic. The caller must
// Close it.
func (r *Reader) Messages(topic string) (*Iterator, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", r.path, err)
	}
	reader, err := mcap.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}
	iterator, err := reader.Messages(mcap.UsingIndex(r.indexed), mcap.WithTopics([]string{topic}))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("iterating %s in %s: %w", topic, r.path, err)
	}
	return &Iterator{file: file, iterator: iterator, tolerateTruncation: !r.indexed}, nil
}

// Iterator walks the messages of one topic in file order.
type Iterator struct {
	file     *os.File
	iterator mcap.MessageIterator

	// tolerateTruncation turns read errors into io.EOF for files
	// without a summary, whose last chunk may be incomplete.
	tolerateTruncation bool
}

// Next returns the next message, or io.EOF after the last one.
func (it *Iterator) Next() (Message, error) {
	_, channel, message, err := it.iterator.Next(nil)
	if err != nil {
		if errors.Is(err, io.EOF) || it.tolerateTruncation {
			return Message{}, io.EOF
		}
		return Message{}, err
	}
	return Message{
		Topic:       channel.Topic,
		Sequence:    message.Sequence,
		LogTime:     message.LogTime,
		PublishTime: message.PublishTime,
		Data:        append([]byte(nil), message.Data...),
	}, nil
}

// Close releases the iterator's file handle.
func (it *Iterator) Close() error {
	return it.file.Close()
}
